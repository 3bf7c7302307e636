package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/greencart/internal/domain"
)

type cartRepo struct{ a accessor }

func (r cartRepo) GetCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	var out *domain.Cart
	err := r.a.with(ctx, func(st *state) error {
		c, ok := st.carts[userID]
		if !ok {
			return domain.NotFound("cart.get", "cart", userID.String())
		}
		out = c.Clone()
		return nil
	})
	return out, err
}

// GetCartForUpdate returns the cart, or a new empty one. Transactions are
// already serialized, so there is nothing to lock.
func (r cartRepo) GetCartForUpdate(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	var out *domain.Cart
	err := r.a.with(ctx, func(st *state) error {
		if c, ok := st.carts[userID]; ok {
			out = c.Clone()
			return nil
		}
		out = domain.NewCart(userID, time.Now())
		return nil
	})
	return out, err
}

func (r cartRepo) SaveCart(ctx context.Context, cart *domain.Cart) error {
	return r.a.with(ctx, func(st *state) error {
		cp := cart.Clone()
		if existing, ok := st.carts[cart.UserID]; ok {
			cp.CreatedAt = existing.CreatedAt
		}
		st.carts[cart.UserID] = cp
		return nil
	})
}
