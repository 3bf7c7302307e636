package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dukerupert/greencart/internal/domain"
)

type cartRepo struct{ s *Store }

func (r cartRepo) GetCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	return r.getCart(ctx, "cart.get", userID, "")
}

// GetCartForUpdate locks the cart row until the transaction ends. A missing
// row is inserted first so there is always a row to lock.
func (r cartRepo) GetCartForUpdate(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	const op = "cart.get_for_update"

	_, err := r.s.db.Exec(ctx, `
		INSERT INTO carts (user_id, total_price, created_at, updated_at)
		VALUES ($1, 0, now(), now())
		ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return nil, mapError(err, op)
	}
	return r.getCart(ctx, op, userID, " FOR UPDATE")
}

func (r cartRepo) getCart(ctx context.Context, op string, userID uuid.UUID, lock string) (*domain.Cart, error) {
	cart := &domain.Cart{UserID: userID, Items: []domain.CartItem{}}
	err := r.s.db.QueryRow(ctx,
		`SELECT total_price, created_at, updated_at FROM carts WHERE user_id = $1`+lock, userID).
		Scan(&cart.TotalPrice, &cart.CreatedAt, &cart.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFound(op, "cart", userID.String())
	}
	if err != nil {
		return nil, mapError(err, op)
	}

	rows, err := r.s.db.Query(ctx, `
		SELECT product_id, quantity, price_at_addition, added_at
		FROM cart_items WHERE user_id = $1 ORDER BY position`, userID)
	if err != nil {
		return nil, mapError(err, op)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.PriceAtAddition, &item.AddedAt); err != nil {
			return nil, mapError(err, op)
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, op)
	}
	return cart, nil
}

// SaveCart replaces the cart header and all of its lines in one
// transaction, so readers never see a partially written cart.
func (r cartRepo) SaveCart(ctx context.Context, cart *domain.Cart) error {
	const op = "cart.save"

	return r.s.atomic(ctx, func(db DBTX) error {
		_, err := db.Exec(ctx, `
			INSERT INTO carts (user_id, total_price, created_at, updated_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id) DO UPDATE SET
				total_price = EXCLUDED.total_price,
				updated_at = EXCLUDED.updated_at`,
			cart.UserID, cart.TotalPrice, cart.CreatedAt, cart.UpdatedAt)
		if err != nil {
			return mapError(err, op)
		}

		batch := &pgx.Batch{}
		batch.Queue(`DELETE FROM cart_items WHERE user_id = $1`, cart.UserID)
		for i, item := range cart.Items {
			batch.Queue(`
				INSERT INTO cart_items (user_id, product_id, position, quantity, price_at_addition, added_at)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				cart.UserID, item.ProductID, i, item.Quantity, item.PriceAtAddition, item.AddedAt)
		}
		if err := db.SendBatch(ctx, batch).Close(); err != nil {
			return mapError(err, op)
		}
		return nil
	})
}
