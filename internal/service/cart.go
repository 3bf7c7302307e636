package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dukerupert/greencart/internal/domain"
	"github.com/dukerupert/greencart/internal/telemetry"
)

type cartService struct {
	store domain.Store
	now   func() time.Time
}

// NewCartService creates a CartService backed by store.
func NewCartService(store domain.Store) domain.CartService {
	return &cartService{store: store, now: time.Now}
}

// AddItem adds quantity units of productID to the user's cart. The line's
// price snapshot is refreshed to the current catalog price on every add.
func (s *cartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.Cart, error) {
	const op = "cart.add"

	cart, err := s.addItem(ctx, op, userID, productID, quantity)
	recordCart("add", err)
	return cart, err
}

func (s *cartService) addItem(ctx context.Context, op string, userID, productID uuid.UUID, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, withOp(domain.ErrInvalidQuantity, op)
	}

	var wanted int
	cart, err := s.mutate(ctx, op, userID, func(tx domain.Store, cart *domain.Cart) error {
		product, err := loadProduct(ctx, op, tx, productID)
		if err != nil {
			return err
		}

		wanted = cart.QuantityOf(productID) + quantity
		if product.StockQuantity < wanted {
			return domain.InsufficientStock(op, product, wanted)
		}

		if i := cart.Find(productID); i >= 0 {
			cart.Items[i].Quantity = wanted
			cart.Items[i].PriceAtAddition = product.Price
			return nil
		}
		cart.Items = append(cart.Items, domain.CartItem{
			ProductID:       productID,
			Quantity:        quantity,
			PriceAtAddition: product.Price,
			AddedAt:         s.now(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("product_id", productID.String()).
		Int("quantity", wanted).
		Int("cart_units", cart.ItemCount()).
		Msg("cart item added")
	return cart, nil
}

// GetCart returns the cart merged with a live validation pass. The stored
// cart keeps its price snapshots.
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*domain.CartView, error) {
	const op = "cart.get"

	cart, err := s.store.Carts().GetCart(ctx, userID)
	if domain.IsCode(err, domain.ENOTFOUND) {
		return domain.EmptyCartView(userID), nil
	}
	if err != nil {
		return nil, passThrough(err, op, "failed to load cart")
	}
	if len(cart.Items) == 0 {
		view := domain.EmptyCartView(userID)
		view.UpdatedAt = cart.UpdatedAt
		return view, nil
	}

	products, err := s.store.Products().GetProducts(ctx, cart.ProductIDs())
	if err != nil {
		return nil, passThrough(err, op, "failed to load products")
	}

	view := domain.ValidateCart(cart, products)
	if telemetry.Business != nil {
		telemetry.Business.CartValue.Observe(view.TotalPrice.InexactFloat64())
		telemetry.Business.CartIssues.Observe(float64(view.ValidationIssues))
	}
	return view, nil
}

// UpdateQuantity sets the quantity of a line already in the cart. Quantity
// must be between 1 and the product's stock-on-hand.
func (s *cartService) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.Cart, error) {
	const op = "cart.update"

	cart, err := s.updateQuantity(ctx, op, userID, productID, quantity)
	recordCart("update", err)
	return cart, err
}

func (s *cartService) updateQuantity(ctx context.Context, op string, userID, productID uuid.UUID, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, withOp(domain.ErrInvalidQuantity, op)
	}

	return s.mutate(ctx, op, userID, func(tx domain.Store, cart *domain.Cart) error {
		i := cart.Find(productID)
		if i < 0 {
			return withOp(domain.ErrCartItemNotFound, op)
		}

		product, err := loadProduct(ctx, op, tx, productID)
		if err != nil {
			return err
		}
		if product.StockQuantity < quantity {
			return domain.InsufficientStock(op, product, quantity)
		}

		cart.Items[i].Quantity = quantity
		cart.Items[i].PriceAtAddition = product.Price
		return nil
	})
}

// RemoveItem drops a line from the cart.
func (s *cartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*domain.Cart, error) {
	const op = "cart.remove"

	cart, err := s.removeItem(ctx, op, userID, productID)
	recordCart("remove", err)
	return cart, err
}

func (s *cartService) removeItem(ctx context.Context, op string, userID, productID uuid.UUID) (*domain.Cart, error) {
	return s.mutate(ctx, op, userID, func(tx domain.Store, cart *domain.Cart) error {
		i := cart.Find(productID)
		if i < 0 {
			return withOp(domain.ErrCartItemNotFound, op)
		}
		cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
		return nil
	})
}

// ClearCart empties the cart. It creates the cart if the user has none.
func (s *cartService) ClearCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	const op = "cart.clear"

	cart, err := s.mutate(ctx, op, userID, func(tx domain.Store, cart *domain.Cart) error {
		cart.Items = []domain.CartItem{}
		return nil
	})
	recordCart("clear", err)
	return cart, err
}

// mutate applies fn to the user's cart, locked for the length of one
// transaction, then recomputes the total and saves it. A checkout running
// at the same time either sees the cart before fn or after the save.
func (s *cartService) mutate(ctx context.Context, op string, userID uuid.UUID, fn func(tx domain.Store, cart *domain.Cart) error) (*domain.Cart, error) {
	var out *domain.Cart
	err := s.store.InTx(ctx, func(tx domain.Store) error {
		cart, err := tx.Carts().GetCartForUpdate(ctx, userID)
		if err != nil {
			return passThrough(err, op, "failed to load cart")
		}
		if err := fn(tx, cart); err != nil {
			return err
		}

		cart.Recalculate()
		cart.UpdatedAt = s.now()
		if err := tx.Carts().SaveCart(ctx, cart); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("op", op).Msg("failed to save cart")
			return passThrough(err, op, "failed to save cart")
		}
		out = cart
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func loadProduct(ctx context.Context, op string, tx domain.Store, productID uuid.UUID) (*domain.Product, error) {
	p, err := tx.Products().GetProduct(ctx, productID)
	if domain.IsCode(err, domain.ENOTFOUND) {
		return nil, domain.NotFound(op, "product", productID.String())
	}
	if err != nil {
		return nil, passThrough(err, op, "failed to load product")
	}
	return p, nil
}

func recordCart(operation string, err error) {
	if telemetry.Business == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = domain.ErrorCode(err)
	}
	telemetry.Business.CartOperations.WithLabelValues(operation, outcome).Inc()
}
