package domain

import (
	"context"

	"github.com/google/uuid"
)

// Store groups the repositories the cart and order engines need. InTx runs
// fn against a Store bound to a single transaction: every write made through
// tx commits together when fn returns nil and is discarded otherwise. Calling
// InTx on a transactional Store reuses the open transaction.
type Store interface {
	Products() ProductRepository
	Carts() CartRepository
	Orders() OrderRepository
	Users() UserRepository

	InTx(ctx context.Context, fn func(tx Store) error) error
}

// ProductRepository is the catalog collaborator.
type ProductRepository interface {
	// GetProduct returns ErrProductNotFound-coded errors for unknown ids.
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)

	// GetProducts returns the products that exist among ids. Missing ids are
	// absent from the map.
	GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Product, error)

	ListProducts(ctx context.Context, page Page) ([]Product, int, error)
	UpsertProduct(ctx context.Context, p *Product) error

	// DeleteProduct removes the product. Carts and orders keep their weak
	// references to it.
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	// AdjustStock adds delta to the product's stock. A result below zero
	// fails with a StockError and leaves the stock unchanged.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) error
}

// CartRepository persists whole carts. SaveCart replaces the stored cart in
// one atomic write.
type CartRepository interface {
	// GetCart returns a not_found error when the user has no cart.
	GetCart(ctx context.Context, userID uuid.UUID) (*Cart, error)

	// GetCartForUpdate loads the cart and locks it for the rest of the
	// transaction. A user without a cart gets an empty one, so concurrent
	// writers for the same user still queue on the lock.
	GetCartForUpdate(ctx context.Context, userID uuid.UUID) (*Cart, error)

	SaveCart(ctx context.Context, cart *Cart) error
}

// OrderRepository persists orders and their history.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)

	// GetOrderForUpdate loads the order and locks it for the rest of the
	// transaction.
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (*Order, error)

	// UpdateOrderStatus writes the order's mutable fields and appends entry
	// to its history.
	UpdateOrderStatus(ctx context.Context, order *Order, entry StatusHistoryEntry) error

	// ListOrders returns the page of orders matching filter, newest first,
	// and the total number of matches.
	ListOrders(ctx context.Context, filter OrderFilter) ([]Order, int, error)
	OrderStats(ctx context.Context, filter OrderFilter) (*OrderStats, error)
}

// UserRepository is the read-only identity directory used for display.
type UserRepository interface {
	GetUser(ctx context.Context, id uuid.UUID) (*UserSummary, error)
}
