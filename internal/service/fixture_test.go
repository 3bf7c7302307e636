package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/greencart/internal/domain"
	"github.com/dukerupert/greencart/internal/events"
	"github.com/dukerupert/greencart/internal/idempotency"
	"github.com/dukerupert/greencart/internal/memory"
)

var fixedNow = time.Date(2026, 5, 16, 10, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func validAddress() domain.ShippingAddress {
	return domain.ShippingAddress{
		Name:    "Asha Rao",
		Phone:   "+91 98450 12345",
		Street:  "12 MG Road",
		City:    "Bengaluru",
		State:   "KA",
		Zip:     "560001",
		Country: "IN",
	}
}

func checkoutRequest() domain.CheckoutRequest {
	return domain.CheckoutRequest{ShippingAddress: validAddress(), PaymentMethod: domain.PaymentCOD}
}

// fixture is a memory-backed cart and order engine with a seller, a
// customer and an admin.
type fixture struct {
	t         *testing.T
	store     *memory.Store
	carts     domain.CartService
	orders    domain.OrderService
	publisher *events.MockPublisher
	keys      *idempotency.MemoryStore

	seller   domain.Actor
	customer domain.Actor
	admin    domain.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, memory.NewStore(), nil)
}

// newFixtureWithStore builds the services on wrap(store) when wrap is set.
func newFixtureWithStore(t *testing.T, store *memory.Store, wrap func(domain.Store) domain.Store) *fixture {
	t.Helper()

	f := &fixture{
		t:         t,
		store:     store,
		publisher: events.NewMockPublisher(),
		keys:      idempotency.NewMemoryStore(),
		seller:    domain.Actor{ID: uuid.New(), Role: domain.RoleSeller},
		customer:  domain.Actor{ID: uuid.New(), Role: domain.RoleUser},
		admin:     domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin},
	}
	store.AddUser(domain.UserSummary{ID: f.customer.ID, Name: "Asha Rao", Email: "asha@example.com", Role: domain.RoleUser})

	var backend domain.Store = store
	if wrap != nil {
		backend = wrap(store)
	}

	cs := NewCartService(backend).(*cartService)
	cs.now = func() time.Time { return fixedNow }
	f.carts = cs

	orders, err := NewOrderService(OrderServiceConfig{
		Store:       backend,
		Publisher:   f.publisher,
		Idempotency: f.keys,
		Now:         func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	f.orders = orders
	return f
}

func (f *fixture) product(name, price string, stock int) *domain.Product {
	f.t.Helper()
	p := &domain.Product{
		ID:            uuid.New(),
		SellerID:      f.seller.ID,
		Name:          name,
		Price:         dec(price),
		StockQuantity: stock,
		CreatedAt:     fixedNow,
		UpdatedAt:     fixedNow,
	}
	require.NoError(f.t, f.store.Products().UpsertProduct(context.Background(), p))
	return p
}

func (f *fixture) stock(id uuid.UUID) int {
	f.t.Helper()
	p, err := f.store.Products().GetProduct(context.Background(), id)
	require.NoError(f.t, err)
	return p.StockQuantity
}

func (f *fixture) setPrice(id uuid.UUID, price string) {
	f.t.Helper()
	ctx := context.Background()
	p, err := f.store.Products().GetProduct(ctx, id)
	require.NoError(f.t, err)
	p.Price = dec(price)
	require.NoError(f.t, f.store.Products().UpsertProduct(ctx, p))
}

func (f *fixture) setStock(id uuid.UUID, stock int) {
	f.t.Helper()
	ctx := context.Background()
	p, err := f.store.Products().GetProduct(ctx, id)
	require.NoError(f.t, err)
	p.StockQuantity = stock
	require.NoError(f.t, f.store.Products().UpsertProduct(ctx, p))
}

func (f *fixture) add(user uuid.UUID, p *domain.Product, qty int) {
	f.t.Helper()
	_, err := f.carts.AddItem(context.Background(), user, p.ID, qty)
	require.NoError(f.t, err)
}

// placeOrder puts qty of p in the customer's cart and checks out.
func (f *fixture) placeOrder(p *domain.Product, qty int) *domain.Order {
	f.t.Helper()
	f.add(f.customer.ID, p, qty)
	order, err := f.orders.CreateOrderFromCart(context.Background(), f.customer.ID, checkoutRequest())
	require.NoError(f.t, err)
	return order
}

// =============================================================================
// Fault injection
// =============================================================================

var errInjected = errors.New("injected failure")

// faultyStore fails selected repository calls, including inside InTx.
type faultyStore struct {
	domain.Store
	failCreateOrder bool
	failSaveCart    bool
	failUpdateOrder bool

	// cartLocks counts GetCartForUpdate calls; shared with tx copies.
	cartLocks *atomic.Int32
}

func (s *faultyStore) InTx(ctx context.Context, fn func(tx domain.Store) error) error {
	return s.Store.InTx(ctx, func(tx domain.Store) error {
		inner := *s
		inner.Store = tx
		return fn(&inner)
	})
}

func (s *faultyStore) Orders() domain.OrderRepository {
	return faultyOrders{OrderRepository: s.Store.Orders(), s: s}
}

func (s *faultyStore) Carts() domain.CartRepository {
	return faultyCarts{CartRepository: s.Store.Carts(), s: s}
}

type faultyOrders struct {
	domain.OrderRepository
	s *faultyStore
}

func (r faultyOrders) CreateOrder(ctx context.Context, o *domain.Order) error {
	if r.s.failCreateOrder {
		return errInjected
	}
	return r.OrderRepository.CreateOrder(ctx, o)
}

func (r faultyOrders) UpdateOrderStatus(ctx context.Context, o *domain.Order, e domain.StatusHistoryEntry) error {
	if r.s.failUpdateOrder {
		return errInjected
	}
	return r.OrderRepository.UpdateOrderStatus(ctx, o, e)
}

type faultyCarts struct {
	domain.CartRepository
	s *faultyStore
}

func (r faultyCarts) SaveCart(ctx context.Context, c *domain.Cart) error {
	if r.s.failSaveCart {
		return errInjected
	}
	return r.CartRepository.SaveCart(ctx, c)
}

func (r faultyCarts) GetCartForUpdate(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	if r.s.cartLocks != nil {
		r.s.cartLocks.Add(1)
	}
	return r.CartRepository.GetCartForUpdate(ctx, userID)
}
