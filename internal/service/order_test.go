package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/greencart/internal/domain"
	"github.com/dukerupert/greencart/internal/events"
	"github.com/dukerupert/greencart/internal/memory"
)

func TestCancelOrder_RestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product("Assam Tea", "100", 5)
	order := f.placeOrder(a, 2)
	require.Equal(t, 3, f.stock(a.ID))

	cancelled, err := f.orders.CancelOrder(ctx, order.ID, f.customer, "changed my mind")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, fixedNow, *cancelled.CancelledAt)
	require.NotNil(t, cancelled.CancelledBy)
	assert.Equal(t, f.customer.ID, *cancelled.CancelledBy)
	assert.Equal(t, "changed my mind", cancelled.CancellationReason)
	assert.Equal(t, 5, f.stock(a.ID))

	stored, err := f.store.Orders().GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, stored.Status)
	require.Len(t, stored.History, 2)
	assert.Equal(t, domain.StatusCancelled, stored.History[1].Status)

	_, err = f.orders.CancelOrder(ctx, order.ID, f.customer, "again")
	assert.Equal(t, domain.ESTATE, domain.ErrorCode(err))
	assert.Equal(t, 5, f.stock(a.ID), "second cancel must not restock twice")

	published := f.publisher.Events()
	require.Len(t, published, 2)
	assert.Equal(t, events.OrderCancelled, published[1].Type)
	assert.Equal(t, domain.StatusPending, published[1].PreviousStatus)
}

func TestCancelOrder_Authorization(t *testing.T) {
	ctx := context.Background()

	t.Run("other user is forbidden", func(t *testing.T) {
		f := newFixture(t)
		order := f.placeOrder(f.product("Assam Tea", "100", 5), 1)
		stranger := domain.Actor{ID: uuid.New(), Role: domain.RoleUser}

		_, err := f.orders.CancelOrder(ctx, order.ID, stranger, "")
		assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))
	})

	t.Run("seller outside scope is forbidden", func(t *testing.T) {
		f := newFixture(t)
		order := f.placeOrder(f.product("Assam Tea", "100", 5), 1)
		rival := domain.Actor{ID: uuid.New(), Role: domain.RoleSeller}

		_, err := f.orders.CancelOrder(ctx, order.ID, rival, "")
		assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))
	})

	t.Run("owning seller may cancel", func(t *testing.T) {
		f := newFixture(t)
		order := f.placeOrder(f.product("Assam Tea", "100", 5), 1)

		got, err := f.orders.CancelOrder(ctx, order.ID, f.seller, "out of stock at warehouse")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, got.Status)
	})

	t.Run("unknown order", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.orders.CancelOrder(ctx, uuid.New(), f.admin, "")
		assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	})
}

func TestCancelOrder_ByStatus(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		path     []domain.OrderStatus
		actor    func(f *fixture) domain.Actor
		wantCode string
	}{
		{name: "user cancels confirmed", path: []domain.OrderStatus{domain.StatusConfirmed}, actor: func(f *fixture) domain.Actor { return f.customer }},
		{name: "user cannot cancel processing", path: []domain.OrderStatus{domain.StatusProcessing}, actor: func(f *fixture) domain.Actor { return f.customer }, wantCode: domain.ESTATE},
		{name: "admin cancels processing", path: []domain.OrderStatus{domain.StatusProcessing}, actor: func(f *fixture) domain.Actor { return f.admin }},
		{name: "shipped is final for cancel", path: []domain.OrderStatus{domain.StatusShipped}, actor: func(f *fixture) domain.Actor { return f.admin }, wantCode: domain.ESTATE},
		{name: "delivered is terminal", path: []domain.OrderStatus{domain.StatusShipped, domain.StatusDelivered}, actor: func(f *fixture) domain.Actor { return f.admin }, wantCode: domain.ESTATE},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			a := f.product("Assam Tea", "100", 5)
			order := f.placeOrder(a, 2)
			for _, status := range tt.path {
				_, err := f.orders.UpdateOrderStatus(ctx, order.ID, f.admin, domain.StatusUpdate{Status: status})
				require.NoError(t, err)
			}

			_, err := f.orders.CancelOrder(ctx, order.ID, tt.actor(f), "")
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, domain.ErrorCode(err))
				assert.Equal(t, 3, f.stock(a.ID))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 5, f.stock(a.ID))
		})
	}
}

func TestCancelOrder_PaidBecomesRefunded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(f.product("Assam Tea", "100", 5), 1)

	err := f.store.InTx(ctx, func(tx domain.Store) error {
		o, err := tx.Orders().GetOrderForUpdate(ctx, order.ID)
		if err != nil {
			return err
		}
		o.PaymentStatus = domain.PaymentPaid
		return tx.Orders().UpdateOrderStatus(ctx, o, o.ApplyStatus(domain.StatusConfirmed, f.admin.ID, "paid", fixedNow))
	})
	require.NoError(t, err)

	got, err := f.orders.CancelOrder(ctx, order.ID, f.customer, "")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRefunded, got.PaymentStatus)
}

func TestCancelOrder_SkipsDeletedProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product("Assam Tea", "100", 5)
	b := f.product("Oolong", "70", 5)
	f.add(f.customer.ID, a, 1)
	order := f.placeOrder(b, 2)

	require.NoError(t, f.store.Products().DeleteProduct(ctx, b.ID))

	_, err := f.orders.CancelOrder(ctx, order.ID, f.customer, "")
	require.NoError(t, err)
	assert.Equal(t, 5, f.stock(a.ID))
}

func TestCancelOrder_AtomicOnStorageFailure(t *testing.T) {
	var faulty *faultyStore
	f := newFixtureWithStore(t, memory.NewStore(), func(s domain.Store) domain.Store {
		faulty = &faultyStore{Store: s}
		return faulty
	})
	ctx := context.Background()
	a := f.product("Assam Tea", "100", 5)
	order := f.placeOrder(a, 2)
	faulty.failUpdateOrder = true

	_, err := f.orders.CancelOrder(ctx, order.ID, f.customer, "")
	require.Error(t, err)
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))

	assert.Equal(t, 3, f.stock(a.ID), "stock restore rolls back with the status change")
	stored, err := f.store.Orders().GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)
}

func TestUpdateOrderStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product("Assam Tea", "100", 5)
	order := f.placeOrder(a, 1)

	_, err := f.orders.UpdateOrderStatus(ctx, order.ID, f.customer, domain.StatusUpdate{Status: domain.StatusConfirmed})
	assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err), "users cannot change status")

	_, err = f.orders.UpdateOrderStatus(ctx, order.ID, f.seller, domain.StatusUpdate{Status: "teleported"})
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))

	rival := domain.Actor{ID: uuid.New(), Role: domain.RoleSeller}
	_, err = f.orders.UpdateOrderStatus(ctx, order.ID, rival, domain.StatusUpdate{Status: domain.StatusConfirmed})
	assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))

	got, err := f.orders.UpdateOrderStatus(ctx, order.ID, f.seller, domain.StatusUpdate{Status: domain.StatusShipped, TrackingNumber: "TRK-123"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, got.Status)
	assert.Equal(t, "TRK-123", got.TrackingNumber)
	require.NotNil(t, got.ShippedAt)
	assert.Nil(t, got.ConfirmedAt, "skipped statuses are not stamped")
	assert.Equal(t, 4, f.stock(a.ID), "status updates never touch stock")

	_, err = f.orders.UpdateOrderStatus(ctx, order.ID, f.seller, domain.StatusUpdate{Status: domain.StatusConfirmed})
	assert.Equal(t, domain.ESTATE, domain.ErrorCode(err), "no moving backwards")

	firstShipped := *got.ShippedAt
	later := fixedNow.Add(time.Hour)
	svc := f.orders.(*orderService)
	svc.now = func() time.Time { return later }

	got, err = f.orders.UpdateOrderStatus(ctx, order.ID, f.seller, domain.StatusUpdate{Status: domain.StatusShipped, TrackingNumber: "TRK-456"})
	require.NoError(t, err)
	assert.Equal(t, "TRK-456", got.TrackingNumber)
	assert.Equal(t, firstShipped, *got.ShippedAt, "re-entering a status keeps the first stamp")

	got, err = f.orders.UpdateOrderStatus(ctx, order.ID, f.admin, domain.StatusUpdate{Status: domain.StatusDelivered, Note: "left at door"})
	require.NoError(t, err)
	require.NotNil(t, got.DeliveredAt)
	assert.Equal(t, later, *got.DeliveredAt)

	stored, err := f.store.Orders().GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.History, 4)
	assert.Equal(t, "left at door", stored.History[3].Note)
	assert.Equal(t, f.admin.ID, stored.History[3].UpdatedBy)

	_, err = f.orders.UpdateOrderStatus(ctx, order.ID, f.admin, domain.StatusUpdate{Status: domain.StatusProcessing})
	assert.Equal(t, domain.ESTATE, domain.ErrorCode(err), "delivered is terminal")
}

func TestUpdateOrderStatus_CancelRestocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product("Assam Tea", "100", 5)
	order := f.placeOrder(a, 2)

	got, err := f.orders.UpdateOrderStatus(ctx, order.ID, f.seller, domain.StatusUpdate{Status: domain.StatusCancelled, Note: "fraud check"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, got.Status)
	assert.Equal(t, "fraud check", got.CancellationReason)
	assert.Equal(t, 5, f.stock(a.ID))
}

func TestGetOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(f.product("Assam Tea", "100", 5), 1)

	got, err := f.orders.GetOrder(ctx, order.ID, f.customer)
	require.NoError(t, err)
	require.NotNil(t, got.Customer)
	assert.Equal(t, "asha@example.com", got.Customer.Email)

	_, err = f.orders.GetOrder(ctx, order.ID, f.seller)
	assert.NoError(t, err)

	_, err = f.orders.GetOrder(ctx, order.ID, domain.Actor{ID: uuid.New(), Role: domain.RoleUser})
	assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))

	_, err = f.orders.GetOrder(ctx, uuid.New(), f.admin)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestListOrders_Scoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := f.product("Assam Tea", "100", 50)

	otherSeller := domain.Actor{ID: uuid.New(), Role: domain.RoleSeller}
	foreign := &domain.Product{ID: uuid.New(), SellerID: otherSeller.ID, Name: "Coffee", Price: dec("80"), StockQuantity: 50}
	require.NoError(t, f.store.Products().UpsertProduct(ctx, foreign))

	for i := 0; i < 3; i++ {
		f.placeOrder(mine, 1)
	}
	otherUser := uuid.New()
	f.add(otherUser, foreign, 1)
	_, err := f.orders.CreateOrderFromCart(ctx, otherUser, checkoutRequest())
	require.NoError(t, err)

	t.Run("user sees own orders even when asking for others", func(t *testing.T) {
		list, err := f.orders.ListOrders(ctx, f.customer, domain.OrderFilter{UserID: otherUser})
		require.NoError(t, err)
		assert.Equal(t, 3, list.Pagination.TotalItems)
		for _, o := range list.Orders {
			assert.Equal(t, f.customer.ID, o.UserID)
		}
	})

	t.Run("seller sees orders with its products", func(t *testing.T) {
		list, err := f.orders.ListOrders(ctx, otherSeller, domain.OrderFilter{})
		require.NoError(t, err)
		assert.Equal(t, 1, list.Pagination.TotalItems)
	})

	t.Run("admin sees all with pagination", func(t *testing.T) {
		list, err := f.orders.ListOrders(ctx, f.admin, domain.OrderFilter{Page: domain.Page{Number: 2, Limit: 3}})
		require.NoError(t, err)
		assert.Len(t, list.Orders, 1)
		assert.Equal(t, domain.Pagination{CurrentPage: 2, TotalPages: 2, TotalItems: 4, Limit: 3, HasNext: false, HasPrev: true}, list.Pagination)
	})

	t.Run("page past the end is empty", func(t *testing.T) {
		list, err := f.orders.ListOrders(ctx, f.admin, domain.OrderFilter{Page: domain.Page{Number: 9, Limit: 3}})
		require.NoError(t, err)
		assert.NotNil(t, list.Orders)
		assert.Empty(t, list.Orders)
		assert.False(t, list.Pagination.HasNext)
	})

	t.Run("bad filters", func(t *testing.T) {
		_, err := f.orders.ListOrders(ctx, f.admin, domain.OrderFilter{Status: "lost"})
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))

		from, to := fixedNow, fixedNow.Add(-time.Hour)
		_, err = f.orders.ListOrders(ctx, f.admin, domain.OrderFilter{From: &from, To: &to})
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	})
}

func TestOrderAnalytics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product("Assam Tea", "100", 50)

	first := f.placeOrder(a, 1)
	f.placeOrder(a, 2)
	_, err := f.orders.CancelOrder(ctx, first.ID, f.customer, "")
	require.NoError(t, err)

	stats, err := f.orders.OrderAnalytics(ctx, f.seller, domain.OrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalOrders)
	assert.Equal(t, 1, stats.ByStatus[domain.StatusCancelled])
	assert.Equal(t, 1, stats.ByStatus[domain.StatusPending])
	// 200 + 36 tax + 50 shipping
	assert.True(t, dec("286").Equal(stats.Revenue), "got %s", stats.Revenue)
}

func TestNewOrderService_RequiresStore(t *testing.T) {
	_, err := NewOrderService(OrderServiceConfig{})
	assert.Error(t, err)
}
