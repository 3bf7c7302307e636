package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dukerupert/greencart/internal/domain"
	"github.com/dukerupert/greencart/internal/events"
	"github.com/dukerupert/greencart/internal/telemetry"
)

const orderNumberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CreateOrderFromCart turns the user's cart into a pending order.
//
// Validation, stock decrement, order insert and cart clear share a single
// transaction: either all of them happen or none do. Line prices come from
// the cart's snapshots, not the current catalog.
func (s *orderService) CreateOrderFromCart(ctx context.Context, userID uuid.UUID, req domain.CheckoutRequest) (*domain.Order, error) {
	const op = "order.checkout"

	order, err := s.checkout(ctx, op, userID, req)
	if err != nil {
		if telemetry.Business != nil {
			telemetry.Business.CheckoutFailed.WithLabelValues(domain.ErrorCode(err)).Inc()
		}
		zerolog.Ctx(ctx).Info().
			Str("user_id", userID.String()).
			Str("code", domain.ErrorCode(err)).
			Msg("checkout rejected")
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Str("user_id", userID.String()).
		Str("total", order.TotalCost.StringFixed(2)).
		Int("lines", len(order.Items)).
		Msg("order created")

	if telemetry.Business != nil {
		units := 0
		for _, item := range order.Items {
			units += item.Quantity
		}
		method := string(order.PaymentMethod)
		telemetry.Business.OrdersCreated.WithLabelValues(method).Inc()
		telemetry.Business.OrderValue.WithLabelValues(method).Observe(order.TotalCost.InexactFloat64())
		telemetry.Business.OrderItemCount.Observe(float64(units))
	}

	s.resolveCustomer(ctx, order)
	s.publish(ctx, events.NewOrderEvent(events.OrderCreated, order, userID, "", s.now()))
	return order, nil
}

func (s *orderService) checkout(ctx context.Context, op string, userID uuid.UUID, req domain.CheckoutRequest) (*domain.Order, error) {
	if !req.PaymentMethod.Valid() {
		return nil, withOp(domain.ErrInvalidPaymentMethod, op)
	}

	result, err := s.address.Validate(ctx, req.ShippingAddress)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to validate shipping address")
	}
	if err := result.AsDomainError(op); err != nil {
		return nil, err
	}
	shipTo := *result.NormalizedAddress

	release, err := s.reserveKey(ctx, op, userID, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	var order *domain.Order
	err = s.store.InTx(ctx, func(tx domain.Store) error {
		o, err := s.placeOrder(ctx, op, tx, userID, req.PaymentMethod, shipTo)
		if err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		release()
		return nil, err
	}
	return order, nil
}

// placeOrder runs inside the checkout transaction.
func (s *orderService) placeOrder(ctx context.Context, op string, tx domain.Store, userID uuid.UUID, method domain.PaymentMethod, shipTo domain.ShippingAddress) (*domain.Order, error) {
	// Locking the cart makes a second checkout by the same user wait here
	// and then read the cart this one cleared.
	cart, err := tx.Carts().GetCartForUpdate(ctx, userID)
	if err != nil {
		return nil, passThrough(err, op, "failed to load cart")
	}
	if len(cart.Items) == 0 {
		return nil, withOp(domain.ErrEmptyCart, op)
	}

	products, err := tx.Products().GetProducts(ctx, cart.ProductIDs())
	if err != nil {
		return nil, passThrough(err, op, "failed to load products")
	}

	items := make([]domain.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		product, ok := products[line.ProductID]
		if !ok {
			return nil, &domain.Error{
				Code:    ErrProductGone.Code,
				Message: fmt.Sprintf("A product in your cart is no longer available (%s)", line.ProductID),
				Op:      op,
			}
		}
		if product.StockQuantity < line.Quantity {
			return nil, domain.InsufficientStock(op, product, line.Quantity)
		}
		items = append(items, domain.OrderItem{
			ProductID:       product.ID,
			ProductName:     product.Name,
			SellerID:        product.SellerID,
			Quantity:        line.Quantity,
			PriceAtPurchase: line.PriceAtAddition,
		})
	}

	cost, err := s.cost.Calculate(ctx, items, shipTo.Zip)
	if err != nil {
		return nil, err
	}

	now := s.now()
	number, err := newOrderNumber(now)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to generate order number")
	}

	order := &domain.Order{
		ID:              uuid.New(),
		OrderNumber:     number,
		UserID:          userID,
		Items:           items,
		PaymentMethod:   method,
		PaymentStatus:   domain.PaymentPending,
		TotalCost:       cost.Total(),
		Cost:            cost,
		ShippingAddress: shipTo,
		CreatedAt:       now,
	}
	order.ApplyStatus(domain.StatusPending, userID, "Order placed", now)

	// The repository re-checks stock, so a concurrent checkout that got
	// there first surfaces here as a StockError.
	for _, item := range items {
		if err := tx.Products().AdjustStock(ctx, item.ProductID, -item.Quantity); err != nil {
			return nil, passThrough(err, op, "failed to reserve stock")
		}
	}

	if err := tx.Orders().CreateOrder(ctx, order); err != nil {
		return nil, passThrough(err, op, "failed to create order")
	}

	cart.Items = []domain.CartItem{}
	cart.Recalculate()
	cart.UpdatedAt = now
	if err := tx.Carts().SaveCart(ctx, cart); err != nil {
		return nil, passThrough(err, op, "failed to clear cart")
	}

	return order, nil
}

// reserveKey claims the idempotency key, if any, and returns a func that
// frees it again. The key is scoped to the user.
func (s *orderService) reserveKey(ctx context.Context, op string, userID uuid.UUID, key string) (func(), error) {
	noop := func() {}
	if key == "" || s.keys == nil {
		return noop, nil
	}

	scoped := userID.String() + ":" + key
	ok, err := s.keys.Reserve(ctx, scoped, s.keyTTL)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to reserve idempotency key")
	}
	if !ok {
		if telemetry.Business != nil {
			telemetry.Business.CheckoutReplays.Inc()
		}
		return nil, withOp(domain.ErrDuplicateCheckout, op)
	}

	return func() {
		// Detached so a cancelled request still frees its key.
		if err := s.keys.Release(context.WithoutCancel(ctx), scoped); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to release idempotency key")
		}
	}, nil
}

// newOrderNumber returns a human-facing number like ORD-20260516-K7Q2MX.
func newOrderNumber(now time.Time) (string, error) {
	suffix := make([]byte, 6)
	max := big.NewInt(int64(len(orderNumberAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		suffix[i] = orderNumberAlphabet[n.Int64()]
	}
	return "ORD-" + now.UTC().Format("20060102") + "-" + string(suffix), nil
}
