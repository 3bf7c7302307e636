package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dukerupert/greencart/internal/address"
	"github.com/dukerupert/greencart/internal/domain"
	"github.com/dukerupert/greencart/internal/events"
	"github.com/dukerupert/greencart/internal/idempotency"
	"github.com/dukerupert/greencart/internal/telemetry"
)

// OrderServiceConfig wires the order engine's collaborators. Only Store is
// required.
type OrderServiceConfig struct {
	Store     domain.Store
	Cost      *CostCalculator
	Address   address.Validator
	Publisher events.Publisher

	Idempotency    idempotency.Store
	IdempotencyTTL time.Duration

	// PageLimitMax caps the page size of order queries.
	PageLimitMax int

	Now func() time.Time
}

type orderService struct {
	store     domain.Store
	cost      *CostCalculator
	address   address.Validator
	publisher events.Publisher
	keys      idempotency.Store
	keyTTL    time.Duration
	maxLimit  int
	now       func() time.Time
}

// NewOrderService creates an OrderService. Missing optional collaborators
// get defaults: 18%/500/50 pricing, basic address validation, no events and
// no idempotency keys.
func NewOrderService(cfg OrderServiceConfig) (domain.OrderService, error) {
	if cfg.Store == nil {
		return nil, domain.Internal(nil, "order.init", "order service requires a store")
	}
	s := &orderService{
		store:     cfg.Store,
		cost:      cfg.Cost,
		address:   cfg.Address,
		publisher: cfg.Publisher,
		keys:      cfg.Idempotency,
		keyTTL:    cfg.IdempotencyTTL,
		maxLimit:  cfg.PageLimitMax,
		now:       cfg.Now,
	}
	if s.cost == nil {
		s.cost = DefaultCostCalculator()
	}
	if s.address == nil {
		s.address = address.NewBasicValidator()
	}
	if s.keyTTL <= 0 {
		s.keyTTL = idempotency.DefaultTTL
	}
	if s.maxLimit <= 0 {
		s.maxLimit = domain.MaxPageLimit
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// CancelOrder cancels the order and returns each line's quantity to stock
// in the same transaction. Owners may cancel only pending or confirmed
// orders; sellers and admins may also cancel processing ones.
func (s *orderService) CancelOrder(ctx context.Context, orderID uuid.UUID, actor domain.Actor, reason string) (*domain.Order, error) {
	const op = "order.cancel"

	var (
		order    *domain.Order
		previous domain.OrderStatus
		restored int
	)

	err := s.store.InTx(ctx, func(tx domain.Store) error {
		o, err := tx.Orders().GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return passThrough(err, op, "failed to load order")
		}
		if !domain.OrderPolicy(actor, o).Cancel {
			return withOp(ErrOrderForbidden, op)
		}
		if actor.Role == domain.RoleUser && !o.CanBeCancelled() {
			return withOp(ErrNotCancellable, op)
		}
		if !domain.CanTransition(o.Status, domain.StatusCancelled) {
			return withOp(ErrNotCancellable, op)
		}

		now := s.now()
		previous = o.Status
		entry := o.ApplyStatus(domain.StatusCancelled, actor.ID, reason, now)
		o.CancellationReason = reason
		by := actor.ID
		o.CancelledBy = &by
		if o.PaymentStatus == domain.PaymentPaid {
			o.PaymentStatus = domain.PaymentRefunded
		}

		restored = 0
		for _, item := range o.Items {
			err := tx.Products().AdjustStock(ctx, item.ProductID, item.Quantity)
			if domain.IsCode(err, domain.ENOTFOUND) {
				// The product was deleted after purchase; nothing to restock.
				zerolog.Ctx(ctx).Warn().
					Str("order_id", o.ID.String()).
					Str("product_id", item.ProductID.String()).
					Msg("skipping restock of missing product")
				continue
			}
			if err != nil {
				return passThrough(err, op, "failed to restore stock")
			}
			restored += item.Quantity
		}

		if err := tx.Orders().UpdateOrderStatus(ctx, o, entry); err != nil {
			return passThrough(err, op, "failed to update order")
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Str("actor_role", string(actor.Role)).
		Int("units_restocked", restored).
		Msg("order cancelled")

	if telemetry.Business != nil {
		telemetry.Business.OrdersCancelled.WithLabelValues(string(actor.Role)).Inc()
		telemetry.Business.StatusTransitions.WithLabelValues(string(previous), string(domain.StatusCancelled)).Inc()
		telemetry.Business.UnitsRestocked.Add(float64(restored))
	}

	s.publish(ctx, events.NewOrderEvent(events.OrderCancelled, order, actor.ID, previous, s.now()))
	return order, nil
}

// UpdateOrderStatus moves an order forward in its lifecycle and optionally
// records a tracking number. Stock is untouched, except that a move to
// cancelled goes through CancelOrder and restocks.
func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, actor domain.Actor, update domain.StatusUpdate) (*domain.Order, error) {
	const op = "order.update_status"

	if actor.Role != domain.RoleSeller && actor.Role != domain.RoleAdmin {
		return nil, withOp(ErrStatusForbidden, op)
	}
	if !update.Status.Valid() {
		return nil, withOp(domain.ErrInvalidStatus, op)
	}
	if update.Status == domain.StatusCancelled {
		return s.CancelOrder(ctx, orderID, actor, update.Note)
	}

	var (
		order    *domain.Order
		previous domain.OrderStatus
	)

	err := s.store.InTx(ctx, func(tx domain.Store) error {
		o, err := tx.Orders().GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return passThrough(err, op, "failed to load order")
		}
		if !domain.OrderPolicy(actor, o).UpdateStatus {
			return withOp(ErrOrderForbidden, op)
		}
		if !domain.CanTransition(o.Status, update.Status) {
			return domain.InvalidState(op, "cannot move order from "+string(o.Status)+" to "+string(update.Status))
		}

		previous = o.Status
		if update.TrackingNumber != "" {
			o.TrackingNumber = update.TrackingNumber
		}
		entry := o.ApplyStatus(update.Status, actor.ID, update.Note, s.now())

		if err := tx.Orders().UpdateOrderStatus(ctx, o, entry); err != nil {
			return passThrough(err, op, "failed to update order")
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("order_id", order.ID.String()).
		Str("from", string(previous)).
		Str("to", string(order.Status)).
		Msg("order status updated")

	if telemetry.Business != nil {
		telemetry.Business.StatusTransitions.WithLabelValues(string(previous), string(order.Status)).Inc()
	}

	s.publish(ctx, events.NewOrderEvent(events.OrderStatusUpdated, order, actor.ID, previous, s.now()))
	return order, nil
}

// GetOrder returns the order if actor may view it, with the customer
// resolved from the user directory when available.
func (s *orderService) GetOrder(ctx context.Context, orderID uuid.UUID, actor domain.Actor) (*domain.Order, error) {
	const op = "order.get"

	order, err := s.store.Orders().GetOrder(ctx, orderID)
	if err != nil {
		return nil, passThrough(err, op, "failed to load order")
	}
	if !domain.OrderPolicy(actor, order).View {
		return nil, withOp(ErrOrderForbidden, op)
	}

	s.resolveCustomer(ctx, order)
	return order, nil
}

// ListOrders returns one page of the orders actor may see, newest first.
func (s *orderService) ListOrders(ctx context.Context, actor domain.Actor, filter domain.OrderFilter) (*domain.OrderList, error) {
	const op = "order.list"

	filter, err := s.scope(op, actor, filter)
	if err != nil {
		return nil, err
	}

	orders, total, err := s.store.Orders().ListOrders(ctx, filter)
	if err != nil {
		return nil, passThrough(err, op, "failed to list orders")
	}
	if orders == nil {
		orders = []domain.Order{}
	}

	return &domain.OrderList{
		Orders:     orders,
		Pagination: domain.NewPagination(filter.Page, total),
	}, nil
}

// OrderAnalytics summarizes the orders actor may see.
func (s *orderService) OrderAnalytics(ctx context.Context, actor domain.Actor, filter domain.OrderFilter) (*domain.OrderStats, error) {
	const op = "order.analytics"

	filter, err := s.scope(op, actor, filter)
	if err != nil {
		return nil, err
	}

	stats, err := s.store.Orders().OrderStats(ctx, filter)
	if err != nil {
		return nil, passThrough(err, op, "failed to compute order analytics")
	}
	return stats, nil
}

func (s *orderService) scope(op string, actor domain.Actor, filter domain.OrderFilter) (domain.OrderFilter, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return filter, withOp(domain.ErrInvalidStatus, op)
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return filter, withOp(ErrInvalidRange, op)
	}
	filter.Page = domain.NewPage(filter.Page.Number, filter.Page.Limit, s.maxLimit)
	return domain.ScopeOrderFilter(actor, filter), nil
}

func (s *orderService) resolveCustomer(ctx context.Context, order *domain.Order) {
	user, err := s.store.Users().GetUser(ctx, order.UserID)
	if err != nil {
		if !domain.IsCode(err, domain.ENOTFOUND) {
			zerolog.Ctx(ctx).Warn().Err(err).Str("user_id", order.UserID.String()).Msg("failed to resolve customer")
		}
		return
	}
	order.Customer = user
}

// publish sends event after commit. Failures are logged and never returned.
func (s *orderService) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("type", string(event.Type)).
			Str("order_id", event.OrderID.String()).
			Msg("failed to publish order event")
	}
}
