package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/greencart/internal/domain"
)

type orderRepo struct{ a accessor }

func (r orderRepo) CreateOrder(ctx context.Context, order *domain.Order) error {
	return r.a.with(ctx, func(st *state) error {
		if _, ok := st.orders[order.ID]; ok {
			return domain.Conflict("order.create", "order already exists")
		}
		for _, o := range st.orders {
			if o.OrderNumber == order.OrderNumber {
				return domain.Conflict("order.create", "order number already in use")
			}
		}
		st.orders[order.ID] = stored(order)
		return nil
	})
}

func (r orderRepo) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var out *domain.Order
	err := r.a.with(ctx, func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return domain.NotFound("order.get", "order", id.String())
		}
		out = o.Clone()
		return nil
	})
	return out, err
}

// GetOrderForUpdate is GetOrder: transactions are already serialized.
func (r orderRepo) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.GetOrder(ctx, id)
}

func (r orderRepo) UpdateOrderStatus(ctx context.Context, order *domain.Order, entry domain.StatusHistoryEntry) error {
	return r.a.with(ctx, func(st *state) error {
		current, ok := st.orders[order.ID]
		if !ok {
			return domain.NotFound("order.update_status", "order", order.ID.String())
		}

		next := stored(order)
		next.History = append(current.Clone().History, entry)
		st.orders[order.ID] = next
		return nil
	})
}

func (r orderRepo) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int, error) {
	var (
		out   []domain.Order
		total int
	)
	err := r.a.with(ctx, func(st *state) error {
		matched := match(st, filter)
		total = len(matched)
		out = domain.Paginate(matched, filter.Page)
		return nil
	})
	return out, total, err
}

func (r orderRepo) OrderStats(ctx context.Context, filter domain.OrderFilter) (*domain.OrderStats, error) {
	stats := &domain.OrderStats{ByStatus: map[domain.OrderStatus]int{}, Revenue: decimal.Zero, AverageOrderValue: decimal.Zero}
	err := r.a.with(ctx, func(st *state) error {
		billable := 0
		for _, o := range match(st, filter) {
			stats.TotalOrders++
			stats.ByStatus[o.Status]++
			if o.Status != domain.StatusCancelled {
				billable++
				stats.Revenue = stats.Revenue.Add(o.TotalCost)
			}
		}
		if billable > 0 {
			stats.AverageOrderValue = stats.Revenue.Div(decimal.NewFromInt(int64(billable))).Round(2)
		}
		return nil
	})
	return stats, err
}

// stored drops display-only fields before an order is kept.
func stored(order *domain.Order) *domain.Order {
	cp := order.Clone()
	cp.Customer = nil
	return cp
}

// match returns the orders satisfying filter, newest first.
func match(st *state, f domain.OrderFilter) []domain.Order {
	query := strings.ToLower(strings.TrimSpace(f.ProductQuery))

	var out []domain.Order
	for _, o := range st.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.UserID != uuid.Nil && o.UserID != f.UserID {
			continue
		}
		if f.SellerID != uuid.Nil && !o.HasSeller(f.SellerID) {
			continue
		}
		if f.From != nil && o.OrderPlacedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && o.OrderPlacedAt.After(*f.To) {
			continue
		}
		if query != "" && !hasProductLike(o, query) {
			continue
		}
		out = append(out, *o.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].OrderPlacedAt.Equal(out[j].OrderPlacedAt) {
			return out[i].OrderPlacedAt.After(out[j].OrderPlacedAt)
		}
		return out[i].OrderNumber > out[j].OrderNumber
	})
	return out
}

func hasProductLike(o *domain.Order, query string) bool {
	for _, item := range o.Items {
		if strings.Contains(strings.ToLower(item.ProductName), query) {
			return true
		}
	}
	return false
}
