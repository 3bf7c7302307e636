package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/greencart/internal/domain"
)

const orderColumns = `o.id, o.order_number, o.user_id, o.order_status, o.payment_method, o.payment_status,
	o.subtotal, o.tax, o.shipping, o.discount, o.total_cost, o.shipping_address, o.tracking_number,
	o.order_placed_at, o.confirmed_at, o.shipped_at, o.delivered_at, o.cancelled_at,
	o.cancellation_reason, o.cancelled_by, o.created_at, o.updated_at`

type orderRepo struct{ s *Store }

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &o.PaymentMethod, &o.PaymentStatus,
		&o.Cost.Subtotal, &o.Cost.Tax, &o.Cost.Shipping, &o.Cost.Discount, &o.TotalCost,
		&o.ShippingAddress, &o.TrackingNumber,
		&o.OrderPlacedAt, &o.ConfirmedAt, &o.ShippedAt, &o.DeliveredAt, &o.CancelledAt,
		&o.CancellationReason, &o.CancelledBy, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r orderRepo) CreateOrder(ctx context.Context, order *domain.Order) error {
	const op = "order.create"

	return r.s.atomic(ctx, func(db DBTX) error {
		_, err := db.Exec(ctx, `
			INSERT INTO orders (
				id, order_number, user_id, order_status, payment_method, payment_status,
				subtotal, tax, shipping, discount, total_cost, shipping_address, tracking_number,
				order_placed_at, confirmed_at, shipped_at, delivered_at, cancelled_at,
				cancellation_reason, cancelled_by, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`,
			order.ID, order.OrderNumber, order.UserID, order.Status, order.PaymentMethod, order.PaymentStatus,
			order.Cost.Subtotal, order.Cost.Tax, order.Cost.Shipping, order.Cost.Discount, order.TotalCost,
			order.ShippingAddress, order.TrackingNumber,
			order.OrderPlacedAt, order.ConfirmedAt, order.ShippedAt, order.DeliveredAt, order.CancelledAt,
			order.CancellationReason, order.CancelledBy, order.CreatedAt, order.UpdatedAt,
		)
		if err != nil {
			return mapError(err, op)
		}

		batch := &pgx.Batch{}
		for i, item := range order.Items {
			batch.Queue(`
				INSERT INTO order_items (order_id, position, product_id, product_name, seller_id, quantity, price_at_purchase)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				order.ID, i, item.ProductID, item.ProductName, nullableUUID(item.SellerID), item.Quantity, item.PriceAtPurchase)
		}
		for i, entry := range order.History {
			queueHistory(batch, order.ID, i, entry)
		}
		if err := db.SendBatch(ctx, batch).Close(); err != nil {
			return mapError(err, op)
		}
		return nil
	})
}

func queueHistory(batch *pgx.Batch, orderID uuid.UUID, seq int, entry domain.StatusHistoryEntry) {
	batch.Queue(`
		INSERT INTO order_status_history (order_id, seq, status, updated_at, updated_by, note)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		orderID, seq, entry.Status, entry.UpdatedAt, entry.UpdatedBy, entry.Note)
}

func (r orderRepo) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.getOrder(ctx, "order.get", id, "")
}

func (r orderRepo) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.getOrder(ctx, "order.get_for_update", id, " FOR UPDATE")
}

func (r orderRepo) getOrder(ctx context.Context, op string, id uuid.UUID, lock string) (*domain.Order, error) {
	o, err := scanOrder(r.s.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.id = $1`+lock, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFound(op, "order", id.String())
	}
	if err != nil {
		return nil, mapError(err, op)
	}

	orders := []*domain.Order{o}
	if err := r.loadLines(ctx, orders); err != nil {
		return nil, mapError(err, op)
	}
	return o, nil
}

// loadLines fills Items and History for orders with two queries.
func (r orderRepo) loadLines(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*domain.Order, len(orders))
	ids := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		o.Items = []domain.OrderItem{}
		o.History = []domain.StatusHistoryEntry{}
		byID[o.ID] = o
		ids[i] = o.ID
	}

	rows, err := r.s.db.Query(ctx, `
		SELECT order_id, product_id, product_name, seller_id, quantity, price_at_purchase
		FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, position`, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		var (
			orderID uuid.UUID
			seller  *uuid.UUID
			item    domain.OrderItem
		)
		if err := rows.Scan(&orderID, &item.ProductID, &item.ProductName, &seller, &item.Quantity, &item.PriceAtPurchase); err != nil {
			rows.Close()
			return err
		}
		if seller != nil {
			item.SellerID = *seller
		}
		byID[orderID].Items = append(byID[orderID].Items, item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.s.db.Query(ctx, `
		SELECT order_id, status, updated_at, updated_by, note
		FROM order_status_history WHERE order_id = ANY($1) ORDER BY order_id, seq`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			orderID uuid.UUID
			entry   domain.StatusHistoryEntry
		)
		if err := rows.Scan(&orderID, &entry.Status, &entry.UpdatedAt, &entry.UpdatedBy, &entry.Note); err != nil {
			return err
		}
		byID[orderID].History = append(byID[orderID].History, entry)
	}
	return rows.Err()
}

func (r orderRepo) UpdateOrderStatus(ctx context.Context, order *domain.Order, entry domain.StatusHistoryEntry) error {
	const op = "order.update_status"

	return r.s.atomic(ctx, func(db DBTX) error {
		tag, err := db.Exec(ctx, `
			UPDATE orders SET
				order_status = $2, payment_status = $3, tracking_number = $4,
				confirmed_at = $5, shipped_at = $6, delivered_at = $7, cancelled_at = $8,
				cancellation_reason = $9, cancelled_by = $10, updated_at = $11
			WHERE id = $1`,
			order.ID, order.Status, order.PaymentStatus, order.TrackingNumber,
			order.ConfirmedAt, order.ShippedAt, order.DeliveredAt, order.CancelledAt,
			order.CancellationReason, order.CancelledBy, order.UpdatedAt)
		if err != nil {
			return mapError(err, op)
		}
		if tag.RowsAffected() == 0 {
			return domain.NotFound(op, "order", order.ID.String())
		}

		_, err = db.Exec(ctx, `
			INSERT INTO order_status_history (order_id, seq, status, updated_at, updated_by, note)
			SELECT $1, COALESCE(MAX(seq) + 1, 0), $2, $3, $4, $5
			FROM order_status_history WHERE order_id = $1`,
			order.ID, entry.Status, entry.UpdatedAt, entry.UpdatedBy, entry.Note)
		return mapError(err, op)
	})
}

// orderWhere renders filter as a WHERE clause over orders o.
func orderWhere(f domain.OrderFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Status != "" {
		add("o.order_status = $%d", f.Status)
	}
	if f.UserID != uuid.Nil {
		add("o.user_id = $%d", f.UserID)
	}
	if f.SellerID != uuid.Nil {
		add("EXISTS (SELECT 1 FROM order_items i WHERE i.order_id = o.id AND i.seller_id = $%d)", f.SellerID)
	}
	if f.From != nil {
		add("o.order_placed_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("o.order_placed_at <= $%d", *f.To)
	}
	if q := strings.TrimSpace(f.ProductQuery); q != "" {
		add("EXISTS (SELECT 1 FROM order_items i WHERE i.order_id = o.id AND i.product_name ILIKE $%d)", "%"+escapeLike(q)+"%")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r orderRepo) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int, error) {
	const op = "order.list"

	where, args := orderWhere(filter)

	var total int
	if err := r.s.db.QueryRow(ctx, `SELECT count(*) FROM orders o`+where, args...).Scan(&total); err != nil {
		return nil, 0, mapError(err, op)
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM orders o%s ORDER BY o.order_placed_at DESC, o.order_number DESC LIMIT $%d OFFSET $%d`,
		orderColumns, where, n+1, n+2)
	rows, err := r.s.db.Query(ctx, query, append(args, filter.Page.Limit, filter.Page.Offset())...)
	if err != nil {
		return nil, 0, mapError(err, op)
	}

	var page []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, 0, mapError(err, op)
		}
		page = append(page, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err, op)
	}

	if err := r.loadLines(ctx, page); err != nil {
		return nil, 0, mapError(err, op)
	}

	out := make([]domain.Order, len(page))
	for i, o := range page {
		out[i] = *o
	}
	return out, total, nil
}

// OrderStats counts orders per status. Revenue excludes cancelled orders.
func (r orderRepo) OrderStats(ctx context.Context, filter domain.OrderFilter) (*domain.OrderStats, error) {
	const op = "order.stats"

	where, args := orderWhere(filter)
	rows, err := r.s.db.Query(ctx,
		`SELECT o.order_status, count(*), COALESCE(sum(o.total_cost), 0) FROM orders o`+where+` GROUP BY o.order_status`,
		args...)
	if err != nil {
		return nil, mapError(err, op)
	}
	defer rows.Close()

	stats := &domain.OrderStats{
		ByStatus:          map[domain.OrderStatus]int{},
		Revenue:           decimal.Zero,
		AverageOrderValue: decimal.Zero,
	}
	billable := 0
	for rows.Next() {
		var (
			status domain.OrderStatus
			count  int
			sum    decimal.Decimal
		)
		if err := rows.Scan(&status, &count, &sum); err != nil {
			return nil, mapError(err, op)
		}
		stats.ByStatus[status] = count
		stats.TotalOrders += count
		if status != domain.StatusCancelled {
			stats.Revenue = stats.Revenue.Add(sum)
			billable += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, op)
	}

	if billable > 0 {
		stats.AverageOrderValue = stats.Revenue.Div(decimal.NewFromInt(int64(billable))).Round(2)
	}
	return stats, nil
}
