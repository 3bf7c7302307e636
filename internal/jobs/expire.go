// Package jobs holds the background jobs run by the worker.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dukerupert/greencart/internal/domain"
)

// Job type constants
const (
	JobTypeExpirePendingOrders = "orders:expire_pending"
)

// ExpireReason is recorded on orders cancelled by the sweeper.
const ExpireReason = "Expired: not confirmed in time"

// ExpirePendingParams configures one sweep.
type ExpirePendingParams struct {
	// OlderThan is the cut-off: pending orders placed at or before it expire.
	OlderThan time.Time

	// BatchSize bounds the orders handled in one run.
	BatchSize int
}

// ExpireResult holds the result of one sweep.
type ExpireResult struct {
	Cancelled []uuid.UUID `json:"cancelled"`
	Failed    int         `json:"failed"`
}

// ExpirePendingOrders cancels pending orders placed before the cut-off
// through the normal cancellation path, so their stock is restored. Orders
// that moved on or failed to cancel are left for the next run.
func ExpirePendingOrders(ctx context.Context, orders domain.OrderService, params ExpirePendingParams) (*ExpireResult, error) {
	system := domain.SystemActor()
	cutoff := params.OlderThan

	list, err := orders.ListOrders(ctx, system, domain.OrderFilter{
		Status: domain.StatusPending,
		To:     &cutoff,
		Page:   domain.Page{Number: 1, Limit: params.BatchSize},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending orders: %w", err)
	}

	logger := zerolog.Ctx(ctx)
	result := &ExpireResult{Cancelled: []uuid.UUID{}}

	for _, order := range list.Orders {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		_, err := orders.CancelOrder(ctx, order.ID, system, ExpireReason)
		switch {
		case err == nil:
			result.Cancelled = append(result.Cancelled, order.ID)
		case domain.IsCode(err, domain.ESTATE), domain.IsCode(err, domain.ENOTFOUND):
			// confirmed or removed since the listing
		default:
			result.Failed++
			logger.Warn().Err(err).
				Str("order_id", order.ID.String()).
				Msg("failed to expire pending order")
		}
	}

	return result, nil
}
