// Package worker runs periodic background jobs.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dukerupert/greencart/internal/domain"
	"github.com/dukerupert/greencart/internal/jobs"
	"github.com/dukerupert/greencart/internal/telemetry"
)

// Config holds worker configuration
type Config struct {
	// WorkerID uniquely identifies this worker instance
	WorkerID string

	// PollInterval is how often the sweep runs
	PollInterval time.Duration

	// PendingTTL is the age after which pending orders are cancelled
	PendingTTL time.Duration

	// BatchSize bounds the orders expired per run
	BatchSize int

	// JobTimeout bounds a single run
	JobTimeout time.Duration
}

// Worker expires stale pending orders on a ticker.
type Worker struct {
	config Config
	orders domain.OrderService
	logger zerolog.Logger
	now    func() time.Time

	// running guards against overlapping runs when a sweep outlasts the interval.
	running sync.Mutex
}

// NewWorker creates a new background job worker
func NewWorker(orders domain.OrderService, config Config, logger zerolog.Logger) (*Worker, error) {
	if orders == nil {
		return nil, fmt.Errorf("worker requires an order service")
	}
	if config.PendingTTL <= 0 {
		return nil, fmt.Errorf("worker requires a positive pending TTL")
	}

	// Set defaults
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Minute
	}
	if config.BatchSize <= 0 {
		config.BatchSize = domain.MaxPageLimit
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = time.Minute
	}

	return &Worker{
		config: config,
		orders: orders,
		logger: logger.With().Str("worker_id", config.WorkerID).Logger(),
		now:    time.Now,
	}, nil
}

// Start runs the sweep every PollInterval until the context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info().
		Dur("poll_interval", w.config.PollInterval).
		Dur("pending_ttl", w.config.PendingTTL).
		Msg("worker starting")

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("worker shutting down")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
				w.logger.Error().Err(err).Msg("sweep failed")
			}
		}
	}
}

// RunOnce performs a single sweep. A call made while another sweep is still
// running returns immediately with an empty result.
func (w *Worker) RunOnce(ctx context.Context) (*jobs.ExpireResult, error) {
	if !w.running.TryLock() {
		return &jobs.ExpireResult{}, nil
	}
	defer w.running.Unlock()

	jobCtx, cancel := context.WithTimeout(ctx, w.config.JobTimeout)
	defer cancel()
	jobCtx = w.logger.WithContext(jobCtx)

	start := time.Now()
	result, err := jobs.ExpirePendingOrders(jobCtx, w.orders, jobs.ExpirePendingParams{
		OlderThan: w.now().Add(-w.config.PendingTTL),
		BatchSize: w.config.BatchSize,
	})
	w.record(start, result, err)
	if err != nil {
		telemetry.CaptureError(err, map[string]interface{}{
			"worker_id": w.config.WorkerID,
			"job":       jobs.JobTypeExpirePendingOrders,
		})
		return result, err
	}

	if len(result.Cancelled) > 0 || result.Failed > 0 {
		w.logger.Info().
			Int("cancelled", len(result.Cancelled)).
			Int("failed", result.Failed).
			Msg("expired pending orders")
	}
	return result, nil
}

func (w *Worker) record(start time.Time, result *jobs.ExpireResult, err error) {
	if telemetry.Business == nil {
		return
	}
	job := jobs.JobTypeExpirePendingOrders
	telemetry.Business.JobDuration.WithLabelValues(job).Observe(time.Since(start).Seconds())
	if err != nil || (result != nil && result.Failed > 0) {
		telemetry.Business.JobsFailed.WithLabelValues(job).Inc()
		return
	}
	telemetry.Business.JobsProcessed.WithLabelValues(job).Inc()
}
