package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for the cart and order pipeline.
type BusinessMetrics struct {
	// Cart
	CartOperations *prometheus.CounterVec
	CartValue      prometheus.Histogram
	CartIssues     prometheus.Histogram

	// Checkout and orders
	OrdersCreated     *prometheus.CounterVec
	OrderValue        *prometheus.HistogramVec
	OrderItemCount    prometheus.Histogram
	CheckoutFailed    *prometheus.CounterVec
	CheckoutReplays   prometheus.Counter
	OrdersCancelled   *prometheus.CounterVec
	StatusTransitions *prometheus.CounterVec
	UnitsRestocked    prometheus.Counter

	// Events
	EventsPublished *prometheus.CounterVec
	EventsFailed    *prometheus.CounterVec

	// Background jobs
	JobsProcessed *prometheus.CounterVec
	JobsFailed    *prometheus.CounterVec
	JobDuration   *prometheus.HistogramVec
}

// NewBusinessMetrics creates and registers all business metrics
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	return NewBusinessMetricsWith(prometheus.DefaultRegisterer, namespace)
}

// NewBusinessMetricsWith registers the metrics with reg.
func NewBusinessMetricsWith(reg prometheus.Registerer, namespace string) *BusinessMetrics {
	if namespace == "" {
		namespace = "greencart"
	}

	subsystem := "business"
	factory := promauto.With(reg)

	moneyBuckets := []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 25000}

	return &BusinessMetrics{
		// =======================================================================
		// Cart
		// =======================================================================
		CartOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_operations_total",
				Help:      "Cart mutations by operation and outcome",
			},
			[]string{"operation", "outcome"}, // operation: add, update, remove, clear; outcome: ok or error code
		),
		CartValue: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_value",
				Help:      "Validated cart total at view time",
				Buckets:   moneyBuckets,
			},
		),
		CartIssues: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_validation_issues",
				Help:      "Lines excluded from the cart total at view time",
				Buckets:   []float64{0, 1, 2, 3, 5, 10},
			},
		),

		// =======================================================================
		// Orders
		// =======================================================================
		OrdersCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_created_total",
				Help:      "Orders created from carts",
			},
			[]string{"payment_method"},
		),
		OrderValue: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_value",
				Help:      "Order total cost",
				Buckets:   moneyBuckets,
			},
			[]string{"payment_method"},
		),
		OrderItemCount: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_item_count",
				Help:      "Units per order",
				Buckets:   []float64{1, 2, 3, 5, 10, 20, 50},
			},
		),
		CheckoutFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_failed_total",
				Help:      "Rejected or aborted checkouts",
			},
			[]string{"code"},
		),
		CheckoutReplays: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_replays_total",
				Help:      "Checkouts rejected because the idempotency key was already used",
			},
		),
		OrdersCancelled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_cancelled_total",
				Help:      "Cancelled orders by the role that cancelled them",
			},
			[]string{"role"},
		),
		StatusTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_status_transitions_total",
				Help:      "Order status changes",
			},
			[]string{"from", "to"},
		),
		UnitsRestocked: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "units_restocked_total",
				Help:      "Units returned to stock by cancellations",
			},
		),

		// =======================================================================
		// Events
		// =======================================================================
		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "events_published_total",
				Help:      "Order events published",
			},
			[]string{"driver", "type"},
		),
		EventsFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "events_failed_total",
				Help:      "Order events that could not be published",
			},
			[]string{"driver", "type"},
		),

		// =======================================================================
		// Background Jobs
		// =======================================================================
		JobsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "jobs_processed_total",
				Help:      "Background job runs that completed",
			},
			[]string{"job"},
		),
		JobsFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "jobs_failed_total",
				Help:      "Background job items that failed",
			},
			[]string{"job"},
		),
		JobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "job_duration_seconds",
				Help:      "Background job run duration",
				Buckets:   []float64{.01, .05, .1, .5, 1, 5, 15, 60},
			},
			[]string{"job"},
		),
	}
}

// Global instance for easy access from services and handlers
var Business *BusinessMetrics

// InitBusinessMetrics initializes the global business metrics instance
func InitBusinessMetrics(namespace string) *BusinessMetrics {
	Business = NewBusinessMetrics(namespace)
	return Business
}
