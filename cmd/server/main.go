package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/greencart/internal"
	"github.com/dukerupert/greencart/internal/address"
	"github.com/dukerupert/greencart/internal/domain"
	"github.com/dukerupert/greencart/internal/events"
	"github.com/dukerupert/greencart/internal/handler/api"
	"github.com/dukerupert/greencart/internal/idempotency"
	"github.com/dukerupert/greencart/internal/memory"
	"github.com/dukerupert/greencart/internal/middleware"
	"github.com/dukerupert/greencart/internal/postgres"
	"github.com/dukerupert/greencart/internal/routes"
	"github.com/dukerupert/greencart/internal/service"
	"github.com/dukerupert/greencart/internal/shipping"
	"github.com/dukerupert/greencart/internal/tax"
	"github.com/dukerupert/greencart/internal/telemetry"
	"github.com/dukerupert/greencart/internal/worker"
)

const shutdownTimeout = 15 * time.Second

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	log.Logger = logger
	ctx = logger.WithContext(ctx)

	// Initialize Sentry
	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Enabled:          cfg.Sentry.Enabled,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		SampleRate:       cfg.Sentry.SampleRate,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		Debug:            cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer flushSentry()

	telemetry.InitBusinessMetrics("greencart")

	// Initialize storage
	store, health, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// Initialize event publisher
	publisher, err := events.New(events.Config{
		Driver:            cfg.Events.Driver,
		NATSURL:           cfg.Events.NATSURL,
		NATSSubjectPrefix: cfg.Events.NATSSubjectPrefix,
		KafkaBrokers:      cfg.Events.KafkaBrokers,
		KafkaTopic:        cfg.Events.KafkaTopic,
		RabbitMQURL:       cfg.Events.RabbitMQURL,
		RabbitMQExchange:  cfg.Events.RabbitMQExchange,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize event publisher: %w", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close event publisher")
		}
	}()
	logger.Info().Str("driver", cfg.Events.Driver).Msg("Event publisher initialized")

	// Initialize idempotency store
	keys, closeKeys, err := openIdempotency(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeKeys()

	// Initialize pricing
	taxCalculator := tax.NewNoTaxCalculator()
	if !cfg.Pricing.TaxRate.IsZero() {
		var opts []tax.Option
		if cfg.Pricing.TaxShipping {
			opts = append(opts, tax.WithShipping())
		}
		taxCalculator, err = tax.NewPercentageCalculator(cfg.Pricing.TaxRate, opts...)
		if err != nil {
			return fmt.Errorf("failed to initialize tax calculator: %w", err)
		}
	}
	shippingProvider, err := shipping.NewThresholdProvider(cfg.Pricing.FreeShippingThreshold, cfg.Pricing.ShippingFlatFee)
	if err != nil {
		return fmt.Errorf("failed to initialize shipping provider: %w", err)
	}

	// Initialize services
	orderService, err := service.NewOrderService(service.OrderServiceConfig{
		Store:          store,
		Cost:           service.NewCostCalculator(taxCalculator, shippingProvider),
		Address:        address.NewBasicValidator(),
		Publisher:      publisher,
		Idempotency:    keys,
		IdempotencyTTL: cfg.Idempotency.TTL,
		PageLimitMax:   cfg.Orders.PageLimitMax,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize order service: %w", err)
	}
	cartService := service.NewCartService(store)
	productService := service.NewProductService(store, cfg.Orders.PageLimitMax)

	// Build routes
	apiRateLimit := middleware.DefaultRateLimiterConfig()
	apiRateLimit.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
	apiRateLimit.BurstSize = cfg.RateLimit.Burst

	e := routes.New(
		routes.ServerDeps{
			Logger:  logger,
			Metrics: middleware.NewMetrics("greencart"),
			Health:  health,
		},
		routes.APIDeps{
			CartHandler:       api.NewCartHandler(cartService),
			OrderHandler:      api.NewOrderHandler(orderService),
			ProductHandler:    api.NewProductHandler(productService),
			JWTSecret:         []byte(cfg.JWTSecret),
			RateLimit:         apiRateLimit,
			CheckoutRateLimit: middleware.StrictRateLimiterConfig(),
		},
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("address", srv.Addr).Msg("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Orders.PendingTTL > 0 {
		w, err := worker.NewWorker(orderService, worker.Config{
			PollInterval: cfg.Orders.SweepInterval,
			PendingTTL:   cfg.Orders.PendingTTL,
			BatchSize:    cfg.Orders.PageLimitMax,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize worker: %w", err)
		}
		g.Go(func() error {
			if err := w.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	} else {
		logger.Info().Msg("Pending order expiry disabled")
	}

	return g.Wait()
}

// openStore returns the configured order store, a readiness check and a
// cleanup function.
func openStore(ctx context.Context, cfg *internal.Config, logger zerolog.Logger) (domain.Store, func(*http.Request) error, func(), error) {
	if cfg.StoreDriver == "memory" {
		logger.Warn().Msg("Using in-memory store; data is lost on restart")
		return memory.NewStore(), nil, func() {}, nil
	}

	// Initialize database/sql connection for migrations
	logger.Info().Msg("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	logger.Info().Msg("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return nil, nil, nil, fmt.Errorf("migration failed: %w", err)
	}
	logger.Info().Msg("Database migrations completed successfully")

	// Initialize pgx connection pool for application
	pool, err := postgres.Connect(ctx, cfg.DatabaseUrl)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Info().Msg("Database connection established")

	return postgres.NewStore(pool), poolHealth(pool), pool.Close, nil
}

func poolHealth(pool *pgxpool.Pool) func(*http.Request) error {
	return func(r *http.Request) error {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		return pool.Ping(ctx)
	}
}

// openIdempotency returns the Redis-backed key store when REDIS_ADDR is set
// and the in-process store otherwise.
func openIdempotency(ctx context.Context, cfg *internal.Config, logger zerolog.Logger) (idempotency.Store, func(), error) {
	if cfg.Idempotency.RedisAddr == "" {
		logger.Info().Msg("Idempotency keys kept in memory")
		return idempotency.NewMemoryStore(), func() {}, nil
	}

	client, err := idempotency.NewRedisClient(ctx, cfg.Idempotency.RedisAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info().Str("addr", cfg.Idempotency.RedisAddr).Msg("Idempotency keys kept in redis")

	return idempotency.NewRedisStore(client), closer(client, logger), nil
}

func closer(client *redis.Client, logger zerolog.Logger) func() {
	return func() {
		if err := client.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close redis client")
		}
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
