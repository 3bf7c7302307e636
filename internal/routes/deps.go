package routes

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dukerupert/greencart/internal/handler/api"
	"github.com/dukerupert/greencart/internal/middleware"
)

// APIDeps contains dependencies for the JSON API
type APIDeps struct {
	CartHandler    *api.CartHandler
	OrderHandler   *api.OrderHandler
	ProductHandler *api.ProductHandler

	// JWTSecret verifies bearer tokens.
	JWTSecret []byte

	RateLimit         middleware.RateLimiterConfig
	CheckoutRateLimit middleware.RateLimiterConfig
}

// ServerDeps contains the process-wide pieces shared by every route.
type ServerDeps struct {
	Logger  zerolog.Logger
	Metrics *middleware.Metrics

	// Health reports readiness, typically by pinging the database.
	Health func(r *http.Request) error
}
