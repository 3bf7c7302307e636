package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/dukerupert/greencart/internal/domain"
)

// RateLimiterConfig configures the rate limiter
type RateLimiterConfig struct {
	// RequestsPerSecond is the rate of token refill
	RequestsPerSecond float64

	// BurstSize is the maximum number of requests allowed in a burst
	BurstSize int

	// ExpiresIn is how long an idle caller's bucket is kept
	ExpiresIn time.Duration
}

// DefaultRateLimiterConfig returns sensible defaults
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 10,
		BurstSize:         20,
		ExpiresIn:         3 * time.Minute,
	}
}

// StrictRateLimiterConfig returns stricter limits for checkout.
func StrictRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 1,
		BurstSize:         5,
		ExpiresIn:         3 * time.Minute,
	}
}

// RateLimit limits requests per caller: the authenticated actor when known,
// the client IP otherwise.
func RateLimit(config RateLimiterConfig) echo.MiddlewareFunc {
	if config.ExpiresIn <= 0 {
		config.ExpiresIn = 3 * time.Minute
	}

	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(config.RequestsPerSecond),
		Burst:     config.BurstSize,
		ExpiresIn: config.ExpiresIn,
	})

	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Skipper:             echomw.DefaultSkipper,
		Store:               store,
		IdentifierExtractor: rateLimitKey,
		ErrorHandler: func(c echo.Context, err error) error {
			return respondTooManyRequests(c)
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return respondTooManyRequests(c)
		},
	})
}

func rateLimitKey(c echo.Context) (string, error) {
	if actor, ok := domain.ActorFromContext(c.Request().Context()); ok {
		return "user:" + actor.ID.String(), nil
	}
	return "ip:" + c.RealIP(), nil
}
