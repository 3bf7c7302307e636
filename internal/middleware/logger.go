package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dukerupert/greencart/internal/domain"
)

// RequestLogger injects a request-scoped logger into the context and writes
// one access line per request. The logger carries request_id, method and
// path, and user_id once Authenticate has run. Place it after RequestID.
func RequestLogger(base zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			r := c.Request()

			logger := base.With().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("request_id", domain.RequestIDFromContext(r.Context())).
				Logger()
			c.SetRequest(r.WithContext(logger.WithContext(r.Context())))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			// Authenticate may have enriched the logger further down the chain.
			l := zerolog.Ctx(c.Request().Context())
			status := c.Response().Status

			var event *zerolog.Event
			switch {
			case status >= 500:
				event = l.Error()
			case status >= 400:
				event = l.Info()
			default:
				event = l.Debug()
			}
			event.
				Str("route", c.Path()).
				Int("status", status).
				Int64("bytes", c.Response().Size).
				Dur("latency", time.Since(start)).
				Msg("request completed")
			return nil
		}
	}
}

// withUser adds the actor to the request-scoped logger.
func withUser(c echo.Context, actor domain.Actor) {
	ctx := c.Request().Context()
	logger := zerolog.Ctx(ctx).With().
		Str("user_id", actor.ID.String()).
		Str("role", string(actor.Role)).
		Logger()
	c.SetRequest(c.Request().WithContext(logger.WithContext(ctx)))
}
