// Package middleware holds the echo middleware of the API: request ids,
// request-scoped logging, HTTP metrics, bearer identity, role guards and
// rate limiting.
package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/dukerupert/greencart/internal/domain"
	"github.com/dukerupert/greencart/internal/handler"
)

// Common size limits
const (
	KB = 1024
	MB = 1024 * KB

	// MaxBodySize bounds JSON request bodies. Catalog imports are the
	// largest payloads the API accepts.
	MaxBodySize = 1 * MB
)

// respondUnauthorized is a convenience wrapper for 401 errors.
func respondUnauthorized(c echo.Context, message string) error {
	return handler.ErrorResponse(c, domain.Unauthorized("auth", message))
}

// respondForbidden is a convenience wrapper for 403 errors.
func respondForbidden(c echo.Context) error {
	return handler.ErrorResponse(c, domain.Forbidden("auth", "You don't have permission to access this resource"))
}

// respondTooManyRequests is a convenience wrapper for 429 errors.
func respondTooManyRequests(c echo.Context) error {
	c.Response().Header().Set("Retry-After", "1")
	return handler.ErrorResponse(c, domain.Errorf(domain.ERATELIMIT, "ratelimit", "Too many requests"))
}
