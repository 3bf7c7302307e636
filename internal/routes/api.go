package routes

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/dukerupert/greencart/internal/domain"
	"github.com/dukerupert/greencart/internal/handler"
	"github.com/dukerupert/greencart/internal/middleware"
	"github.com/dukerupert/greencart/internal/telemetry"
)

// New builds the echo instance with the global middleware chain, /health,
// /metrics and the API routes.
func New(server ServerDeps, deps APIDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	e.Use(
		echomw.Recover(),
		middleware.RequestID(),
		middleware.RequestLogger(server.Logger),
	)
	if server.Metrics != nil {
		e.Use(server.Metrics.Middleware())
		e.GET("/metrics", echo.WrapHandler(server.Metrics.Handler()))
	}
	e.Use(
		echomw.BodyLimit(strconv.Itoa(middleware.MaxBodySize/middleware.KB) + "K"),
		echomw.Secure(),
	)

	e.GET("/health", func(c echo.Context) error {
		if server.Health != nil {
			if err := server.Health(c.Request()); err != nil {
				return handler.ErrorResponse(c, domain.Internal(err, "health", "database unavailable"))
			}
		}
		return c.JSON(http.StatusOK, map[string]string{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	RegisterAPIRoutes(e, deps)
	return e
}

// RegisterAPIRoutes registers the JSON API under /api. Every route requires
// a bearer token.
func RegisterAPIRoutes(e *echo.Echo, deps APIDeps) {
	g := e.Group("/api",
		middleware.Authenticate(deps.JWTSecret),
		telemetry.SentryMiddleware(),
		middleware.RateLimit(deps.RateLimit),
	)

	sellers := middleware.RequireRole(domain.RoleSeller, domain.RoleAdmin)
	admins := middleware.RequireRole(domain.RoleAdmin)

	// Cart
	g.GET("/cart", deps.CartHandler.Get)
	g.POST("/cart/items", deps.CartHandler.AddItem)
	g.PUT("/cart/items/:productId", deps.CartHandler.UpdateItem)
	g.DELETE("/cart/items/:productId", deps.CartHandler.RemoveItem)
	g.DELETE("/cart", deps.CartHandler.Clear)

	// Orders
	g.POST("/orders", deps.OrderHandler.Checkout, middleware.RateLimit(deps.CheckoutRateLimit))
	g.GET("/orders", deps.OrderHandler.List)
	g.GET("/orders/analytics", deps.OrderHandler.Analytics)
	g.GET("/orders/:id", deps.OrderHandler.Get)
	g.POST("/orders/:id/cancel", deps.OrderHandler.Cancel)
	g.PUT("/orders/:id/status", deps.OrderHandler.UpdateStatus, sellers)

	// Catalog
	g.GET("/products", deps.ProductHandler.List)
	g.GET("/products/:id", deps.ProductHandler.Get)
	g.PUT("/products/:id", deps.ProductHandler.Upsert, admins)
	g.DELETE("/products/:id", deps.ProductHandler.Delete, admins)
}
