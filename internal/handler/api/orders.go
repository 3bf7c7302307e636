package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dukerupert/greencart/internal/domain"
	"github.com/dukerupert/greencart/internal/handler"
)

// IdempotencyKeyHeader optionally marks a checkout as a one-time request.
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderHandler serves checkout and order lifecycle routes.
type OrderHandler struct {
	orders domain.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders domain.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type checkoutRequest struct {
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   domain.PaymentMethod   `json:"paymentMethod"`
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type statusRequest struct {
	Status         domain.OrderStatus `json:"status" validate:"required"`
	TrackingNumber string             `json:"trackingNumber" validate:"max=100"`
	Note           string             `json:"note" validate:"max=500"`
}

// Checkout handles POST /api/orders. Address and payment method are checked
// by the order service so every rejection carries the same field names.
func (h *OrderHandler) Checkout(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return handler.ErrorResponse(c, err)
	}

	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return handler.ErrorResponse(c, domain.Invalid("order.create", "Request body is not valid JSON"))
	}

	order, err := h.orders.CreateOrderFromCart(c.Request().Context(), a.ID, domain.CheckoutRequest{
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   domain.PaymentMethod(strings.ToLower(string(req.PaymentMethod))),
		IdempotencyKey:  strings.TrimSpace(c.Request().Header.Get(IdempotencyKeyHeader)),
	})
	if err != nil {
		return handler.ErrorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, order)
}

// List handles GET /api/orders
func (h *OrderHandler) List(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return handler.ErrorResponse(c, err)
	}

	filter, err := orderFilterQuery(c, "order.list")
	if err != nil {
		return handler.ErrorResponse(c, err)
	}

	list, err := h.orders.ListOrders(c.Request().Context(), a, filter)
	if err != nil {
		return handler.ErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Analytics handles GET /api/orders/analytics
func (h *OrderHandler) Analytics(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return handler.ErrorResponse(c, err)
	}

	filter, err := orderFilterQuery(c, "order.analytics")
	if err != nil {
		return handler.ErrorResponse(c, err)
	}

	stats, err := h.orders.OrderAnalytics(c.Request().Context(), a, filter)
	if err != nil {
		return handler.ErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// Get handles GET /api/orders/:id
func (h *OrderHandler) Get(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return handler.ErrorResponse(c, err)
	}

	id, err := uuidParam(c, "order.get", "id")
	if err != nil {
		return handler.ErrorResponse(c, err)
	}

	order, err := h.orders.GetOrder(c.Request().Context(), id, a)
	if err != nil {
		return handler.ErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// Cancel handles POST /api/orders/:id/cancel
func (h *OrderHandler) Cancel(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return handler.ErrorResponse(c, err)
	}

	id, err := uuidParam(c, "order.cancel", "id")
	if err != nil {
		return handler.ErrorResponse(c, err)
	}

	var req cancelRequest
	if err := bind(c, "order.cancel", &req); err != nil {
		return handler.ErrorResponse(c, err)
	}

	order, err := h.orders.CancelOrder(c.Request().Context(), id, a, strings.TrimSpace(req.Reason))
	if err != nil {
		return handler.ErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// UpdateStatus handles PUT /api/orders/:id/status
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return handler.ErrorResponse(c, err)
	}

	id, err := uuidParam(c, "order.status", "id")
	if err != nil {
		return handler.ErrorResponse(c, err)
	}

	var req statusRequest
	if err := bind(c, "order.status", &req); err != nil {
		return handler.ErrorResponse(c, err)
	}

	order, err := h.orders.UpdateOrderStatus(c.Request().Context(), id, a, domain.StatusUpdate{
		Status:         domain.OrderStatus(strings.ToLower(string(req.Status))),
		TrackingNumber: strings.TrimSpace(req.TrackingNumber),
		Note:           strings.TrimSpace(req.Note),
	})
	if err != nil {
		return handler.ErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, order)
}
