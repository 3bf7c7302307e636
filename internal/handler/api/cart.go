package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dukerupert/greencart/internal/domain"
	"github.com/dukerupert/greencart/internal/handler"
)

// CartHandler serves the caller's own cart.
type CartHandler struct {
	carts domain.CartService
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts domain.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

type addItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

// Get handles GET /api/cart
func (h *CartHandler) Get(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return handler.ErrorResponse(c, err)
	}

	view, err := h.carts.GetCart(c.Request().Context(), a.ID)
	if err != nil {
		return handler.ErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// AddItem handles POST /api/cart/items
func (h *CartHandler) AddItem(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return handler.ErrorResponse(c, err)
	}

	var req addItemRequest
	if err := bind(c, "cart.add", &req); err != nil {
		return handler.ErrorResponse(c, err)
	}

	cart, err := h.carts.AddItem(c.Request().Context(), a.ID, req.ProductID, req.Quantity)
	if err != nil {
		return handler.ErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, cart)
}

// UpdateItem handles PUT /api/cart/items/:productId
func (h *CartHandler) UpdateItem(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return handler.ErrorResponse(c, err)
	}

	productID, err := uuidParam(c, "cart.update", "productId")
	if err != nil {
		return handler.ErrorResponse(c, err)
	}

	var req updateItemRequest
	if err := bind(c, "cart.update", &req); err != nil {
		return handler.ErrorResponse(c, err)
	}

	cart, err := h.carts.UpdateQuantity(c.Request().Context(), a.ID, productID, req.Quantity)
	if err != nil {
		return handler.ErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, cart)
}

// RemoveItem handles DELETE /api/cart/items/:productId
func (h *CartHandler) RemoveItem(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return handler.ErrorResponse(c, err)
	}

	productID, err := uuidParam(c, "cart.remove", "productId")
	if err != nil {
		return handler.ErrorResponse(c, err)
	}

	cart, err := h.carts.RemoveItem(c.Request().Context(), a.ID, productID)
	if err != nil {
		return handler.ErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, cart)
}

// Clear handles DELETE /api/cart
func (h *CartHandler) Clear(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return handler.ErrorResponse(c, err)
	}

	cart, err := h.carts.ClearCart(c.Request().Context(), a.ID)
	if err != nil {
		return handler.ErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, cart)
}
