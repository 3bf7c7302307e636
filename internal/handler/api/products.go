package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dukerupert/greencart/internal/domain"
	"github.com/dukerupert/greencart/internal/handler"
)

// ProductHandler serves the catalog.
type ProductHandler struct {
	products domain.ProductService
}

// NewProductHandler creates a new product handler
func NewProductHandler(products domain.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

type productList struct {
	Products   []domain.Product  `json:"products"`
	Pagination domain.Pagination `json:"pagination"`
}

// List handles GET /api/products
func (h *ProductHandler) List(c echo.Context) error {
	page, err := pageQuery(c, "product.list")
	if err != nil {
		return handler.ErrorResponse(c, err)
	}

	products, pagination, err := h.products.ListProducts(c.Request().Context(), page)
	if err != nil {
		return handler.ErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, productList{Products: products, Pagination: pagination})
}

// Get handles GET /api/products/:id
func (h *ProductHandler) Get(c echo.Context) error {
	id, err := uuidParam(c, "product.get", "id")
	if err != nil {
		return handler.ErrorResponse(c, err)
	}

	product, err := h.products.GetProduct(c.Request().Context(), id)
	if err != nil {
		return handler.ErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// Upsert handles PUT /api/products/:id. Stock is accepted as a number or as
// {"quantity": n}.
func (h *ProductHandler) Upsert(c echo.Context) error {
	id, err := uuidParam(c, "product.upsert", "id")
	if err != nil {
		return handler.ErrorResponse(c, err)
	}

	var in domain.ProductInput
	if err := bind(c, "product.upsert", &in); err != nil {
		return handler.ErrorResponse(c, err)
	}

	a, err := actor(c)
	if err != nil {
		return handler.ErrorResponse(c, err)
	}

	product, err := h.products.UpsertProduct(c.Request().Context(), a, id, in)
	if err != nil {
		return handler.ErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// Delete handles DELETE /api/products/:id
func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := uuidParam(c, "product.delete", "id")
	if err != nil {
		return handler.ErrorResponse(c, err)
	}

	a, err := actor(c)
	if err != nil {
		return handler.ErrorResponse(c, err)
	}

	if err := h.products.DeleteProduct(c.Request().Context(), a, id); err != nil {
		return handler.ErrorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
