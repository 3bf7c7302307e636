package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = &Error{Code: ENOTFOUND, Message: "Product not found"}
	ErrInvalidStock    = &Error{Code: EINVALID, Message: "Stock must be a non-negative integer"}
	ErrInvalidPrice    = &Error{Code: EINVALID, Message: "Price must be zero or greater"}
)

// Product is the catalog's view of a sellable item. StockQuantity is never
// negative and only changes through ProductRepository.AdjustStock.
type Product struct {
	ID            uuid.UUID       `json:"id"`
	SellerID      uuid.UUID       `json:"sellerId"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// ProductService exposes the read side of the catalog plus the admin upsert
// used by imports.
type ProductService interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	ListProducts(ctx context.Context, page Page) ([]Product, Pagination, error)
	// UpsertProduct and DeleteProduct are limited to actors allowed by
	// CanManageCatalog.
	UpsertProduct(ctx context.Context, actor Actor, id uuid.UUID, in ProductInput) (*Product, error)
	DeleteProduct(ctx context.Context, actor Actor, id uuid.UUID) error
}

// ProductInput is the catalog import shape. Stock may arrive either as a
// plain number or as {"quantity": n}.
type ProductInput struct {
	SellerID uuid.UUID       `json:"sellerId"`
	Name     string          `json:"name" validate:"required,max=200"`
	Price    decimal.Decimal `json:"price"`
	Stock    StockLevel      `json:"stock"`
}

// Validate checks the input and returns a ValidationError listing every bad field.
func (in ProductInput) Validate() error {
	var err error
	if in.Name == "" {
		err = AddFieldError(err, "name", "is required")
	}
	if in.Price.IsNegative() {
		err = AddFieldError(err, "price", ErrInvalidPrice.Message)
	}
	if in.Stock < 0 {
		err = AddFieldError(err, "stock", ErrInvalidStock.Message)
	}
	return err
}

// StockLevel is a stock-on-hand count decoded from either historical shape.
type StockLevel int

// UnmarshalJSON accepts 5, 5.0 or {"quantity": 5}. Null decodes to zero.
func (s *StockLevel) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = 0
		return nil
	}

	if data[0] == '{' {
		var wrapped struct {
			Quantity *json.Number `json:"quantity"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return fmt.Errorf("decode stock object: %w", err)
		}
		if wrapped.Quantity == nil {
			*s = 0
			return nil
		}
		return s.setNumber(*wrapped.Quantity)
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode stock: %w", err)
	}
	return s.setNumber(n)
}

func (s *StockLevel) setNumber(n json.Number) error {
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return fmt.Errorf("decode stock %q: %w", n, err)
	}
	if !d.IsInteger() {
		return fmt.Errorf("stock %s is not a whole number", n)
	}
	*s = StockLevel(d.IntPart())
	return nil
}

// MarshalJSON always writes the canonical flat form.
func (s StockLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(s))
}
