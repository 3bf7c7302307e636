package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrCartItemNotFound = &Error{Code: ENOTFOUND, Message: "Item not found in cart"}
	ErrInvalidQuantity  = &Error{Code: EINVALID, Message: "Quantity must be a positive integer"}
)

// CartService maintains one cart per user. Mutations return the persisted
// cart; GetCart returns a view re-validated against the live catalog.
type CartService interface {
	// AddItem adds quantity units of a product, re-snapshotting its price.
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*Cart, error)

	// GetCart returns the cart merged with live product data. A user with
	// no cart gets an empty view, not an error.
	GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error)

	// UpdateQuantity sets the quantity of an existing line. Use RemoveItem to drop it.
	UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*Cart, error)

	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*Cart, error)

	// ClearCart empties the cart, creating it if needed. Always succeeds on valid input.
	ClearCart(ctx context.Context, userID uuid.UUID) (*Cart, error)
}

// Cart is the persisted desired-purchase set of a single user.
type Cart struct {
	UserID     uuid.UUID       `json:"userId"`
	Items      []CartItem      `json:"items"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// CartItem is one product line. Quantity is at least 1.
type CartItem struct {
	ProductID       uuid.UUID       `json:"productId"`
	Quantity        int             `json:"quantity"`
	PriceAtAddition decimal.Decimal `json:"priceAtAddition"`
	AddedAt         time.Time       `json:"addedAt"`
}

// NewCart returns an empty cart for userID.
func NewCart(userID uuid.UUID, now time.Time) *Cart {
	return &Cart{
		UserID:     userID,
		Items:      []CartItem{},
		TotalPrice: decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Find returns the index of the line for productID, or -1.
func (c *Cart) Find(productID uuid.UUID) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// QuantityOf returns the quantity already in the cart for productID.
func (c *Cart) QuantityOf(productID uuid.UUID) int {
	if i := c.Find(productID); i >= 0 {
		return c.Items[i].Quantity
	}
	return 0
}

// Recalculate sets TotalPrice to the sum of quantity times snapshot price.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.PriceAtAddition.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	c.TotalPrice = total
}

// ItemCount returns the total number of units across all lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// ProductIDs lists the products referenced by the cart, in line order.
func (c *Cart) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(c.Items))
	for i, item := range c.Items {
		ids[i] = item.ProductID
	}
	return ids
}

// Clone returns a deep copy safe to mutate.
func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Items = append([]CartItem(nil), c.Items...)
	if cp.Items == nil {
		cp.Items = []CartItem{}
	}
	return &cp
}

// =============================================================================
// Live validation
// =============================================================================

// LineStatus classifies a cart line against the current catalog.
type LineStatus string

const (
	LineOK                LineStatus = "OK"
	LinePriceChanged      LineStatus = "PRICE_CHANGED"
	LineProductRemoved    LineStatus = "PRODUCT_REMOVED"
	LineOutOfStock        LineStatus = "OUT_OF_STOCK"
	LineInsufficientStock LineStatus = "INSUFFICIENT_STOCK"
)

// IsIssue reports whether the status blocks the line from the cart total.
func (s LineStatus) IsIssue() bool {
	switch s {
	case LineProductRemoved, LineOutOfStock, LineInsufficientStock:
		return true
	}
	return false
}

// CartView is the read-time projection of a cart. It is never persisted.
type CartView struct {
	UserID           uuid.UUID       `json:"userId"`
	Items            []CartLine      `json:"items"`
	TotalPrice       decimal.Decimal `json:"totalPrice"`
	ItemCount        int             `json:"itemCount"`
	ValidationIssues int             `json:"validationIssues"`
	UpdatedAt        time.Time       `json:"updatedAt,omitempty"`
}

// CartLine is a cart item annotated with live product data.
type CartLine struct {
	ProductID       uuid.UUID        `json:"productId"`
	Name            string           `json:"name,omitempty"`
	Quantity        int              `json:"quantity"`
	PriceAtAddition decimal.Decimal  `json:"priceAtAddition"`
	CurrentPrice    *decimal.Decimal `json:"currentPrice,omitempty"`
	AvailableStock  int              `json:"availableStock"`
	Status          LineStatus       `json:"status"`
	ItemTotal       decimal.Decimal  `json:"itemTotal"`
}

// EmptyCartView is returned for users without a cart or without items.
func EmptyCartView(userID uuid.UUID) *CartView {
	return &CartView{
		UserID:     userID,
		Items:      []CartLine{},
		TotalPrice: decimal.Zero,
	}
}

// ValidateCart merges cart with the current state of its products. Lines
// whose product is gone, out of stock or short on stock are excluded from the
// total and counted as issues. A price change is informational: the line is
// totalled at the current price. The cart itself is not modified.
func ValidateCart(cart *Cart, products map[uuid.UUID]*Product) *CartView {
	if cart == nil || len(cart.Items) == 0 {
		view := EmptyCartView(uuid.Nil)
		if cart != nil {
			view.UserID = cart.UserID
			view.UpdatedAt = cart.UpdatedAt
		}
		return view
	}

	view := &CartView{
		UserID:     cart.UserID,
		Items:      make([]CartLine, 0, len(cart.Items)),
		TotalPrice: decimal.Zero,
		UpdatedAt:  cart.UpdatedAt,
	}

	for _, item := range cart.Items {
		line := CartLine{
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			PriceAtAddition: item.PriceAtAddition,
			ItemTotal:       decimal.Zero,
		}

		p, ok := products[item.ProductID]
		switch {
		case !ok || p == nil:
			line.Status = LineProductRemoved
		case p.StockQuantity == 0:
			line.Status = LineOutOfStock
		case p.StockQuantity < item.Quantity:
			line.Status = LineInsufficientStock
		case !p.Price.Equal(item.PriceAtAddition):
			line.Status = LinePriceChanged
		default:
			line.Status = LineOK
		}

		if p != nil {
			price := p.Price
			line.Name = p.Name
			line.CurrentPrice = &price
			line.AvailableStock = p.StockQuantity
		}

		qty := decimal.NewFromInt(int64(item.Quantity))
		switch line.Status {
		case LineOK:
			line.ItemTotal = item.PriceAtAddition.Mul(qty)
		case LinePriceChanged:
			line.ItemTotal = p.Price.Mul(qty)
		default:
			view.ValidationIssues++
		}

		view.TotalPrice = view.TotalPrice.Add(line.ItemTotal)
		view.ItemCount += item.Quantity
		view.Items = append(view.Items, line)
	}

	return view
}
