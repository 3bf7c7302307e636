package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound        = &Error{Code: ENOTFOUND, Message: "Order not found"}
	ErrEmptyCart            = &Error{Code: EEMPTYCART, Message: "Cart is empty"}
	ErrInvalidPaymentMethod = &Error{Code: EINVALID, Message: "Unsupported payment method"}
	ErrInvalidStatus        = &Error{Code: EINVALID, Message: "Unknown order status"}
	ErrDuplicateCheckout    = &Error{Code: ECONFLICT, Message: "This checkout request was already submitted"}
)

// OrderService converts carts into orders and manages their lifecycle.
type OrderService interface {
	// CreateOrderFromCart validates the user's cart, creates the order,
	// decrements stock and clears the cart in one atomic unit.
	CreateOrderFromCart(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*Order, error)

	// CancelOrder cancels an order and restores its stock atomically.
	CancelOrder(ctx context.Context, orderID uuid.UUID, actor Actor, reason string) (*Order, error)

	// UpdateOrderStatus moves an order along its lifecycle. Users may not call it.
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, actor Actor, update StatusUpdate) (*Order, error)

	GetOrder(ctx context.Context, orderID uuid.UUID, actor Actor) (*Order, error)
	ListOrders(ctx context.Context, actor Actor, filter OrderFilter) (*OrderList, error)
	OrderAnalytics(ctx context.Context, actor Actor, filter OrderFilter) (*OrderStats, error)
}

// CheckoutRequest carries the caller-supplied parts of a new order.
type CheckoutRequest struct {
	ShippingAddress ShippingAddress
	PaymentMethod   PaymentMethod

	// IdempotencyKey, when set, rejects a second submission of the same request.
	IdempotencyKey string
}

// StatusUpdate is a requested status change.
type StatusUpdate struct {
	Status         OrderStatus
	TrackingNumber string
	Note           string
}

// PaymentMethod is recorded on the order but never processed.
type PaymentMethod string

const (
	PaymentCOD        PaymentMethod = "cod"
	PaymentCard       PaymentMethod = "card"
	PaymentUPI        PaymentMethod = "upi"
	PaymentNetBanking PaymentMethod = "netbanking"
	PaymentWallet     PaymentMethod = "wallet"
)

// Valid reports whether m is a supported method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCOD, PaymentCard, PaymentUPI, PaymentNetBanking, PaymentWallet:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// ShippingAddress is stored on the order as entered at checkout.
type ShippingAddress struct {
	Name    string `json:"name" validate:"required,max=120"`
	Phone   string `json:"phone" validate:"required,phone"`
	Street  string `json:"street" validate:"required,max=200"`
	City    string `json:"city" validate:"required,max=100"`
	State   string `json:"state,omitempty" validate:"max=100"`
	Zip     string `json:"zip" validate:"required,zip"`
	Country string `json:"country,omitempty" validate:"max=60"`
}

// OrderItem snapshots a purchased line. PriceAtPurchase is never revised and
// ProductID is a weak reference: the product may later disappear.
type OrderItem struct {
	ProductID       uuid.UUID       `json:"productId"`
	ProductName     string          `json:"productName"`
	SellerID        uuid.UUID       `json:"sellerId"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"priceAtPurchase"`
}

// LineTotal returns quantity times the purchase price.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CostBreakdown holds the priced components of an order.
type CostBreakdown struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Discount decimal.Decimal `json:"discount"`
}

// Total is subtotal + tax + shipping - discount.
func (c CostBreakdown) Total() decimal.Decimal {
	return c.Subtotal.Add(c.Tax).Add(c.Shipping).Sub(c.Discount)
}

// StatusHistoryEntry is one append-only record of a status change.
type StatusHistoryEntry struct {
	Status    OrderStatus `json:"status"`
	UpdatedAt time.Time   `json:"updatedAt"`
	UpdatedBy uuid.UUID   `json:"updatedBy"`
	Note      string      `json:"note,omitempty"`
}

// Order is created once from a cart. Only the status, tracking, payment
// status and cancellation fields change afterwards.
type Order struct {
	ID              uuid.UUID       `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	UserID          uuid.UUID       `json:"userId"`
	Items           []OrderItem     `json:"products"`
	Status          OrderStatus     `json:"orderStatus"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	TotalCost       decimal.Decimal `json:"totalCost"`
	Cost            CostBreakdown   `json:"costBreakdown"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	TrackingNumber  string          `json:"trackingNumber,omitempty"`

	OrderPlacedAt time.Time  `json:"orderPlacedAt"`
	ConfirmedAt   *time.Time `json:"confirmedAt,omitempty"`
	ShippedAt     *time.Time `json:"shippedAt,omitempty"`
	DeliveredAt   *time.Time `json:"deliveredAt,omitempty"`
	CancelledAt   *time.Time `json:"cancelledAt,omitempty"`

	History            []StatusHistoryEntry `json:"statusHistory"`
	CancellationReason string               `json:"cancellationReason,omitempty"`
	CancelledBy        *uuid.UUID           `json:"cancelledBy,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Customer is resolved for display and is not stored with the order.
	Customer *UserSummary `json:"customer,omitempty"`
}

// HasSeller reports whether any line belongs to sellerID.
func (o *Order) HasSeller(sellerID uuid.UUID) bool {
	for _, item := range o.Items {
		if item.SellerID == sellerID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe to mutate.
func (o *Order) Clone() *Order {
	cp := *o
	cp.Items = append([]OrderItem(nil), o.Items...)
	cp.History = append([]StatusHistoryEntry(nil), o.History...)
	cp.ConfirmedAt = cloneTime(o.ConfirmedAt)
	cp.ShippedAt = cloneTime(o.ShippedAt)
	cp.DeliveredAt = cloneTime(o.DeliveredAt)
	cp.CancelledAt = cloneTime(o.CancelledAt)
	if o.CancelledBy != nil {
		id := *o.CancelledBy
		cp.CancelledBy = &id
	}
	if o.Customer != nil {
		c := *o.Customer
		cp.Customer = &c
	}
	return &cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// UserSummary is the display identity of an order's customer.
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  Role      `json:"role"`
}

// =============================================================================
// Queries
// =============================================================================

// OrderFilter narrows order queries. Zero values mean "any".
type OrderFilter struct {
	Status       OrderStatus
	UserID       uuid.UUID
	SellerID     uuid.UUID
	From         *time.Time
	To           *time.Time
	ProductQuery string
	Page         Page
}

// OrderList is one page of orders.
type OrderList struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// OrderStats summarizes the orders matching a filter.
type OrderStats struct {
	TotalOrders       int                 `json:"totalOrders"`
	ByStatus          map[OrderStatus]int `json:"byStatus"`
	Revenue           decimal.Decimal     `json:"revenue"`
	AverageOrderValue decimal.Decimal     `json:"averageOrderValue"`
}
