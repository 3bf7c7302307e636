// Package events publishes order lifecycle events after their transaction
// commits. Publishing is best effort: callers log failures and carry on.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/greencart/internal/domain"
)

// Type names an order event. It doubles as the routing key or subject suffix.
type Type string

const (
	OrderCreated       Type = "order.created"
	OrderCancelled     Type = "order.cancelled"
	OrderStatusUpdated Type = "order.status_updated"
)

// Event is the wire form of an order event.
type Event struct {
	ID             uuid.UUID          `json:"id"`
	Type           Type               `json:"type"`
	OccurredAt     time.Time          `json:"occurredAt"`
	OrderID        uuid.UUID          `json:"orderId"`
	OrderNumber    string             `json:"orderNumber"`
	UserID         uuid.UUID          `json:"userId"`
	ActorID        uuid.UUID          `json:"actorId"`
	Status         domain.OrderStatus `json:"status"`
	PreviousStatus domain.OrderStatus `json:"previousStatus,omitempty"`
	TotalCost      decimal.Decimal    `json:"totalCost"`
	Items          []Item             `json:"items"`
}

// Item is the stock-relevant part of an order line.
type Item struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

// NewOrderEvent builds an event describing order after a change made by actor.
func NewOrderEvent(t Type, order *domain.Order, actor uuid.UUID, previous domain.OrderStatus, now time.Time) Event {
	items := make([]Item, len(order.Items))
	for i, it := range order.Items {
		items[i] = Item{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return Event{
		ID:             uuid.New(),
		Type:           t,
		OccurredAt:     now,
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		UserID:         order.UserID,
		ActorID:        actor,
		Status:         order.Status,
		PreviousStatus: previous,
		TotalCost:      order.TotalCost,
		Items:          items,
	}
}

// Key returns the partitioning key: events of one order stay ordered.
func (e Event) Key() []byte {
	return []byte(e.OrderID.String())
}

// Encode serializes the event as JSON.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events to a broker.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}
