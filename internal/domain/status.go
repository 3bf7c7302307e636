package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is a state in the order lifecycle:
//
//	pending -> confirmed -> processing -> shipped -> delivered
//
// with cancelled reachable from pending, confirmed and processing.
// delivered and cancelled are terminal.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every known status in lifecycle order.
var OrderStatuses = []OrderStatus{
	StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled,
}

var statusRank = map[OrderStatus]int{
	StatusPending:    0,
	StatusConfirmed:  1,
	StatusProcessing: 2,
	StatusShipped:    3,
	StatusDelivered:  4,
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	if s == StatusCancelled {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

// IsTerminal reports whether no further transition is allowed from s.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether an order in from may move to to. Staying in
// the same non-terminal status is allowed so tracking details can be
// updated; moving backwards is not.
func CanTransition(from, to OrderStatus) bool {
	if !from.Valid() || !to.Valid() || from.IsTerminal() {
		return false
	}
	if to == StatusCancelled {
		return from != StatusShipped
	}
	return statusRank[to] >= statusRank[from]
}

// CanBeCancelled reports whether the order's owner may still cancel it.
func (o *Order) CanBeCancelled() bool {
	return o.Status == StatusPending || o.Status == StatusConfirmed
}

// ApplyStatus moves the order to status, stamps the matching timestamp the
// first time that status is entered and appends a history entry. It does not
// check the transition; callers use CanTransition first.
func (o *Order) ApplyStatus(status OrderStatus, by uuid.UUID, note string, now time.Time) StatusHistoryEntry {
	stamp := func(t **time.Time) {
		if *t == nil {
			at := now
			*t = &at
		}
	}

	switch status {
	case StatusPending:
		if o.OrderPlacedAt.IsZero() {
			o.OrderPlacedAt = now
		}
	case StatusConfirmed:
		stamp(&o.ConfirmedAt)
	case StatusShipped:
		stamp(&o.ShippedAt)
	case StatusDelivered:
		stamp(&o.DeliveredAt)
	case StatusCancelled:
		stamp(&o.CancelledAt)
	}

	o.Status = status
	o.UpdatedAt = now

	entry := StatusHistoryEntry{Status: status, UpdatedAt: now, UpdatedBy: by, Note: note}
	o.History = append(o.History, entry)
	return entry
}
