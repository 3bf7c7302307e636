package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/greencart/internal/domain"
)

func sampleOrder() *domain.Order {
	return &domain.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-20260501-ABC123",
		UserID:      uuid.New(),
		Status:      domain.StatusCancelled,
		TotalCost:   decimal.RequireFromString("286"),
		Items: []domain.OrderItem{
			{ProductID: uuid.New(), ProductName: "Lamp", Quantity: 2, PriceAtPurchase: decimal.NewFromInt(100)},
		},
	}
}

func TestNewOrderEvent(t *testing.T) {
	order := sampleOrder()
	actor := uuid.New()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	ev := NewOrderEvent(OrderCancelled, order, actor, domain.StatusPending, now)

	assert.NotEqual(t, uuid.Nil, ev.ID)
	assert.Equal(t, OrderCancelled, ev.Type)
	assert.Equal(t, order.ID, ev.OrderID)
	assert.Equal(t, actor, ev.ActorID)
	assert.Equal(t, domain.StatusPending, ev.PreviousStatus)
	assert.Equal(t, []Item{{ProductID: order.Items[0].ProductID, Quantity: 2}}, ev.Items)
	assert.Equal(t, []byte(order.ID.String()), ev.Key())

	data, err := ev.Encode()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "order.cancelled", decoded["type"])
	assert.Equal(t, "286", decoded["totalCost"])
	assert.Equal(t, "pending", decoded["previousStatus"])
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(zerolog.New(&buf))

	ev := NewOrderEvent(OrderCreated, sampleOrder(), uuid.New(), "", time.Now())
	require.NoError(t, p.Publish(context.Background(), ev))

	assert.Contains(t, buf.String(), `"type":"order.created"`)
	assert.Contains(t, buf.String(), `"component":"events"`)
	assert.NoError(t, p.Close())
}

func TestNew_Drivers(t *testing.T) {
	p, err := New(Config{}, zerolog.Nop())
	require.NoError(t, err)
	assert.NotNil(t, p)

	_, err = New(Config{Driver: "carrier-pigeon"}, zerolog.Nop())
	assert.Error(t, err)

	_, err = New(Config{Driver: DriverKafka}, zerolog.Nop())
	assert.Error(t, err, "kafka requires brokers and topic")

	p, err = New(Config{Driver: DriverKafka, KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "orders"}, zerolog.Nop())
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestInstrument_PassesThroughErrors(t *testing.T) {
	mock := NewMockPublisher()
	boom := errors.New("broker down")
	mock.PublishFunc = func(ctx context.Context, event Event) error { return boom }

	p := Instrument(mock, "mock")
	err := p.Publish(context.Background(), NewOrderEvent(OrderCreated, sampleOrder(), uuid.New(), "", time.Now()))

	assert.ErrorIs(t, err, boom)
	assert.Len(t, mock.Events(), 1)
}

func TestNATSPublisher_Subject(t *testing.T) {
	p := &NATSPublisher{prefix: "shop"}
	assert.Equal(t, "shop.order.status_updated", p.Subject(OrderStatusUpdated))
}
