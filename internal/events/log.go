package events

import (
	"context"

	"github.com/rs/zerolog"
)

// LogPublisher writes events to the logger. It is the default driver for
// local runs without a broker.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a publisher that logs each event at info level.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With().Str("component", "events").Logger()}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	p.logger.Info().
		Str("event_id", event.ID.String()).
		Str("type", string(event.Type)).
		Str("order_id", event.OrderID.String()).
		Str("order_number", event.OrderNumber).
		Str("status", string(event.Status)).
		Msg("order event")
	return nil
}

func (p *LogPublisher) Close() error { return nil }
