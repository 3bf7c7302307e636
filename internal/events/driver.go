package events

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dukerupert/greencart/internal/telemetry"
)

// Driver names.
const (
	DriverLog      = "log"
	DriverNATS     = "nats"
	DriverKafka    = "kafka"
	DriverRabbitMQ = "rabbitmq"
)

// Config selects and configures a publisher driver.
type Config struct {
	Driver string

	NATSURL           string
	NATSSubjectPrefix string

	KafkaBrokers []string
	KafkaTopic   string

	RabbitMQURL      string
	RabbitMQExchange string
}

// New creates the publisher selected by cfg.Driver, wrapped with metrics.
func New(cfg Config, logger zerolog.Logger) (Publisher, error) {
	var (
		p   Publisher
		err error
	)

	switch cfg.Driver {
	case "", DriverLog:
		cfg.Driver = DriverLog
		p = NewLogPublisher(logger)
	case DriverNATS:
		p, err = NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix)
	case DriverKafka:
		if len(cfg.KafkaBrokers) == 0 || cfg.KafkaTopic == "" {
			return nil, fmt.Errorf("kafka driver requires brokers and a topic")
		}
		p = NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	case DriverRabbitMQ:
		p, err = NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	return Instrument(p, cfg.Driver), nil
}

// Instrument counts published and failed events per driver.
func Instrument(p Publisher, driver string) Publisher {
	return &instrumented{next: p, driver: driver}
}

type instrumented struct {
	next   Publisher
	driver string
}

func (i *instrumented) Publish(ctx context.Context, event Event) error {
	err := i.next.Publish(ctx, event)
	if telemetry.Business != nil {
		if err != nil {
			telemetry.Business.EventsFailed.WithLabelValues(i.driver, string(event.Type)).Inc()
		} else {
			telemetry.Business.EventsPublished.WithLabelValues(i.driver, string(event.Type)).Inc()
		}
	}
	return err
}

func (i *instrumented) Close() error {
	return i.next.Close()
}
