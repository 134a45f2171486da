// Package events relays order events from the outbox table to a broker.
package events

import (
	"context"
	"fmt"
	"strings"

	"bakery-storefront/internal/domain"
	"bakery-storefront/internal/logging"
	"go.uber.org/zap"
)

// Publisher delivers one event. Publish returns only after the broker
// acknowledged the message or ctx is done.
type Publisher interface {
	Publish(ctx context.Context, ev domain.OrderEvent) error
	Close() error
}

// Settings selects and configures a Publisher.
type Settings struct {
	Driver       string
	KafkaBrokers []string
	KafkaTopic   string
	NATSURL      string
	NATSSubject  string
}

// NewPublisher builds the publisher named by s.Driver. "none" logs events.
func NewPublisher(s Settings, logger *zap.Logger) (Publisher, error) {
	logger = logging.OrNop(logger)
	switch strings.ToLower(strings.TrimSpace(s.Driver)) {
	case "", "none":
		return NewLogPublisher(logger), nil
	case "kafka":
		p, err := NewKafkaPublisher(strings.Join(s.KafkaBrokers, ","), s.KafkaTopic, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "nats":
		p, err := NewNATSPublisher(s.NATSURL, s.NATSSubject, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown events driver %q", s.Driver)
}

// LogPublisher writes events to the logger instead of a broker.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logging.OrNop(logger)}
}

func (p *LogPublisher) Publish(_ context.Context, ev domain.OrderEvent) error {
	p.logger.Info("event",
		zap.String("event_id", ev.EventID),
		zap.String("type", ev.Type),
		zap.String("order_id", ev.AggregateID),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
