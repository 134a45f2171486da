package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bakery-storefront/internal/domain"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	logger  *zap.Logger
}

func NewNATSPublisher(url, subject string, logger *zap.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("bakery-storefront"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn, subject: subject, logger: logger}, nil
}

// Publish sends to <subject>.<event type>, e.g. bakery.orders.order.created.
func (p *NATSPublisher) Publish(ctx context.Context, ev domain.OrderEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := nats.NewMsg(p.subject + "." + ev.Type)
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, ev.EventID)
	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush %s: %w", ev.Type, err)
	}
	p.logger.Debug("nats: published", zap.String("event_id", ev.EventID), zap.String("subject", msg.Subject))
	return nil
}

func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
