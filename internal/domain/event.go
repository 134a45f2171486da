package domain

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderDeleted       = "order.deleted"
)

// OrderEvent is an outbox row written in the same transaction as the order change.
type OrderEvent struct {
	Seq         int64           `json:"-"`
	EventID     string          `json:"eventId"`
	Type        string          `json:"type"`
	AggregateID string          `json:"orderId"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"createdAt"`
}
