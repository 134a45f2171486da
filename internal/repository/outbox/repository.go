package outbox

import (
	"context"

	"bakery-storefront/internal/domain"
)

// Repository reads and acknowledges pending order events.
type Repository interface {
	// Drain locks up to limit unpublished events, hands them to publish and
	// marks the ones it accepted as published, all in one transaction.
	Drain(ctx context.Context, limit int, publish func(ctx context.Context, events []domain.OrderEvent) (int, error)) (int, error)
}
