package events

import (
	"context"
	"time"

	"bakery-storefront/internal/domain"
	"bakery-storefront/internal/logging"
	"bakery-storefront/internal/metrics"
	"bakery-storefront/internal/repository/outbox"
	"go.uber.org/zap"
)

const defaultBatchSize = 100

// Relay polls the outbox and forwards pending events to a Publisher.
type Relay struct {
	repo      outbox.Repository
	publisher Publisher
	interval  time.Duration
	batch     int
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewRelay(repo outbox.Repository, publisher Publisher, interval time.Duration, m *metrics.Metrics, logger *zap.Logger) *Relay {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Relay{
		repo:      repo,
		publisher: publisher,
		interval:  interval,
		batch:     defaultBatchSize,
		metrics:   m,
		logger:    logging.OrNop(logger),
	}
}

// Run drains the outbox every interval until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("outbox relay started", zap.Duration("interval", r.interval))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return
		case <-ticker.C:
			for {
				n, err := r.DrainOnce(ctx)
				if err != nil || n < r.batch {
					break
				}
			}
		}
	}
}

// DrainOnce forwards one batch and returns how many events were published.
func (r *Relay) DrainOnce(ctx context.Context) (int, error) {
	n, err := r.repo.Drain(ctx, r.batch, func(ctx context.Context, events []domain.OrderEvent) (int, error) {
		for i, ev := range events {
			if err := r.publisher.Publish(ctx, ev); err != nil {
				return i, err
			}
			r.metrics.EventPublished(ev.Type)
		}
		return len(events), nil
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.logger.Debug("outbox relay: published", zap.Int("count", n))
	}
	return n, nil
}
