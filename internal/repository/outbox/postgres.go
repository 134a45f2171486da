package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"bakery-storefront/internal/db"
	"bakery-storefront/internal/domain"
	"bakery-storefront/internal/logging"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

// Append writes an event inside the caller's transaction.
func Append(ctx context.Context, tx pgx.Tx, eventType, aggregateID string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	const q = `
INSERT INTO order_events (event_id, event_type, aggregate_id, payload)
VALUES ($1, $2, $3, $4)
`
	if _, err := tx.Exec(ctx, q, uuid.NewString(), eventType, aggregateID, string(body)); err != nil {
		return fmt.Errorf("append %s: %w", eventType, err)
	}
	return nil
}

func (r *postgresRepo) Drain(ctx context.Context, limit int, publish func(ctx context.Context, events []domain.OrderEvent) (int, error)) (int, error) {
	var published int
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		const q = `
SELECT id, event_id::text, event_type, aggregate_id::text, payload, created_at
FROM order_events
WHERE published_at IS NULL
ORDER BY id
LIMIT $1
FOR UPDATE SKIP LOCKED
`
		rows, err := tx.Query(ctx, q, limit)
		if err != nil {
			return fmt.Errorf("select pending: %w", err)
		}
		var events []domain.OrderEvent
		for rows.Next() {
			var (
				ev  domain.OrderEvent
				raw []byte
			)
			if err := rows.Scan(&ev.Seq, &ev.EventID, &ev.Type, &ev.AggregateID, &raw, &ev.CreatedAt); err != nil {
				rows.Close()
				return err
			}
			ev.Payload = json.RawMessage(raw)
			events = append(events, ev)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}

		n, pubErr := publish(ctx, events)
		if n > 0 {
			seqs := make([]int64, 0, n)
			for _, ev := range events[:n] {
				seqs = append(seqs, ev.Seq)
			}
			if _, err := tx.Exec(ctx, `UPDATE order_events SET published_at = now() WHERE id = ANY($1)`, seqs); err != nil {
				return fmt.Errorf("mark published: %w", err)
			}
			published = n
		}
		if pubErr != nil {
			// Keep the acknowledged prefix; the rest is retried on the next tick.
			r.logger.Warn("outbox: publish failed", zap.Int("published", n), zap.Int("pending", len(events)), zap.Error(pubErr))
		}
		return nil
	})
	if err != nil {
		r.logger.Error("outbox: drain", zap.Error(err))
		return 0, err
	}
	return published, nil
}
