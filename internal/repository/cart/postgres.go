package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"bakery-storefront/internal/domain"
	"bakery-storefront/internal/logging"
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

func (r *postgresRepo) Load(ctx context.Context, userID string) ([]domain.CartItem, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT items FROM cart_snapshots WHERE user_id = $1`, userID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []domain.CartItem{}, nil
		}
		r.logger.Error("cart repo: load", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	items := []domain.CartItem{}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode cart snapshot: %w", err)
	}
	return items, nil
}

func (r *postgresRepo) Save(ctx context.Context, userID string, items []domain.CartItem) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart snapshot: %w", err)
	}
	const q = `
INSERT INTO cart_snapshots (user_id, items, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (user_id) DO UPDATE SET items = EXCLUDED.items, updated_at = now()
`
	if _, err := r.pool.Exec(ctx, q, userID, payload); err != nil {
		r.logger.Error("cart repo: save", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

func (r *postgresRepo) Remove(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM cart_snapshots WHERE user_id = $1`, userID); err != nil {
		r.logger.Error("cart repo: remove", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}
