package token

import (
	"context"
	"time"

	"bakery-storefront/internal/logging"
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

func (r *postgresRepo) Revoke(ctx context.Context, t Revoked) error {
	const q = `
INSERT INTO revoked_tokens (jti, user_id, expires_at)
VALUES ($1, $2, $3)
ON CONFLICT (jti) DO NOTHING
`
	if _, err := r.pool.Exec(ctx, q, t.JTI, t.UserID, t.ExpiresAt); err != nil {
		r.logger.Error("token repo: revoke", zap.String("user_id", t.UserID), zap.Error(err))
		return err
	}
	return nil
}

func (r *postgresRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = $1)`, jti).Scan(&revoked); err != nil {
		return false, err
	}
	return revoked, nil
}

func (r *postgresRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM revoked_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
