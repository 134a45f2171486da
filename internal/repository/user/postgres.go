package user

import (
	"context"
	"errors"
	"strings"

	"bakery-storefront/internal/db"
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

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

const userColumns = `id::text, name, email, phone, password_hash, role, total_orders, total_spent, order_ids::text[], created_at`

func (r *postgresRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	role := u.Role
	if role == "" {
		role = domain.RoleCustomer
	}
	q := `
INSERT INTO users (name, email, phone, password_hash, role)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + userColumns
	out, err := r.scanUser(r.pool.QueryRow(ctx, q, u.Name, strings.ToLower(u.Email), u.Phone, u.PasswordHash, role))
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1) LIMIT 1`
	return r.scanUser(r.pool.QueryRow(ctx, q, email))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	return r.scanUser(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Phone,
		&u.PasswordHash,
		&u.Role,
		&u.Stats.TotalOrders,
		&u.Stats.TotalSpent,
		&u.Stats.OrderIDs,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if !db.IsUniqueViolation(err, "") {
			r.logger.Error("user repo: scan", zap.Error(err))
		}
		return nil, err
	}
	return &u, nil
}
