package address

import (
	"context"
	"errors"
	"fmt"

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

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

const addressColumns = `id::text, user_id::text, name, phone, address_line, city, state, pincode, is_default, created_at`

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *postgresRepo) List(ctx context.Context, userID string) ([]domain.Address, error) {
	return listAddresses(ctx, r.pool, userID)
}

func (r *postgresRepo) Mutate(ctx context.Context, userID string, fn MutateFunc) ([]domain.Address, error) {
	var result []domain.Address
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var locked string
		if err := tx.QueryRow(ctx, `SELECT id::text FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}

		current, err := listAddresses(ctx, tx, userID)
		if err != nil {
			return err
		}
		next, err := fn(cloneAddresses(current))
		if err != nil {
			return err
		}
		if err := applyDiff(ctx, tx, userID, current, next); err != nil {
			return err
		}
		result, err = listAddresses(ctx, tx, userID)
		return err
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) && !isDomainError(err) {
			r.logger.Error("address repo: mutate", zap.String("user_id", userID), zap.Error(err))
		}
		return nil, err
	}
	r.logger.Debug("address repo: mutated", zap.String("user_id", userID), zap.Int("count", len(result)))
	return result, nil
}

// applyDiff writes deletes first, then clears defaults before setting them so
// the single-default index never sees two defaults at once.
func applyDiff(ctx context.Context, tx pgx.Tx, userID string, current, next []domain.Address) error {
	byID := make(map[string]domain.Address, len(current))
	for _, a := range current {
		byID[a.ID] = a
	}
	keep := make(map[string]bool, len(next))
	var (
		inserts  []domain.Address
		clears   []domain.Address
		defaults []domain.Address
	)
	for _, a := range next {
		if a.ID == "" {
			inserts = append(inserts, a)
			continue
		}
		old, ok := byID[a.ID]
		if !ok {
			return domain.ErrNotFound
		}
		keep[a.ID] = true
		if sameAddress(old, a) {
			continue
		}
		if a.IsDefault {
			defaults = append(defaults, a)
		} else {
			clears = append(clears, a)
		}
	}

	for _, a := range current {
		if keep[a.ID] {
			continue
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_addresses WHERE id = $1 AND user_id = $2`, a.ID, userID); err != nil {
			return fmt.Errorf("delete address: %w", err)
		}
	}
	for _, a := range append(clears, defaults...) {
		const q = `
UPDATE user_addresses
SET name = $3, phone = $4, address_line = $5, city = $6, state = $7, pincode = $8, is_default = $9
WHERE id = $1 AND user_id = $2
`
		if _, err := tx.Exec(ctx, q, a.ID, userID, a.Name, a.Phone, a.AddressLine, a.City, a.State, a.Pincode, a.IsDefault); err != nil {
			return fmt.Errorf("update address: %w", err)
		}
	}
	for _, a := range inserts {
		const q = `
INSERT INTO user_addresses (user_id, name, phone, address_line, city, state, pincode, is_default, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, clock_timestamp())
`
		if _, err := tx.Exec(ctx, q, userID, a.Name, a.Phone, a.AddressLine, a.City, a.State, a.Pincode, a.IsDefault); err != nil {
			return fmt.Errorf("insert address: %w", err)
		}
	}
	return nil
}

func listAddresses(ctx context.Context, q querier, userID string) ([]domain.Address, error) {
	rows, err := q.Query(ctx, `SELECT `+addressColumns+` FROM user_addresses WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	result := []domain.Address{}
	for rows.Next() {
		var a domain.Address
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Phone, &a.AddressLine, &a.City, &a.State, &a.Pincode, &a.IsDefault, &a.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func sameAddress(a, b domain.Address) bool {
	return a.Name == b.Name &&
		a.Phone == b.Phone &&
		a.AddressLine == b.AddressLine &&
		a.City == b.City &&
		a.State == b.State &&
		a.Pincode == b.Pincode &&
		a.IsDefault == b.IsDefault
}

func cloneAddresses(in []domain.Address) []domain.Address {
	out := make([]domain.Address, len(in))
	copy(out, in)
	return out
}

func isDomainError(err error) bool {
	var ve *domain.ValidationError
	return errors.As(err, &ve)
}
