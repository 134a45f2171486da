// Package dbtest provides Postgres fixtures for integration tests.
package dbtest

import (
	"context"
	"os"
	"testing"

	"bakery-storefront/internal/migrate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// Pool connects to TEST_DB_DSN, applies migrations and truncates every table.
// The test is skipped when TEST_DB_DSN is unset or unreachable.
func Pool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Skipf("connect db: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("ping db: %v", err)
	}
	t.Cleanup(pool.Close)

	require.NoError(t, migrate.Apply(ctx, pool), "apply migrations")
	_, err = pool.Exec(ctx, `TRUNCATE revoked_tokens, order_events, order_items, orders, cart_snapshots, user_addresses, products, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err, "truncate tables")
	return pool
}

// InsertUser creates a customer row and returns its id.
func InsertUser(ctx context.Context, t *testing.T, pool *pgxpool.Pool, email string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(ctx, `INSERT INTO users (name, email, password_hash) VALUES ('Test User', $1, 'x') RETURNING id::text`, email).Scan(&id)
	require.NoError(t, err, "insert user")
	return id
}

// InsertProduct creates a product row and returns its id.
func InsertProduct(ctx context.Context, t *testing.T, pool *pgxpool.Pool, key string, price string, stock int) string {
	t.Helper()
	var id string
	err := pool.QueryRow(ctx, `INSERT INTO products (key, name, price, stock) VALUES ($1, $1, $2::numeric, $3) RETURNING id::text`, key, price, stock).Scan(&id)
	require.NoError(t, err, "insert product")
	return id
}
