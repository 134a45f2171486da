package cart

import (
	"context"
	"testing"

	"bakery-storefront/internal/db/dbtest"
	"bakery-storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgres_SnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	userID := dbtest.InsertUser(ctx, t, pool, "cart@example.com")
	repo := NewPostgres(pool, nil)

	items, err := repo.Load(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, items)

	want := []domain.CartItem{
		{ProductID: "p1", Name: "Rye", UnitPrice: decimal.RequireFromString("120.50"), Quantity: 2},
		{ProductID: "p2", Name: "Bun", UnitPrice: decimal.NewFromInt(30), Quantity: 1},
	}
	require.NoError(t, repo.Save(ctx, userID, want))
	require.NoError(t, repo.Save(ctx, userID, want[:1]))

	items, err = repo.Load(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.True(t, items[0].UnitPrice.Equal(decimal.RequireFromString("120.5")))

	require.NoError(t, repo.Remove(ctx, userID))
	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM cart_snapshots`).Scan(&count))
	assert.Zero(t, count)
}
