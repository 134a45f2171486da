package token

import (
	"context"
	"testing"
	"time"

	"bakery-storefront/internal/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgres_RevokeAndPurge(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	userID := dbtest.InsertUser(ctx, t, pool, "logout@example.com")
	repo := NewPostgres(pool, nil)

	now := time.Now()
	require.NoError(t, repo.Revoke(ctx, Revoked{JTI: "live", UserID: userID, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, repo.Revoke(ctx, Revoked{JTI: "live", UserID: userID, ExpiresAt: now.Add(time.Hour)}), "revoking twice")
	require.NoError(t, repo.Revoke(ctx, Revoked{JTI: "stale", UserID: userID, ExpiresAt: now.Add(-time.Hour)}))

	revoked, err := repo.IsRevoked(ctx, "live")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = repo.IsRevoked(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, revoked)

	n, err := repo.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
