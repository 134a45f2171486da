package address

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"bakery-storefront/internal/db/dbtest"
	"bakery-storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func home(isDefault bool) domain.Address {
	return domain.Address{Name: "Asha", Phone: "9876543210", AddressLine: "12 Baker St", City: "Pune", State: "MH", Pincode: "411001", IsDefault: isDefault}
}

func TestPostgres_MutateInsertUpdateDelete(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	userID := dbtest.InsertUser(ctx, t, pool, "asha@example.com")
	repo := NewPostgres(pool, nil)

	list, err := repo.Mutate(ctx, userID, func(cur []domain.Address) ([]domain.Address, error) {
		return append(cur, home(true)), nil
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsDefault)
	firstID := list[0].ID

	// Move the default to a new address in the same mutation.
	list, err = repo.Mutate(ctx, userID, func(cur []domain.Address) ([]domain.Address, error) {
		cur[0].IsDefault = false
		office := home(true)
		office.AddressLine = "7 Mill Rd"
		return append(cur, office), nil
	})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.False(t, list[0].IsDefault)
	assert.True(t, list[1].IsDefault)

	list, err = repo.Mutate(ctx, userID, func(cur []domain.Address) ([]domain.Address, error) {
		cur[0].IsDefault = true
		return cur[:1], nil
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, firstID, list[0].ID)
	assert.True(t, list[0].IsDefault)
}

func TestPostgres_SecondDefaultRejectedByIndex(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	userID := dbtest.InsertUser(ctx, t, pool, "two@example.com")
	repo := NewPostgres(pool, nil)

	_, err := repo.Mutate(ctx, userID, func(cur []domain.Address) ([]domain.Address, error) {
		return append(cur, home(true), home(true)), nil
	})
	require.Error(t, err)

	list, err := repo.List(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPostgres_ConcurrentDefaultAddsKeepOneDefault(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	userID := dbtest.InsertUser(ctx, t, pool, "busy@example.com")
	repo := NewPostgres(pool, nil)

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Mutate(ctx, userID, func(cur []domain.Address) ([]domain.Address, error) {
				for j := range cur {
					cur[j].IsDefault = false
				}
				addr := home(true)
				addr.AddressLine = fmt.Sprintf("%d Baker St", i+1)
				return append(cur, addr), nil
			})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	list, err := repo.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, writers)
	defaults := 0
	for _, a := range list {
		if a.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestPostgres_MutateUnknownUser(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)

	_, err := NewPostgres(pool, nil).Mutate(ctx, "00000000-0000-0000-0000-000000000000", func(cur []domain.Address) ([]domain.Address, error) {
		return cur, nil
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
