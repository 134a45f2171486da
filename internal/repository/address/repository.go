package address

import (
	"context"

	"bakery-storefront/internal/domain"
)

// MutateFunc receives the user's current addresses in display order and
// returns the desired list. Entries without an ID are inserted.
type MutateFunc func(current []domain.Address) ([]domain.Address, error)

type Repository interface {
	List(ctx context.Context, userID string) ([]domain.Address, error)
	// Mutate runs fn while holding a lock on the owning user and persists the
	// difference between the current and returned lists in one transaction.
	Mutate(ctx context.Context, userID string, fn MutateFunc) ([]domain.Address, error)
}
