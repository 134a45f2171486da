package user

import (
	"context"

	"bakery-storefront/internal/domain"
)

// Repository persists and fetches users. Stats are read-only here; only the
// order repository mutates them.
type Repository interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}
