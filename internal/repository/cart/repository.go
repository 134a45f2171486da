package cart

import (
	"context"

	"bakery-storefront/internal/domain"
)

// Repository stores one cart snapshot per user.
type Repository interface {
	// Load returns the saved items, or an empty slice when no snapshot exists.
	Load(ctx context.Context, userID string) ([]domain.CartItem, error)
	Save(ctx context.Context, userID string, items []domain.CartItem) error
	Remove(ctx context.Context, userID string) error
}
