package order

import (
	"context"
	"errors"

	"bakery-storefront/internal/domain"
)

var (
	// ErrOrderNumberTaken is returned when the generated order number collides.
	ErrOrderNumberTaken = errors.New("order number already used")
	// ErrDuplicateSubmission is returned when another order already holds the idempotency key.
	ErrDuplicateSubmission = errors.New("idempotency key already used")
)

// StatusCheck validates a transition from the locked current status.
type StatusCheck func(current domain.OrderStatus) error

type Repository interface {
	// Create inserts the order with its items, decrements stock, updates the
	// owner's stats and appends an order.created event in one transaction.
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	FindByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter domain.OrderFilter, sort domain.OrderSort, page domain.Page) ([]domain.Order, int, error)
	// UpdateStatus locks the order, runs check and writes the new status.
	// Notes are replaced only when notes is non-nil.
	UpdateStatus(ctx context.Context, id string, next domain.OrderStatus, notes *string, check StatusCheck) (*domain.Order, error)
	Delete(ctx context.Context, id string) error
	Summary(ctx context.Context) (domain.OrderSummary, error)
}
