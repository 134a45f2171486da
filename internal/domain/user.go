package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// UserStats are denormalized order aggregates kept in sync by the order repository.
type UserStats struct {
	TotalOrders int             `json:"totalOrders"`
	TotalSpent  decimal.Decimal `json:"totalSpent"`
	OrderIDs    []string        `json:"orderIds"`
}

// User represents a registered storefront account.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Stats        UserStats `json:"stats"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsAdmin reports whether the user may use the back-office endpoints.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
