package token

import (
	"context"
	"time"
)

// Revoked identifies an access token invalidated before its expiry.
type Revoked struct {
	JTI       string
	UserID    string
	ExpiresAt time.Time
}

// Repository is the access-token denylist consulted on every request.
type Repository interface {
	Revoke(ctx context.Context, t Revoked) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// PurgeExpired drops entries whose token would have expired anyway.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
