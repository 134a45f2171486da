package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bakery-storefront/internal/domain"
	tokenrepo "bakery-storefront/internal/repository/token"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the authenticated facts carried by an access token.
type Claims struct {
	UserID    string
	Role      string
	JTI       string
	ExpiresAt time.Time
}

// IsAdmin reports whether the token was issued to an admin.
func (c Claims) IsAdmin() bool {
	return c.Role == domain.RoleAdmin
}

type jwtClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type tokenManager struct {
	revoked tokenrepo.Repository
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
}

func newTokenManager(revoked tokenrepo.Repository, secret []byte, ttl time.Duration) *tokenManager {
	return &tokenManager{revoked: revoked, secret: secret, ttl: ttl, now: time.Now}
}

func (m *tokenManager) Issue(userID, role string) (string, time.Time, error) {
	now := m.now()
	expires := now.Add(m.ttl)
	claims := jwtClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

func (m *tokenManager) Validate(ctx context.Context, raw string) (Claims, error) {
	var parsed jwtClaims
	_, err := jwt.ParseWithClaims(raw, &parsed, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Claims{}, domain.ErrAuthInvalid
	}
	if parsed.Subject == "" || parsed.ID == "" {
		return Claims{}, domain.ErrAuthInvalid
	}
	if m.revoked != nil {
		revoked, err := m.revoked.IsRevoked(ctx, parsed.ID)
		if err != nil {
			return Claims{}, err
		}
		if revoked {
			return Claims{}, domain.ErrAuthInvalid
		}
	}
	return Claims{
		UserID:    parsed.Subject,
		Role:      parsed.Role,
		JTI:       parsed.ID,
		ExpiresAt: parsed.ExpiresAt.Time,
	}, nil
}

func (m *tokenManager) Revoke(ctx context.Context, c Claims) error {
	if m.revoked == nil {
		return errors.New("token revocation unavailable")
	}
	return m.revoked.Revoke(ctx, tokenrepo.Revoked{JTI: c.JTI, UserID: c.UserID, ExpiresAt: c.ExpiresAt})
}
