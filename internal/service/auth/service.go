package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bakery-storefront/internal/domain"
	"bakery-storefront/internal/logging"
	tokenrepo "bakery-storefront/internal/repository/token"
	userrepo "bakery-storefront/internal/repository/user"
	"bakery-storefront/internal/validation"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Service handles registration, login and logout.
type Service struct {
	users  userrepo.Repository
	tokens *tokenManager
	logger *zap.Logger
}

func New(users userrepo.Repository, revoked tokenrepo.Repository, secret string, ttl time.Duration, logger *zap.Logger) *Service {
	return &Service{
		users:  users,
		tokens: newTokenManager(revoked, []byte(secret), ttl),
		logger: logging.OrNop(logger),
	}
}

// RegisterInput captures fields expected by the register endpoint.
type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" validate:"required,min=8"`
}

// Session is a signed access token plus the user it was issued to.
type Session struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// Register creates a customer account and signs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	u, err := s.create(ctx, in, domain.RoleCustomer)
	if err != nil {
		return nil, err
	}
	return s.issue(u)
}

// CreateAdmin creates a back-office account. Used by the admin CLI.
func (s *Service) CreateAdmin(ctx context.Context, in RegisterInput) (*domain.User, error) {
	return s.create(ctx, in, domain.RoleAdmin)
}

func (s *Service) create(ctx context.Context, in RegisterInput, role string) (*domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u, err := s.users.Create(ctx, domain.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: string(hashed),
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, fmt.Errorf("email %s: %w", in.Email, domain.ErrAlreadyExists)
		}
		return nil, err
	}
	s.logger.Info("auth: user created", zap.String("user_id", u.ID), zap.String("role", role))
	return u, nil
}

// Login validates credentials and returns a fresh session.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrAuthInvalid
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrAuthInvalid
	}
	return s.issue(u)
}

// Authenticate resolves a bearer token to its claims.
func (s *Service) Authenticate(ctx context.Context, raw string) (Claims, error) {
	return s.tokens.Validate(ctx, raw)
}

// Logout revokes the token the claims were read from.
func (s *Service) Logout(ctx context.Context, c Claims) error {
	if err := s.tokens.Revoke(ctx, c); err != nil {
		return err
	}
	s.logger.Info("auth: logout", zap.String("user_id", c.UserID))
	return nil
}

func (s *Service) Me(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrAuthInvalid
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) issue(u *domain.User) (*Session, error) {
	token, expires, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token, ExpiresAt: expires}, nil
}

func validatePassword(p string) error {
	hasLetter, hasDigit := false, false
	for _, r := range p {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			hasLetter = true
		}
	}
	if !hasLetter || !hasDigit {
		return domain.NewValidationError("password", "must contain a letter and a number")
	}
	return nil
}
