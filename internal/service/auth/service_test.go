package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"bakery-storefront/internal/domain"
	tokenrepo "bakery-storefront/internal/repository/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryUsers is a lightweight in-memory user repository for tests.
type memoryUsers struct {
	byEmail map[string]domain.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byEmail: map[string]domain.User{}}
}

func (r *memoryUsers) Create(_ context.Context, u domain.User) (*domain.User, error) {
	key := strings.ToLower(u.Email)
	if _, exists := r.byEmail[key]; exists {
		return nil, domain.ErrAlreadyExists
	}
	u.ID = "user-" + key
	r.byEmail[key] = u
	return &u, nil
}

func (r *memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r *memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			clone := u
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

type memoryRevoked struct {
	jtis map[string]tokenrepo.Revoked
}

func (r *memoryRevoked) Revoke(_ context.Context, t tokenrepo.Revoked) error {
	r.jtis[t.JTI] = t
	return nil
}

func (r *memoryRevoked) IsRevoked(_ context.Context, jti string) (bool, error) {
	_, ok := r.jtis[jti]
	return ok, nil
}

func (r *memoryRevoked) PurgeExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func newService() *Service {
	return New(newMemoryUsers(), &memoryRevoked{jtis: map[string]tokenrepo.Revoked{}}, "test-secret", time.Hour, nil)
}

func register() RegisterInput {
	return RegisterInput{Name: "Asha", Email: "Asha@Example.com", Password: "bread1234"}
}

func TestRegisterLoginAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	session, err := svc.Register(ctx, register())
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", session.User.Email)
	assert.Equal(t, domain.RoleCustomer, session.User.Role)
	assert.NotEqual(t, "bread1234", session.User.PasswordHash)

	login, err := svc.Login(ctx, "asha@example.com", "bread1234")
	require.NoError(t, err)

	claims, err := svc.Authenticate(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)
	assert.False(t, claims.IsAdmin())

	me, err := svc.Me(ctx, claims.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", me.Name)
}

func TestRegister_Validation(t *testing.T) {
	svc := newService()

	_, err := svc.Register(context.Background(), RegisterInput{Email: "bad", Password: "short"})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.ElementsMatch(t, []string{"name", "email", "password"}, ve.Fields())

	in := register()
	in.Password = "onlyletters"
	_, err = svc.Register(context.Background(), in)
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"password"}, ve.Fields())
}

func TestRegister_Duplicate(t *testing.T) {
	svc := newService()
	_, err := svc.Register(context.Background(), register())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), register())
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := newService()
	_, err := svc.Register(context.Background(), register())
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "asha@example.com", "wrong-pass1")
	assert.ErrorIs(t, err, domain.ErrAuthInvalid)
	_, err = svc.Login(context.Background(), "nobody@example.com", "bread1234")
	assert.ErrorIs(t, err, domain.ErrAuthInvalid)
}

func TestLogoutRevokesToken(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	session, err := svc.Register(ctx, register())
	require.NoError(t, err)

	claims, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, claims))

	_, err = svc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, domain.ErrAuthInvalid)
}

func TestAuthenticate_RejectsTamperedAndExpired(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	session, err := svc.Register(ctx, register())
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, session.Token+"x")
	assert.ErrorIs(t, err, domain.ErrAuthInvalid)

	other := New(newMemoryUsers(), nil, "another-secret", time.Hour, nil)
	_, err = other.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, domain.ErrAuthInvalid)

	svc.tokens.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, domain.ErrAuthInvalid)
}

func TestCreateAdmin(t *testing.T) {
	svc := newService()
	u, err := svc.CreateAdmin(context.Background(), register())
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
}
