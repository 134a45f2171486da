package address

import (
	"context"
	"strings"

	"bakery-storefront/internal/domain"
	"bakery-storefront/internal/logging"
	addressrepo "bakery-storefront/internal/repository/address"
	"bakery-storefront/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager maintains a user's address book. Every mutation returns the full
// updated list and leaves exactly one default when any address exists.
type Manager struct {
	repo   addressrepo.Repository
	logger *zap.Logger
}

// Fields are the user-supplied parts of an address.
type Fields struct {
	Name        string `json:"name" validate:"required"`
	Phone       string `json:"phone" validate:"required"`
	AddressLine string `json:"addressLine" validate:"required"`
	City        string `json:"city" validate:"required"`
	State       string `json:"state" validate:"required"`
	Pincode     string `json:"pincode" validate:"required"`
	IsDefault   bool   `json:"isDefault"`
}

// Patch updates only the non-nil fields.
type Patch struct {
	Name        *string `json:"name"`
	Phone       *string `json:"phone"`
	AddressLine *string `json:"addressLine"`
	City        *string `json:"city"`
	State       *string `json:"state"`
	Pincode     *string `json:"pincode"`
	IsDefault   *bool   `json:"isDefault"`
}

func New(repo addressrepo.Repository, logger *zap.Logger) *Manager {
	return &Manager{repo: repo, logger: logging.OrNop(logger)}
}

func (m *Manager) List(ctx context.Context, userID string) ([]domain.Address, error) {
	if userID == "" {
		return nil, domain.ErrAuthRequired
	}
	return m.repo.List(ctx, userID)
}

// Add appends a new address. The first address is always the default.
func (m *Manager) Add(ctx context.Context, userID string, in Fields) ([]domain.Address, error) {
	if userID == "" {
		return nil, domain.ErrAuthRequired
	}
	in = in.trimmed()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	list, err := m.repo.Mutate(ctx, userID, func(current []domain.Address) ([]domain.Address, error) {
		addr := domain.Address{
			UserID:      userID,
			Name:        in.Name,
			Phone:       in.Phone,
			AddressLine: in.AddressLine,
			City:        in.City,
			State:       in.State,
			Pincode:     in.Pincode,
			IsDefault:   in.IsDefault || len(current) == 0,
		}
		if addr.IsDefault {
			clearDefaults(current)
		}
		return normalize(append(current, addr)), nil
	})
	if err != nil {
		return nil, err
	}
	m.logger.Info("address: added", zap.String("user_id", userID), zap.Int("count", len(list)))
	return list, nil
}

func (m *Manager) Update(ctx context.Context, userID, id string, patch Patch) ([]domain.Address, error) {
	if userID == "" {
		return nil, domain.ErrAuthRequired
	}
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	return m.repo.Mutate(ctx, userID, func(current []domain.Address) ([]domain.Address, error) {
		i := indexOf(current, id)
		if i < 0 {
			return nil, domain.ErrNotFound
		}
		updated := patch.apply(current[i])
		if err := validation.Struct(fieldsOf(updated)); err != nil {
			return nil, err
		}
		if updated.IsDefault && !current[i].IsDefault {
			clearDefaults(current)
		}
		current[i] = updated
		return normalize(current), nil
	})
}

// Remove deletes the address; when it was the default another one is promoted.
func (m *Manager) Remove(ctx context.Context, userID, id string) ([]domain.Address, error) {
	if userID == "" {
		return nil, domain.ErrAuthRequired
	}
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	return m.repo.Mutate(ctx, userID, func(current []domain.Address) ([]domain.Address, error) {
		i := indexOf(current, id)
		if i < 0 {
			return nil, domain.ErrNotFound
		}
		return normalize(append(current[:i], current[i+1:]...)), nil
	})
}

func (m *Manager) SetDefault(ctx context.Context, userID, id string) ([]domain.Address, error) {
	if userID == "" {
		return nil, domain.ErrAuthRequired
	}
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	return m.repo.Mutate(ctx, userID, func(current []domain.Address) ([]domain.Address, error) {
		i := indexOf(current, id)
		if i < 0 {
			return nil, domain.ErrNotFound
		}
		clearDefaults(current)
		current[i].IsDefault = true
		return current, nil
	})
}

// Resolve returns the address to ship to: id when given, else the default.
// A nil result means nothing is selected.
func (m *Manager) Resolve(ctx context.Context, userID, id string) (*domain.Address, error) {
	list, err := m.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if id == "" {
		if def, ok := domain.DefaultAddress(list); ok {
			return &def, nil
		}
		return nil, nil
	}
	if i := indexOf(list, id); i >= 0 {
		return &list[i], nil
	}
	return nil, domain.ErrNotFound
}

// normalize promotes the first address when none is default and keeps only
// the first default when several are flagged.
func normalize(list []domain.Address) []domain.Address {
	seen := false
	for i := range list {
		if list[i].IsDefault {
			if seen {
				list[i].IsDefault = false
			}
			seen = true
		}
	}
	if !seen && len(list) > 0 {
		list[0].IsDefault = true
	}
	return list
}

func clearDefaults(list []domain.Address) {
	for i := range list {
		list[i].IsDefault = false
	}
}

func indexOf(list []domain.Address, id string) int {
	for i, a := range list {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (f Fields) trimmed() Fields {
	f.Name = strings.TrimSpace(f.Name)
	f.Phone = strings.TrimSpace(f.Phone)
	f.AddressLine = strings.TrimSpace(f.AddressLine)
	f.City = strings.TrimSpace(f.City)
	f.State = strings.TrimSpace(f.State)
	f.Pincode = strings.TrimSpace(f.Pincode)
	return f
}

func fieldsOf(a domain.Address) Fields {
	return Fields{
		Name:        a.Name,
		Phone:       a.Phone,
		AddressLine: a.AddressLine,
		City:        a.City,
		State:       a.State,
		Pincode:     a.Pincode,
		IsDefault:   a.IsDefault,
	}
}

func (p Patch) apply(a domain.Address) domain.Address {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&a.Name, p.Name)
	set(&a.Phone, p.Phone)
	set(&a.AddressLine, p.AddressLine)
	set(&a.City, p.City)
	set(&a.State, p.State)
	set(&a.Pincode, p.Pincode)
	if p.IsDefault != nil {
		a.IsDefault = *p.IsDefault
	}
	return a
}
