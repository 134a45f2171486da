package cart

import (
	"context"
	"fmt"
	"sync"

	"bakery-storefront/internal/domain"
	cartrepo "bakery-storefront/internal/repository/cart"
	"github.com/shopspring/decimal"
)

// Store is one owner's cart. Every mutation saves the full snapshot, and an
// empty cart removes it.
type Store struct {
	mu      sync.Mutex
	storage cartrepo.Repository
	owner   string
	items   []domain.CartItem
}

// Open loads the owner's snapshot. An empty owner yields a detached store
// that rejects Add.
func Open(ctx context.Context, storage cartrepo.Repository, owner string) (*Store, error) {
	s := &Store{storage: storage, owner: owner}
	if owner == "" {
		return s, nil
	}
	items, err := storage.Load(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	s.items = items
	return s, nil
}

// Add merges qty into the line for product, creating it if needed. qty < 1 counts as 1.
func (s *Store) Add(ctx context.Context, product domain.CartItem, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.owner == "" {
		return domain.ErrAuthRequired
	}
	if qty < 1 {
		qty = 1
	}
	for i := range s.items {
		if s.items[i].ProductID == product.ProductID {
			s.items[i].Quantity += qty
			return s.persist(ctx)
		}
	}
	product.Quantity = qty
	s.items = append(s.items, product)
	return s.persist(ctx)
}

// Remove drops the line for productID; absent lines are ignored.
func (s *Store) Remove(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return s.persist(ctx)
		}
	}
	return nil
}

// SetQuantity overwrites a line's quantity; qty <= 0 removes it.
func (s *Store) SetQuantity(ctx context.Context, productID string, qty int) error {
	if qty <= 0 {
		return s.Remove(ctx, productID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items[i].Quantity = qty
			return s.persist(ctx)
		}
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	return s.persist(ctx)
}

// EndSession clears the cart and detaches the owner.
func (s *Store) EndSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	err := s.persist(ctx)
	s.owner = ""
	return err
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}

func (s *Store) Owner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner
}

func (s *Store) persist(ctx context.Context) error {
	if s.owner == "" {
		return nil
	}
	if len(s.items) == 0 {
		return s.storage.Remove(ctx, s.owner)
	}
	return s.storage.Save(ctx, s.owner, s.items)
}
