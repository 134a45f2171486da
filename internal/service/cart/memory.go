package cart

import (
	"context"
	"sync"

	"bakery-storefront/internal/domain"
)

// MemoryStorage keeps snapshots in process. It satisfies the cart repository
// contract and backs tests and single-node development runs.
type MemoryStorage struct {
	mu        sync.Mutex
	snapshots map[string][]domain.CartItem
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{snapshots: make(map[string][]domain.CartItem)}
}

func (m *MemoryStorage) Load(_ context.Context, userID string) ([]domain.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CartItem{}, m.snapshots[userID]...), nil
}

func (m *MemoryStorage) Save(_ context.Context, userID string, items []domain.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[userID] = append([]domain.CartItem(nil), items...)
	return nil
}

func (m *MemoryStorage) Remove(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, userID)
	return nil
}

// Has reports whether a snapshot exists for userID.
func (m *MemoryStorage) Has(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.snapshots[userID]
	return ok
}
