// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite and to inject read/insert failures

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu             sync.RWMutex
	menu           []MenuItem
	establishments map[int64]*Establishment
	orders         []*Order
	nextOrderID    int64
	insertCalls    int

	// MenuErr, EstablishmentErr, InsertErr and PingErr, when set, are returned by the
	// corresponding operations.
	MenuErr          error
	EstablishmentErr error
	InsertErr        error
	PingErr          error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		establishments: make(map[int64]*Establishment),
		nextOrderID:    1,
	}
}

// SetMenu replaces the menu contents.
func (m *MockStore) SetMenu(items ...MenuItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.menu = append([]MenuItem(nil), items...)
}

// AddEstablishment stores an establishment.
func (m *MockStore) AddEstablishment(e Establishment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.establishments[e.ID] = &e
}

// ListMenuItems returns a copy of the menu.
func (m *MockStore) ListMenuItems(ctx context.Context) ([]MenuItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.MenuErr != nil {
		return nil, m.MenuErr
	}
	return append([]MenuItem(nil), m.menu...), nil
}

// GetEstablishment retrieves an establishment by ID.
func (m *MockStore) GetEstablishment(ctx context.Context, id int64) (*Establishment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.EstablishmentErr != nil {
		return nil, m.EstablishmentErr
	}
	e, ok := m.establishments[id]
	if !ok {
		return nil, ErrNotFound
	}
	result := *e
	return &result, nil
}

// GetEstablishmentByPhone retrieves the lowest-id establishment with the given phone.
func (m *MockStore) GetEstablishmentByPhone(ctx context.Context, phone string) (*Establishment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.EstablishmentErr != nil {
		return nil, m.EstablishmentErr
	}

	ids := make([]int64, 0, len(m.establishments))
	for id := range m.establishments {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if e := m.establishments[id]; e.Phone == phone {
			result := *e
			return &result, nil
		}
	}
	return nil, ErrNotFound
}

// InsertOrder records a copy of the order.
func (m *MockStore) InsertOrder(ctx context.Context, order *Order) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.insertCalls++
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("inserting order: %w", err)
	}
	if m.InsertErr != nil {
		return 0, fmt.Errorf("inserting order: %w", m.InsertErr)
	}

	o := *order
	o.ID = m.nextOrderID
	m.nextOrderID++
	m.orders = append(m.orders, &o)
	order.ID = o.ID
	return o.ID, nil
}

// GetOrder retrieves an order by ID.
func (m *MockStore) GetOrder(ctx context.Context, id int64) (*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, o := range m.orders {
		if o.ID == id {
			result := *o
			return &result, nil
		}
	}
	return nil, ErrNotFound
}

// ListOrders returns the most recent orders, newest first.
func (m *MockStore) ListOrders(ctx context.Context, limit int) ([]*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	result := make([]*Order, 0, len(m.orders))
	for i := len(m.orders) - 1; i >= 0 && len(result) < limit; i-- {
		o := *m.orders[i]
		result = append(result, &o)
	}
	return result, nil
}

// Orders returns copies of every stored order in insertion order.
func (m *MockStore) Orders() []Order {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Order, len(m.orders))
	for i, o := range m.orders {
		result[i] = *o
	}
	return result
}

// InsertCalls reports how many times InsertOrder was called, including failures.
func (m *MockStore) InsertCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.insertCalls
}

// Ping returns PingErr.
func (m *MockStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PingErr
}

// Close is a no-op.
func (m *MockStore) Close() error {
	return nil
}
