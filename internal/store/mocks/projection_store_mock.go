package mocks

import (
	"context"
	"iter"
	"sort"
	"sync"
	"time"

	"github.com/example/catalog-sync/internal/catalog"
	"github.com/example/catalog-sync/internal/store"
)

// MockProjectionStore is a recording implementation of ProjectionStore for
// testing. Error fields, when set, are returned by the matching method.
type MockProjectionStore struct {
	mu   sync.RWMutex
	data map[catalog.ProjectionID]catalog.Projection

	GetErr       error
	UpsertErr    error
	TombstoneErr error

	UpsertCalls    []catalog.Projection
	TombstoneCalls []catalog.ProjectionID
}

func NewMockProjectionStore() *MockProjectionStore {
	return &MockProjectionStore{data: make(map[catalog.ProjectionID]catalog.Projection)}
}

func (m *MockProjectionStore) Get(_ context.Context, id catalog.ProjectionID) (catalog.Projection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.GetErr != nil {
		return catalog.Projection{}, m.GetErr
	}
	p, ok := m.data[id]
	if !ok {
		return catalog.Projection{}, store.ErrNotFound
	}
	return p, nil
}

func (m *MockProjectionStore) GetByCode(_ context.Context, t catalog.Type, code string) ([]catalog.Projection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.GetErr != nil {
		return nil, m.GetErr
	}
	var out []catalog.Projection
	for id, p := range m.data {
		if id.Type == t && id.Code == code {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Store < out[j].ID.Store })
	return out, nil
}

func (m *MockProjectionStore) Upsert(_ context.Context, p catalog.Projection) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpsertCalls = append(m.UpsertCalls, p)
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	if existing, ok := m.data[p.ID]; ok && existing.ModifiedAt.After(p.ModifiedAt) {
		return nil
	}
	m.data[p.ID] = p
	return nil
}

func (m *MockProjectionStore) Tombstone(_ context.Context, id catalog.ProjectionID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TombstoneCalls = append(m.TombstoneCalls, id)
	if m.TombstoneErr != nil {
		return false, m.TombstoneErr
	}
	p, ok := m.data[id]
	if !ok {
		return false, store.ErrNotFound
	}
	if p.Deleted {
		return false, nil
	}
	p.Deleted = true
	p.ModifiedAt = at
	m.data[id] = p
	return true, nil
}

func (m *MockProjectionStore) FindAll(_ context.Context, f store.Filter) iter.Seq2[catalog.Projection, error] {
	return func(yield func(catalog.Projection, error) bool) {
		m.mu.RLock()
		var snapshot []catalog.Projection
		for _, p := range m.data {
			if (f.Type == "" || p.ID.Type == f.Type) && (f.Store == "" || p.ID.Store == f.Store) {
				snapshot = append(snapshot, p)
			}
		}
		m.mu.RUnlock()

		sort.Slice(snapshot, func(i, j int) bool {
			return snapshot[i].ID.String() < snapshot[j].ID.String()
		})
		for _, p := range snapshot {
			if !yield(p, nil) {
				return
			}
		}
	}
}

// SetData seeds a projection directly, bypassing the upsert guard.
func (m *MockProjectionStore) SetData(p catalog.Projection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[p.ID] = p
}

// GetData reads a projection directly without recording the call.
func (m *MockProjectionStore) GetData(id catalog.ProjectionID) (catalog.Projection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.data[id]
	return p, ok
}
