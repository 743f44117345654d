package store

import (
	"context"
	"iter"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/example/catalog-sync/internal/catalog"
)

// MemoryStore is an in-memory ProjectionStore. The mutex serializes writes,
// which trivially satisfies the per-id write ordering requirement.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[catalog.ProjectionID]catalog.Projection
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[catalog.ProjectionID]catalog.Projection)}
}

func (s *MemoryStore) Get(_ context.Context, id catalog.ProjectionID) (catalog.Projection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.data[id]
	if !ok {
		return catalog.Projection{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) GetByCode(_ context.Context, t catalog.Type, code string) ([]catalog.Projection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []catalog.Projection
	for id, p := range s.data {
		if id.Type == t && id.Code == code {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Store < out[j].ID.Store })
	return out, nil
}

func (s *MemoryStore) Upsert(_ context.Context, p catalog.Projection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.data[p.ID]; ok && existing.ModifiedAt.After(p.ModifiedAt) {
		log.WithFields(log.Fields{
			"projection": p.ID.String(),
			"stored":     existing.ModifiedAt,
			"incoming":   p.ModifiedAt,
		}).Warn("skipping stale projection write")
		return nil
	}
	s.data[p.ID] = p
	return nil
}

func (s *MemoryStore) Tombstone(_ context.Context, id catalog.ProjectionID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.data[id]
	if !ok {
		return false, ErrNotFound
	}
	if p.Deleted {
		return false, nil
	}
	p.Deleted = true
	p.ModifiedAt = at
	s.data[id] = p
	return true, nil
}

func (s *MemoryStore) FindAll(_ context.Context, f Filter) iter.Seq2[catalog.Projection, error] {
	return func(yield func(catalog.Projection, error) bool) {
		s.mu.RLock()
		snapshot := make([]catalog.Projection, 0, len(s.data))
		for _, p := range s.data {
			if f.matches(p) {
				snapshot = append(snapshot, p)
			}
		}
		s.mu.RUnlock()

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
