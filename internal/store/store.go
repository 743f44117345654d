package store

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/example/catalog-sync/internal/catalog"
)

// ErrNotFound is returned by Get and Tombstone for unknown projection ids.
var ErrNotFound = errors.New("projection not found")

// Filter narrows FindAll. Zero-value fields match everything.
type Filter struct {
	Type  catalog.Type
	Store string
}

func (f Filter) matches(p catalog.Projection) bool {
	if f.Type != "" && p.ID.Type != f.Type {
		return false
	}
	if f.Store != "" && p.ID.Store != f.Store {
		return false
	}
	return true
}

// ProjectionStore is keyed storage for projection documents.
//
// Upsert is idempotent and last-write-wins on ModifiedAt: a write older than
// the stored row is skipped with a warning, never an error, so redelivered
// events stay no-ops. Writes to a single id are serialized; different ids
// may be written in parallel.
type ProjectionStore interface {
	// Get returns the projection for id, tombstoned or not.
	Get(ctx context.Context, id catalog.ProjectionID) (catalog.Projection, error)

	// GetByCode returns every store-scoped projection of the given type and
	// code, across all stores.
	GetByCode(ctx context.Context, t catalog.Type, code string) ([]catalog.Projection, error)

	// Upsert creates or replaces the projection, subject to the ModifiedAt
	// guard above.
	Upsert(ctx context.Context, p catalog.Projection) error

	// Tombstone marks the projection deleted, keeping identity and payload.
	// It reports whether a transition happened; tombstoning an
	// already-tombstoned record is a no-op returning false.
	Tombstone(ctx context.Context, id catalog.ProjectionID, at time.Time) (bool, error)

	// FindAll lazily yields projections matching the filter. The sequence is
	// finite and restartable; it is meant for diagnostics, not hot paths.
	FindAll(ctx context.Context, f Filter) iter.Seq2[catalog.Projection, error]
}
