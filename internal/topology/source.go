package topology

import (
	"context"

	"github.com/example/catalog-sync/internal/catalog"
	"github.com/example/catalog-sync/internal/store"
)

// ProjectionSource rebuilds activation payloads by copying the master
// store's projection for the same code. Store-specific pricing and
// availability converge on the next regular sync; activation only needs a
// current, complete payload.
type ProjectionSource struct {
	projections store.ProjectionStore
	masterStore string
}

func NewProjectionSource(projections store.ProjectionStore, masterStore string) *ProjectionSource {
	return &ProjectionSource{projections: projections, masterStore: masterStore}
}

func (s *ProjectionSource) OfferProjection(ctx context.Context, code, storeCode string) (catalog.Projection, error) {
	return s.copyFromMaster(ctx, catalog.TypeOffer, code, storeCode)
}

func (s *ProjectionSource) CategoryProjection(ctx context.Context, code, storeCode string) (catalog.Projection, error) {
	return s.copyFromMaster(ctx, catalog.TypeCategory, code, storeCode)
}

func (s *ProjectionSource) copyFromMaster(ctx context.Context, t catalog.Type, code, storeCode string) (catalog.Projection, error) {
	master, err := s.projections.Get(ctx, catalog.ProjectionID{Type: t, Code: code, Store: s.masterStore})
	if err != nil {
		return catalog.Projection{}, err
	}
	if master.Deleted {
		return catalog.Projection{}, store.ErrNotFound
	}
	master.ID.Store = storeCode
	return master, nil
}
