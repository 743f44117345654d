package topology

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/example/catalog-sync/internal/catalog"
	"github.com/example/catalog-sync/internal/event"
	"github.com/example/catalog-sync/internal/store"
)

// Graph answers reachability questions about the catalog structure. The
// structure itself is owned by the catalog-authoring side; the coordinator
// only consults it.
type Graph interface {
	// StoresForCatalog lists the store codes a catalog is assigned to.
	StoresForCatalog(ctx context.Context, catalogCode string) ([]string, error)
	// CategoryTree returns the category plus all of its descendants.
	CategoryTree(ctx context.Context, categoryCode string) ([]string, error)
	// OffersInTree lists offers assigned to any of the given categories.
	OffersInTree(ctx context.Context, categoryCodes []string) ([]string, error)
	// IsOfferVisible reports whether the offer is still reachable through
	// some linked category in the store, after the topology change.
	IsOfferVisible(ctx context.Context, offerCode, storeCode string) (bool, error)
}

// CanonicalSource rebuilds projection payloads when a category tree comes
// back into scope.
type CanonicalSource interface {
	OfferProjection(ctx context.Context, code, storeCode string) (catalog.Projection, error)
	CategoryProjection(ctx context.Context, code, storeCode string) (catalog.Projection, error)
}

// Config tunes coordination.
type Config struct {
	// OpTimeout caps each projection-store, source and outbox call.
	OpTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.OpTimeout <= 0 {
		c.OpTimeout = 5 * time.Second
	}
	return c
}

// Coordinator reacts to category link/unlink and include/exclude events by
// tombstoning or reviving the projections the change puts out of or back
// into scope.
//
// Graph and source lookups that concern the whole event fail it so the
// delivery mechanism redelivers. Failures on individual projections are
// logged and skipped; tombstoning and activation are both idempotent, so a
// redelivered event finishes the remainder.
type Coordinator struct {
	projections store.ProjectionStore
	outbox      store.OutboxStore
	graph       Graph
	source      CanonicalSource
	cfg         Config
}

func NewCoordinator(projections store.ProjectionStore, outbox store.OutboxStore, graph Graph, source CanonicalSource, cfg Config) *Coordinator {
	return &Coordinator{
		projections: projections,
		outbox:      outbox,
		graph:       graph,
		source:      source,
		cfg:         cfg.withDefaults(),
	}
}

// Process applies one topology event.
func (c *Coordinator) Process(ctx context.Context, ev event.Topology) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	stores, err := c.graph.StoresForCatalog(ctx, ev.CatalogCode)
	if err != nil {
		return fmt.Errorf("resolving stores for catalog %q: %w", ev.CatalogCode, err)
	}
	if len(stores) == 0 {
		log.WithField("catalog", ev.CatalogCode).Warn("catalog is not assigned to any store")
		return nil
	}

	tree, err := c.graph.CategoryTree(ctx, ev.CategoryCode)
	if err != nil {
		return fmt.Errorf("resolving tree of category %q: %w", ev.CategoryCode, err)
	}
	offers, err := c.graph.OffersInTree(ctx, tree)
	if err != nil {
		return fmt.Errorf("resolving offers under category %q: %w", ev.CategoryCode, err)
	}

	switch ev.Operation {
	case event.OpUnlink, event.OpExclude:
		c.deactivate(ctx, stores, tree, offers)
	case event.OpLink, event.OpInclude:
		c.activate(ctx, stores, tree, offers)
	}
	return nil
}

// deactivate tombstones the category tree in every affected store, plus the
// offers that the change left unreachable. Offers still visible through a
// different linked category keep their projections.
func (c *Coordinator) deactivate(ctx context.Context, stores, tree, offers []string) {
	for _, storeCode := range stores {
		for _, categoryCode := range tree {
			id := catalog.ProjectionID{Type: catalog.TypeCategory, Code: categoryCode, Store: storeCode}
			if err := c.tombstoneOne(ctx, id); err != nil {
				logSkip(err, id)
			}
		}
		for _, offerCode := range offers {
			id := catalog.ProjectionID{Type: catalog.TypeOffer, Code: offerCode, Store: storeCode}
			visible, err := c.graph.IsOfferVisible(ctx, offerCode, storeCode)
			if err != nil {
				logSkip(err, id)
				continue
			}
			if visible {
				continue
			}
			if err := c.tombstoneOne(ctx, id); err != nil {
				logSkip(err, id)
			}
		}
	}
}

// tombstoneOne soft-deletes one projection and emits a change notification
// only when the call actually flipped it. Re-tombstoning is silent, and a
// projection that never existed is nothing to announce.
func (c *Coordinator) tombstoneOne(ctx context.Context, id catalog.ProjectionID) error {
	at := time.Now()
	opCtx, cancel := context.WithTimeout(ctx, c.cfg.OpTimeout)
	transitioned, err := c.projections.Tombstone(opCtx, id, at)
	cancel()
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !transitioned {
		return nil
	}
	return c.appendCatalogChanged(ctx, catalog.Projection{
		ID:         id,
		ModifiedAt: at,
		Deleted:    true,
	})
}

// activate rebuilds the category tree and its visible offers in every
// affected store from the canonical source. Offers that stay invisible in a
// store are not materialized there.
func (c *Coordinator) activate(ctx context.Context, stores, tree, offers []string) {
	for _, storeCode := range stores {
		for _, categoryCode := range tree {
			id := catalog.ProjectionID{Type: catalog.TypeCategory, Code: categoryCode, Store: storeCode}
			if err := c.activateOne(ctx, id); err != nil {
				logSkip(err, id)
			}
		}
		for _, offerCode := range offers {
			id := catalog.ProjectionID{Type: catalog.TypeOffer, Code: offerCode, Store: storeCode}
			visible, err := c.graph.IsOfferVisible(ctx, offerCode, storeCode)
			if err != nil {
				logSkip(err, id)
				continue
			}
			if !visible {
				continue
			}
			if err := c.activateOne(ctx, id); err != nil {
				logSkip(err, id)
			}
		}
	}
}

// activateOne materializes one projection from the canonical source. An
// already-active projection is left alone and emits nothing; a tombstoned or
// absent one is written fresh and announced.
func (c *Coordinator) activateOne(ctx context.Context, id catalog.ProjectionID) error {
	getCtx, cancel := context.WithTimeout(ctx, c.cfg.OpTimeout)
	existing, err := c.projections.Get(getCtx, id)
	cancel()
	switch {
	case err == nil && !existing.Deleted:
		return nil
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return err
	}

	rebuilt, err := c.rebuild(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		// The source no longer carries it, nothing to revive.
		return nil
	}
	if err != nil {
		return err
	}

	rebuilt.ID = id
	rebuilt.Deleted = false
	rebuilt.ModifiedAt = time.Now()
	upsertCtx, cancel := context.WithTimeout(ctx, c.cfg.OpTimeout)
	err = c.projections.Upsert(upsertCtx, rebuilt)
	cancel()
	if err != nil {
		return err
	}
	return c.appendCatalogChanged(ctx, rebuilt)
}

func (c *Coordinator) rebuild(ctx context.Context, id catalog.ProjectionID) (catalog.Projection, error) {
	opCtx, cancel := context.WithTimeout(ctx, c.cfg.OpTimeout)
	defer cancel()
	if id.Type == catalog.TypeCategory {
		return c.source.CategoryProjection(opCtx, id.Code, id.Store)
	}
	return c.source.OfferProjection(opCtx, id.Code, id.Store)
}

func (c *Coordinator) appendCatalogChanged(ctx context.Context, p catalog.Projection) error {
	env, payload, err := event.NewCatalogChanged(p)
	if err != nil {
		return err
	}
	opCtx, cancel := context.WithTimeout(ctx, c.cfg.OpTimeout)
	defer cancel()
	return c.outbox.Append(opCtx, store.OutboxRecord{
		ID:        env.ID,
		Key:       p.ID.String(),
		Payload:   payload,
		CreatedAt: env.Timestamp,
	})
}

func logSkip(err error, id catalog.ProjectionID) {
	log.WithError(err).WithField("projection", id.String()).Error("skipping projection")
}
