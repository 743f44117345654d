package bulk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/example/catalog-sync/internal/catalog"
	"github.com/example/catalog-sync/internal/event"
	"github.com/example/catalog-sync/internal/reference"
	"github.com/example/catalog-sync/internal/store"
)

// Config tunes propagation.
type Config struct {
	// Workers bounds how many owner codes are processed in parallel.
	Workers int
	// OpTimeout caps each projection-store call.
	OpTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.OpTimeout <= 0 {
		c.OpTimeout = 5 * time.Second
	}
	return c
}

// Propagator fans a reference-entity change out to the denormalized copies
// embedded in the affected offer and category projections.
//
// A failed reference lookup fails the whole event, since nothing can be
// computed, and the caller's delivery mechanism redelivers it. Failures on
// individual owner codes are logged and skipped so the rest of the batch
// keeps making progress; redelivery plus builder idempotence make the
// re-run safe.
type Propagator struct {
	projections store.ProjectionStore
	outbox      store.OutboxStore
	refs        reference.Reader
	cfg         Config
}

func NewPropagator(projections store.ProjectionStore, outbox store.OutboxStore, refs reference.Reader, cfg Config) *Propagator {
	return &Propagator{
		projections: projections,
		outbox:      outbox,
		refs:        refs,
		cfg:         cfg.withDefaults(),
	}
}

// Process applies one bulk-update event.
func (p *Propagator) Process(ctx context.Context, ev event.BulkUpdate) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	perStore, err := p.refs.GetTranslations(ctx, ev.ReferenceType.ProjectionType(), ev.ReferenceCode)
	if err != nil {
		return fmt.Errorf("bulk update %s %q: %w", ev.ReferenceType, ev.ReferenceCode, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for _, code := range ev.AffectedOwnerCodes {
		g.Go(func() error {
			p.processOwner(ctx, ev, code, perStore)
			return nil
		})
	}
	return g.Wait()
}

func (p *Propagator) processOwner(ctx context.Context, ev event.BulkUpdate, ownerCode string, perStore map[string]catalog.ReferenceTranslations) {
	ownerType := ev.ReferenceType.OwnerType()

	for storeCode, fresh := range perStore {
		if ctx.Err() != nil {
			return
		}
		id := catalog.ProjectionID{Type: ownerType, Code: ownerCode, Store: storeCode}
		if err := p.refreshOne(ctx, ev, id, fresh); err != nil {
			level := log.ErrorLevel
			if errors.Is(err, store.ErrNotFound) {
				level = log.WarnLevel
			}
			log.WithError(err).WithFields(log.Fields{
				"projection": id.String(),
				"reference":  ev.ReferenceCode,
			}).Log(level, "skipping owner code")
		}
	}
}

func (p *Propagator) refreshOne(ctx context.Context, ev event.BulkUpdate, id catalog.ProjectionID, fresh catalog.ReferenceTranslations) error {
	getCtx, cancel := context.WithTimeout(ctx, p.cfg.OpTimeout)
	projection, err := p.projections.Get(getCtx, id)
	cancel()
	if err != nil {
		return err
	}

	payload, changed, err := p.applyUpdate(ev, projection.Payload, fresh)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	projection.Payload = payload
	projection.ModifiedAt = time.Now()

	upsertCtx, cancel := context.WithTimeout(ctx, p.cfg.OpTimeout)
	err = p.projections.Upsert(upsertCtx, projection)
	cancel()
	if err != nil {
		return err
	}

	appendCtx, cancel := context.WithTimeout(ctx, p.cfg.OpTimeout)
	defer cancel()
	return appendCatalogChanged(appendCtx, p.outbox, projection)
}

func (p *Propagator) applyUpdate(ev event.BulkUpdate, payload json.RawMessage, fresh catalog.ReferenceTranslations) (json.RawMessage, bool, error) {
	if ev.ReferenceType == event.RefAttributeCategory {
		var category catalog.Category
		if err := json.Unmarshal(payload, &category); err != nil {
			return nil, false, err
		}
		updated, changed := catalog.ApplyCategoryReferenceUpdate(category, ev.ReferenceCode, fresh)
		if !changed {
			return nil, false, nil
		}
		data, err := json.Marshal(updated)
		return data, true, err
	}

	var offer catalog.Offer
	if err := json.Unmarshal(payload, &offer); err != nil {
		return nil, false, err
	}
	updated, changed := catalog.ApplyOfferReferenceUpdate(offer, referenceKind(ev.ReferenceType), ev.ReferenceCode, fresh)
	if !changed {
		return nil, false, nil
	}
	data, err := json.Marshal(updated)
	return data, true, err
}

func referenceKind(t event.ReferenceType) catalog.ReferenceKind {
	switch t {
	case event.RefBrand:
		return catalog.KindBrand
	case event.RefOption:
		return catalog.KindOption
	case event.RefAttributeSKU:
		return catalog.KindSKUAttribute
	default:
		return catalog.KindAttribute
	}
}

// appendCatalogChanged closes the loop: every performed projection mutation
// lands a catalog-change notification in the outbox for the relay to
// publish.
func appendCatalogChanged(ctx context.Context, outbox store.OutboxStore, p catalog.Projection) error {
	env, payload, err := event.NewCatalogChanged(p)
	if err != nil {
		return err
	}
	return outbox.Append(ctx, store.OutboxRecord{
		ID:        env.ID,
		Key:       p.ID.String(),
		Payload:   payload,
		CreatedAt: env.Timestamp,
	})
}
