package reference

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/catalog-sync/internal/catalog"
	"github.com/example/catalog-sync/internal/store"
)

// Reader resolves a reference entity's current translation sets, keyed by
// store. Passed to the propagator as an explicit dependency so tests can
// substitute a double.
type Reader interface {
	GetTranslations(ctx context.Context, t catalog.Type, code string) (map[string]catalog.ReferenceTranslations, error)
}

// StoreReader reads reference translations from the brand/option/attribute
// projections persisted in the projection store itself, which the canonical
// services keep current. One entry per store the reference exists in;
// tombstoned projections and payloads with no translations are skipped.
type StoreReader struct {
	projections store.ProjectionStore
}

func NewStoreReader(projections store.ProjectionStore) *StoreReader {
	return &StoreReader{projections: projections}
}

func (r *StoreReader) GetTranslations(ctx context.Context, t catalog.Type, code string) (map[string]catalog.ReferenceTranslations, error) {
	projections, err := r.projections.GetByCode(ctx, t, code)
	if err != nil {
		return nil, fmt.Errorf("reading %s %q: %w", t, code, err)
	}

	out := make(map[string]catalog.ReferenceTranslations)
	for _, p := range projections {
		if p.Deleted {
			continue
		}
		translations, err := decode(t, p.Payload)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", p.ID.String(), err)
		}
		if translations.Empty() {
			continue
		}
		out[p.ID.Store] = translations
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s %q: %w", t, code, store.ErrNotFound)
	}
	return out, nil
}

func decode(t catalog.Type, payload []byte) (catalog.ReferenceTranslations, error) {
	switch t {
	case catalog.TypeBrand:
		var b catalog.Brand
		if err := json.Unmarshal(payload, &b); err != nil {
			return catalog.ReferenceTranslations{}, err
		}
		return catalog.BrandTranslations(b), nil
	case catalog.TypeOption:
		var o catalog.Option
		if err := json.Unmarshal(payload, &o); err != nil {
			return catalog.ReferenceTranslations{}, err
		}
		return catalog.OptionTranslations(o), nil
	case catalog.TypeAttribute:
		var a catalog.Attribute
		if err := json.Unmarshal(payload, &a); err != nil {
			return catalog.ReferenceTranslations{}, err
		}
		return catalog.AttributeTranslations(a), nil
	}
	return catalog.ReferenceTranslations{}, fmt.Errorf("type %q is not a reference entity", t)
}
