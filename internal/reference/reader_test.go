package reference

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/catalog-sync/internal/catalog"
	"github.com/example/catalog-sync/internal/store"
	"github.com/example/catalog-sync/internal/store/mocks"
)

func seedReference(t *testing.T, projections *mocks.MockProjectionStore, refType catalog.Type, code, storeCode string, payload any, deleted bool) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	projections.SetData(catalog.Projection{
		ID:         catalog.ProjectionID{Type: refType, Code: code, Store: storeCode},
		ModifiedAt: time.Now(),
		Deleted:    deleted,
		Payload:    data,
	})
}

func TestStoreReader_BrandTranslationsPerStore(t *testing.T) {
	projections := mocks.NewMockProjectionStore()
	r := NewStoreReader(projections)

	seedReference(t, projections, catalog.TypeBrand, "brandA", "store-a", catalog.Brand{
		Translations: []catalog.Translation{
			{Language: "en", DisplayName: "Acme"},
			{Language: "fr", DisplayName: "Acmé"},
		},
	}, false)
	seedReference(t, projections, catalog.TypeBrand, "brandA", "store-b", catalog.Brand{
		Translations: []catalog.Translation{{Language: "en", DisplayName: "Acme B"}},
	}, false)

	got, err := r.GetTranslations(context.Background(), catalog.TypeBrand, "brandA")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Acme", got["store-a"].Names["en"])
	assert.Equal(t, "Acmé", got["store-a"].Names["fr"])
	assert.Equal(t, "Acme B", got["store-b"].Names["en"])
}

func TestStoreReader_OptionIncludesValueDisplayValues(t *testing.T) {
	projections := mocks.NewMockProjectionStore()
	r := NewStoreReader(projections)

	seedReference(t, projections, catalog.TypeOption, "colorOption", "store-a", catalog.Option{
		Translations: []catalog.OptionTranslation{
			{
				Language:    "en",
				DisplayName: "Colour",
				Values: []catalog.TranslatedValue{
					{Value: "red", DisplayValue: "Crimson"},
				},
			},
		},
	}, false)

	got, err := r.GetTranslations(context.Background(), catalog.TypeOption, "colorOption")
	require.NoError(t, err)
	assert.Equal(t, "Colour", got["store-a"].Names["en"])
	assert.Equal(t, "Crimson", got["store-a"].Values["en"]["red"])
}

func TestStoreReader_SkipsTombstonedReferences(t *testing.T) {
	projections := mocks.NewMockProjectionStore()
	r := NewStoreReader(projections)

	seedReference(t, projections, catalog.TypeBrand, "brandA", "store-a", catalog.Brand{
		Translations: []catalog.Translation{{Language: "en", DisplayName: "Acme"}},
	}, true)

	_, err := r.GetTranslations(context.Background(), catalog.TypeBrand, "brandA")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStoreReader_SkipsEmptyTranslationSets(t *testing.T) {
	projections := mocks.NewMockProjectionStore()
	r := NewStoreReader(projections)

	seedReference(t, projections, catalog.TypeBrand, "brandA", "store-a", catalog.Brand{}, false)
	seedReference(t, projections, catalog.TypeBrand, "brandA", "store-b", catalog.Brand{
		Translations: []catalog.Translation{{Language: "en", DisplayName: "Acme"}},
	}, false)

	got, err := r.GetTranslations(context.Background(), catalog.TypeBrand, "brandA")
	require.NoError(t, err)
	require.Len(t, got, 1, "a payload with no translations offers nothing to merge")
	assert.Equal(t, "Acme", got["store-b"].Names["en"])
}

func TestStoreReader_UnknownReference(t *testing.T) {
	r := NewStoreReader(mocks.NewMockProjectionStore())

	_, err := r.GetTranslations(context.Background(), catalog.TypeBrand, "ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
