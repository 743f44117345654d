package topology

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/catalog-sync/internal/catalog"
	"github.com/example/catalog-sync/internal/event"
	"github.com/example/catalog-sync/internal/store"
	"github.com/example/catalog-sync/internal/store/mocks"
)

type stubGraph struct {
	stores  []string
	tree    []string
	offers  []string
	visible map[string]bool // offerCode@storeCode
}

func (g *stubGraph) StoresForCatalog(_ context.Context, _ string) ([]string, error) {
	return g.stores, nil
}

func (g *stubGraph) CategoryTree(_ context.Context, _ string) ([]string, error) {
	return g.tree, nil
}

func (g *stubGraph) OffersInTree(_ context.Context, _ []string) ([]string, error) {
	return g.offers, nil
}

func (g *stubGraph) IsOfferVisible(_ context.Context, offerCode, storeCode string) (bool, error) {
	return g.visible[offerCode+"@"+storeCode], nil
}

func newTestCoordinator(graph *stubGraph, masterStore string) (*Coordinator, *mocks.MockProjectionStore, *store.MemoryOutbox) {
	projections := mocks.NewMockProjectionStore()
	outbox := store.NewMemoryOutbox()
	source := NewProjectionSource(projections, masterStore)
	return NewCoordinator(projections, outbox, graph, source, Config{}), projections, outbox
}

func seed(projections *mocks.MockProjectionStore, t catalog.Type, code, storeCode string, deleted bool) catalog.ProjectionID {
	id := catalog.ProjectionID{Type: t, Code: code, Store: storeCode}
	projections.SetData(catalog.Projection{
		ID:         id,
		ModifiedAt: time.Now().Add(-time.Hour),
		Deleted:    deleted,
		Payload:    []byte(`{"translations":[{"language":"en","displayName":"Cameras"}]}`),
	})
	return id
}

func TestCoordinator_UnlinkTombstonesTreeAndOrphanedOffers(t *testing.T) {
	graph := &stubGraph{
		stores:  []string{"store-virtual"},
		tree:    []string{"cat-cameras"},
		offers:  []string{"offer-1"},
		visible: map[string]bool{},
	}
	coordinator, projections, outbox := newTestCoordinator(graph, "master")

	categoryID := seed(projections, catalog.TypeCategory, "cat-cameras", "store-virtual", false)
	offerID := seed(projections, catalog.TypeOffer, "offer-1", "store-virtual", false)
	masterOfferID := seed(projections, catalog.TypeOffer, "offer-1", "master", false)

	ev := event.Topology{Operation: event.OpUnlink, CategoryCode: "cat-cameras", CatalogCode: "virtual"}
	require.NoError(t, coordinator.Process(context.Background(), ev))

	for _, id := range []catalog.ProjectionID{categoryID, offerID} {
		got, ok := projections.GetData(id)
		require.True(t, ok)
		assert.True(t, got.Deleted, "%s should be tombstoned", id.String())
	}

	master, ok := projections.GetData(masterOfferID)
	require.True(t, ok)
	assert.False(t, master.Deleted, "the master store is not assigned the virtual catalog")

	assert.Len(t, outbox.Pending(), 2, "one notification per tombstoned projection")
}

func TestCoordinator_UnlinkKeepsOffersVisibleElsewhere(t *testing.T) {
	graph := &stubGraph{
		stores:  []string{"store-virtual"},
		tree:    []string{"cat-cameras"},
		offers:  []string{"offer-1"},
		visible: map[string]bool{"offer-1@store-virtual": true},
	}
	coordinator, projections, outbox := newTestCoordinator(graph, "master")

	seed(projections, catalog.TypeCategory, "cat-cameras", "store-virtual", false)
	offerID := seed(projections, catalog.TypeOffer, "offer-1", "store-virtual", false)

	ev := event.Topology{Operation: event.OpUnlink, CategoryCode: "cat-cameras", CatalogCode: "virtual"}
	require.NoError(t, coordinator.Process(context.Background(), ev))

	got, _ := projections.GetData(offerID)
	assert.False(t, got.Deleted, "offer reachable through another category stays active")
	assert.Len(t, outbox.Pending(), 1, "only the category was tombstoned")
}

func TestCoordinator_ExcludeOfAlreadyTombstonedEmitsNothing(t *testing.T) {
	graph := &stubGraph{
		stores:  []string{"store-virtual"},
		tree:    []string{"cat-cameras"},
		offers:  nil,
		visible: map[string]bool{},
	}
	coordinator, projections, outbox := newTestCoordinator(graph, "master")

	seed(projections, catalog.TypeCategory, "cat-cameras", "store-virtual", true)

	ev := event.Topology{Operation: event.OpExclude, CategoryCode: "cat-cameras", CatalogCode: "virtual"}
	require.NoError(t, coordinator.Process(context.Background(), ev))

	assert.Empty(t, outbox.Pending())
}

func TestCoordinator_UnlinkOfAbsentProjectionEmitsNothing(t *testing.T) {
	graph := &stubGraph{
		stores:  []string{"store-virtual"},
		tree:    []string{"cat-cameras"},
		offers:  []string{"offer-1"},
		visible: map[string]bool{},
	}
	coordinator, _, outbox := newTestCoordinator(graph, "master")

	ev := event.Topology{Operation: event.OpUnlink, CategoryCode: "cat-cameras", CatalogCode: "virtual"}
	require.NoError(t, coordinator.Process(context.Background(), ev))

	assert.Empty(t, outbox.Pending())
}

func TestCoordinator_IncludeRevivesFromMaster(t *testing.T) {
	graph := &stubGraph{
		stores:  []string{"store-virtual"},
		tree:    []string{"cat-cameras"},
		offers:  []string{"offer-1"},
		visible: map[string]bool{"offer-1@store-virtual": true},
	}
	coordinator, projections, outbox := newTestCoordinator(graph, "master")

	seed(projections, catalog.TypeCategory, "cat-cameras", "master", false)
	masterOfferID := seed(projections, catalog.TypeOffer, "offer-1", "master", false)
	tombstonedID := seed(projections, catalog.TypeOffer, "offer-1", "store-virtual", true)
	seed(projections, catalog.TypeCategory, "cat-cameras", "store-virtual", true)

	ev := event.Topology{Operation: event.OpInclude, CategoryCode: "cat-cameras", CatalogCode: "virtual"}
	require.NoError(t, coordinator.Process(context.Background(), ev))

	revived, ok := projections.GetData(tombstonedID)
	require.True(t, ok)
	assert.False(t, revived.Deleted)
	master, _ := projections.GetData(masterOfferID)
	assert.Equal(t, []byte(master.Payload), []byte(revived.Payload), "payload is rebuilt from the master store")
	assert.WithinDuration(t, time.Now(), revived.ModifiedAt, time.Second)

	assert.Len(t, outbox.Pending(), 2, "category and offer were both revived")
}

func TestCoordinator_IncludeSkipsInvisibleAbsentOffer(t *testing.T) {
	graph := &stubGraph{
		stores:  []string{"store-virtual"},
		tree:    []string{"cat-cameras"},
		offers:  []string{"offer-1"},
		visible: map[string]bool{},
	}
	coordinator, projections, outbox := newTestCoordinator(graph, "master")

	seed(projections, catalog.TypeCategory, "cat-cameras", "master", false)
	seed(projections, catalog.TypeOffer, "offer-1", "master", false)

	ev := event.Topology{Operation: event.OpLink, CategoryCode: "cat-cameras", CatalogCode: "virtual"}
	require.NoError(t, coordinator.Process(context.Background(), ev))

	_, ok := projections.GetData(catalog.ProjectionID{Type: catalog.TypeOffer, Code: "offer-1", Store: "store-virtual"})
	assert.False(t, ok, "an offer invisible in the store is not materialized there")

	assert.Len(t, outbox.Pending(), 1, "only the category was created")
}

func TestCoordinator_IncludeOfActiveProjectionIsNoOp(t *testing.T) {
	graph := &stubGraph{
		stores:  []string{"store-virtual"},
		tree:    []string{"cat-cameras"},
		offers:  nil,
		visible: map[string]bool{},
	}
	coordinator, projections, outbox := newTestCoordinator(graph, "master")

	seed(projections, catalog.TypeCategory, "cat-cameras", "master", false)
	activeID := seed(projections, catalog.TypeCategory, "cat-cameras", "store-virtual", false)
	before, _ := projections.GetData(activeID)

	ev := event.Topology{Operation: event.OpInclude, CategoryCode: "cat-cameras", CatalogCode: "virtual"}
	require.NoError(t, coordinator.Process(context.Background(), ev))

	after, _ := projections.GetData(activeID)
	assert.Equal(t, before, after)
	assert.Empty(t, outbox.Pending())
}

// blockingStore wedges every Tombstone call until its context is done.
type blockingStore struct {
	*mocks.MockProjectionStore
}

func (s *blockingStore) Tombstone(ctx context.Context, _ catalog.ProjectionID, _ time.Time) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

func TestCoordinator_StoreCallsAreDeadlineBounded(t *testing.T) {
	graph := &stubGraph{
		stores:  []string{"store-virtual"},
		tree:    []string{"cat-cameras"},
		offers:  nil,
		visible: map[string]bool{},
	}
	projections := &blockingStore{MockProjectionStore: mocks.NewMockProjectionStore()}
	outbox := store.NewMemoryOutbox()
	source := NewProjectionSource(projections, "master")
	coordinator := NewCoordinator(projections, outbox, graph, source, Config{OpTimeout: 20 * time.Millisecond})

	done := make(chan error, 1)
	go func() {
		done <- coordinator.Process(context.Background(), event.Topology{
			Operation:    event.OpUnlink,
			CategoryCode: "cat-cameras",
			CatalogCode:  "virtual",
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("a wedged store call stalled the whole topology event")
	}
	assert.Empty(t, outbox.Pending())
}

func TestCoordinator_MalformedEventRejected(t *testing.T) {
	coordinator, _, _ := newTestCoordinator(&stubGraph{}, "master")

	err := coordinator.Process(context.Background(), event.Topology{Operation: "DETACH", CategoryCode: "c", CatalogCode: "x"})
	assert.ErrorIs(t, err, event.ErrMalformedEvent)
}
