package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/catalog-sync/internal/auth"
	"github.com/example/catalog-sync/internal/catalog"
	"github.com/example/catalog-sync/internal/store/mocks"
)

func newTestServer(t *testing.T) (*httptest.Server, *mocks.MockProjectionStore, string) {
	t.Helper()
	projections := mocks.NewMockProjectionStore()
	tokens := auth.NewTokenService("test-secret-key-for-testing-purposes", time.Hour)
	server := httptest.NewServer(NewRouter(NewHandlers(projections), tokens))
	t.Cleanup(server.Close)

	token, _, err := tokens.GenerateServiceToken("storefront")
	require.NoError(t, err)
	return server, projections, token
}

func doGet(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestGetProjection(t *testing.T) {
	server, projections, token := newTestServer(t)

	projections.SetData(catalog.Projection{
		ID:         catalog.ProjectionID{Type: catalog.TypeOffer, Code: "offer-1", Store: "store-a"},
		ModifiedAt: time.Now(),
		Payload:    []byte(`{"translations":[]}`),
	})

	resp := doGet(t, server.URL+"/projections/store-a/offer/offer-1", token)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got catalog.Projection
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "offer-1", got.ID.Code)
	assert.False(t, got.Deleted)
}

func TestGetProjection_TombstonedIsServed(t *testing.T) {
	server, projections, token := newTestServer(t)

	projections.SetData(catalog.Projection{
		ID:         catalog.ProjectionID{Type: catalog.TypeOffer, Code: "offer-1", Store: "store-a"},
		ModifiedAt: time.Now(),
		Deleted:    true,
	})

	resp := doGet(t, server.URL+"/projections/store-a/offer/offer-1", token)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got catalog.Projection
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.True(t, got.Deleted, "consumers need the tombstone to propagate removals")
}

func TestGetProjection_NotFound(t *testing.T) {
	server, _, token := newTestServer(t)

	resp := doGet(t, server.URL+"/projections/store-a/offer/ghost", token)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetProjection_BadType(t *testing.T) {
	server, _, token := newTestServer(t)

	resp := doGet(t, server.URL+"/projections/store-a/widget/offer-1", token)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetProjection_Unauthorized(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp := doGet(t, server.URL+"/projections/store-a/offer/offer-1", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doGet(t, server.URL+"/projections/store-a/offer/offer-1", "bogus-token")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestListProjections(t *testing.T) {
	server, projections, token := newTestServer(t)

	for _, code := range []string{"offer-1", "offer-2"} {
		projections.SetData(catalog.Projection{
			ID:         catalog.ProjectionID{Type: catalog.TypeOffer, Code: code, Store: "store-a"},
			ModifiedAt: time.Now(),
		})
	}
	projections.SetData(catalog.Projection{
		ID:         catalog.ProjectionID{Type: catalog.TypeOffer, Code: "offer-3", Store: "store-b"},
		ModifiedAt: time.Now(),
	})

	resp := doGet(t, server.URL+"/projections/store-a/offer", token)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got []catalog.Projection
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 2)
	assert.Equal(t, "offer-1", got[0].ID.Code)
	assert.Equal(t, "offer-2", got[1].ID.Code)
}

func TestListProjections_EmptyStore(t *testing.T) {
	server, _, token := newTestServer(t)

	resp := doGet(t, server.URL+"/projections/store-a/offer", token)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got []catalog.Projection
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Empty(t, got)
}
