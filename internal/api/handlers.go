package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/example/catalog-sync/internal/catalog"
	"github.com/example/catalog-sync/internal/store"
)

// Handlers serves read access to the projection store. Tombstoned
// projections are returned with their deleted marker so consumers can
// propagate removals.
type Handlers struct {
	projections store.ProjectionStore
}

func NewHandlers(projections store.ProjectionStore) *Handlers {
	return &Handlers{projections: projections}
}

// GetProjection handles GET /projections/{store}/{type}/{code}
func (h *Handlers) GetProjection(w http.ResponseWriter, r *http.Request) {
	t, err := catalog.ParseType(r.PathValue("type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := catalog.ProjectionID{
		Type:  t,
		Code:  r.PathValue("code"),
		Store: r.PathValue("store"),
	}
	projection, err := h.projections.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "projection not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, projection)
}

// ListProjections handles GET /projections/{store}/{type}
func (h *Handlers) ListProjections(w http.ResponseWriter, r *http.Request) {
	t, err := catalog.ParseType(r.PathValue("type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	filter := store.Filter{Type: t, Store: r.PathValue("store")}
	projections := []catalog.Projection{}
	for p, err := range h.projections.FindAll(r.Context(), filter) {
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		projections = append(projections, p)
	}

	respondJSON(w, http.StatusOK, projections)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
