package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/davidmns/finsync/internal/model"
	"github.com/davidmns/finsync/internal/service"
)

// EntityHandler handles entity and fetched-data HTTP requests
type EntityHandler struct {
	dataService *service.DataService
}

// NewEntityHandler creates a new EntityHandler
func NewEntityHandler(dataService *service.DataService) *EntityHandler {
	return &EntityHandler{
		dataService: dataService,
	}
}

// EntityResponse represents one entity in the list response. Credential
// values never appear here, only the template field names and types.
type EntityResponse struct {
	ID                  string                          `json:"id"`
	Name                string                          `json:"name"`
	Type                model.EntityType                `json:"type"`
	Origin              model.EntityOrigin              `json:"origin"`
	Features            []model.Feature                 `json:"features,omitempty"`
	CredentialsTemplate map[string]model.CredentialType `json:"credentials_template,omitempty"`
	PinLength           int                             `json:"pin_length,omitempty"`
}

// Entities lists every known entity with its catalog metadata.
//
// Endpoint: GET /api/entities
func (h *EntityHandler) Entities(w http.ResponseWriter, r *http.Request) {
	entities, err := h.dataService.ListEntities(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	response := make([]EntityResponse, len(entities))
	for i, e := range entities {
		response[i] = EntityResponse{
			ID:                  e.ID,
			Name:                e.Name,
			Type:                e.Type,
			Origin:              e.Origin,
			Features:            e.Features,
			CredentialsTemplate: e.CredentialsTemplate,
			PinLength:           e.PinLength,
		}
	}

	respondJSON(w, http.StatusOK, response)
}

// Position returns the latest stored snapshot of the entity. The source
// query parameter selects REAL (default) or SHEETS data.
//
// Endpoint: GET /api/entities/{entityID}/position
func (h *EntityHandler) Position(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityID")

	source := model.SourceReal
	if raw := r.URL.Query().Get("source"); raw != "" {
		source = model.ProductSource(raw)
	}

	position, err := h.dataService.LatestPosition(r.Context(), entityID, source)
	if err != nil {
		respondError(w, err)
		return
	}
	if position == nil {
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "no position stored"})
		return
	}

	respondJSON(w, http.StatusOK, position)
}

// Transactions returns every stored transaction of the entity.
//
// Endpoint: GET /api/entities/{entityID}/transactions
func (h *EntityHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityID")

	txs, err := h.dataService.EntityTransactions(r.Context(), entityID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, txs)
}

// Contributions returns the last fetched contribution set of the entity.
//
// Endpoint: GET /api/entities/{entityID}/contributions
func (h *EntityHandler) Contributions(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityID")

	contributions, err := h.dataService.EntityContributions(r.Context(), entityID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, contributions)
}

// Historic returns the last fetched historic set of the entity.
//
// Endpoint: GET /api/entities/{entityID}/historic
func (h *EntityHandler) Historic(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityID")

	entries, err := h.dataService.EntityHistoric(r.Context(), entityID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, entries)
}

// FetchRecords returns the per-feature fetch timestamps of the entity.
//
// Endpoint: GET /api/entities/{entityID}/fetch-records
func (h *EntityHandler) FetchRecords(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityID")

	records, err := h.dataService.EntityFetchRecords(r.Context(), entityID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, records)
}
