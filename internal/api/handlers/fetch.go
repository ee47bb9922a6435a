package handlers

import (
	"net/http"

	"github.com/davidmns/finsync/internal/service"
)

// FetchHandler handles fetch-orchestration HTTP requests
type FetchHandler struct {
	fetchService *service.FetchService
}

// NewFetchHandler creates a new FetchHandler
func NewFetchHandler(fetchService *service.FetchService) *FetchHandler {
	return &FetchHandler{
		fetchService: fetchService,
	}
}

// Fetch runs one fetch for one entity. The body is a service.FetchRequest;
// known outcomes come back as 200 with a result code, so a 2FA round-trip or
// a cooldown is not an HTTP error.
//
// Endpoint: POST /api/fetch
func (h *FetchHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	var req service.FetchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.fetchService.Execute(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// FetchAll runs a fetch over every entity with a registered adapter.
//
// Endpoint: POST /api/fetch/all
func (h *FetchHandler) FetchAll(w http.ResponseWriter, r *http.Request) {
	results, err := h.fetchService.FetchAll(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, results)
}
