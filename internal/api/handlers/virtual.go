package handlers

import (
	"net/http"

	"github.com/davidmns/finsync/internal/service"
)

// VirtualHandler handles spreadsheet-import HTTP requests
type VirtualHandler struct {
	virtualService *service.VirtualService
}

// NewVirtualHandler creates a new VirtualHandler
func NewVirtualHandler(virtualService *service.VirtualService) *VirtualHandler {
	return &VirtualHandler{
		virtualService: virtualService,
	}
}

// Import runs one spreadsheet import batch over the configured import
// directory. A concurrent run comes back as 200 with an EXECUTION_CONFLICT
// code.
//
// Endpoint: POST /api/virtual/import
func (h *VirtualHandler) Import(w http.ResponseWriter, r *http.Request) {
	result, err := h.virtualService.Import(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
