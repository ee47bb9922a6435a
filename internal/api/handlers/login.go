package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/davidmns/finsync/internal/service"
)

// LoginHandler handles entity connect and disconnect HTTP requests
type LoginHandler struct {
	loginService *service.LoginService
}

// NewLoginHandler creates a new LoginHandler
func NewLoginHandler(loginService *service.LoginService) *LoginHandler {
	return &LoginHandler{
		loginService: loginService,
	}
}

// Login connects an entity: validates the credential map against the
// entity's template, runs the adapter login and stores the outcome.
//
// Endpoint: POST /api/login
func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	response, err := h.loginService.AddEntityCredentials(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, response)
}

// Disconnect removes the entity's stored credentials and session. Fetched
// data is kept.
//
// Endpoint: DELETE /api/entities/{entityID}/login
func (h *LoginHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityID")

	if err := h.loginService.Disconnect(r.Context(), entityID); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
