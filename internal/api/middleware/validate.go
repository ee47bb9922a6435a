package middleware

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/davidmns/finsync/internal/apperrors"
)

// ValidateEntityID validates that the entityID URL parameter is present and
// is a valid UUID. Returns 400 Bad Request before the handler runs otherwise.
//
// Example usage in router:
//
//	r.Route("/{entityID}", func(r chi.Router) {
//	    r.Use(middleware.ValidateEntityID)
//	    r.Get("/position", handler.Position)
//	})
func ValidateEntityID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entityID := chi.URLParam(r, "entityID")

		if entityID == "" {
			respondBadRequest(w, apperrors.ErrEmptyID)
			return
		}
		if _, err := uuid.Parse(entityID); err != nil {
			respondBadRequest(w, apperrors.ErrInvalidUUID)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func respondBadRequest(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	if encodeErr := json.NewEncoder(w).Encode(map[string]string{"error": err.Error()}); encodeErr != nil {
		log.Printf("Failed to encode JSON: %v", encodeErr)
	}
}
