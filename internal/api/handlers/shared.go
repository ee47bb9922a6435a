package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/davidmns/finsync/internal/apperrors"
)

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("Failed to encode JSON: %v", err)
		}
	}
}

// respondError maps a service error onto an HTTP status with a uniform body.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrEntityNotFound),
		errors.Is(err, apperrors.ErrAdapterNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidProvidedCredentials),
		errors.Is(err, apperrors.ErrFeatureNotSupported):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrExecutionConflict):
		status = http.StatusConflict
	case errors.Is(err, apperrors.ErrVaultLocked):
		status = http.StatusServiceUnavailable
	}

	respondJSON(w, status, map[string]string{"error": err.Error()})
}

// decodeJSON parses the request body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
