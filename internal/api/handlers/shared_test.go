package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/davidmns/finsync/internal/apperrors"
)

// TestRespondJSON tests the respondJSON helper function.
func TestRespondJSON(t *testing.T) {
	t.Run("writes status, content type and body", func(t *testing.T) {
		// Setup
		w := httptest.NewRecorder()

		// Execute
		respondJSON(w, http.StatusOK, map[string]string{"hello": "world"})

		// Assert
		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected application/json, got %s", ct)
		}

		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("Failed to parse body: %v", err)
		}
		if body["hello"] != "world" {
			t.Errorf("Body mismatch: %+v", body)
		}
	})

	t.Run("nil data writes no body", func(t *testing.T) {
		// Setup
		w := httptest.NewRecorder()

		// Execute
		respondJSON(w, http.StatusNoContent, nil)

		// Assert
		if w.Code != http.StatusNoContent {
			t.Errorf("Expected 204, got %d", w.Code)
		}
		if w.Body.Len() != 0 {
			t.Errorf("Expected empty body, got %s", w.Body.String())
		}
	})
}

// TestRespondError tests the error-to-status mapping.
func TestRespondError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperrors.ErrEntityNotFound, http.StatusNotFound},
		{apperrors.ErrAdapterNotFound, http.StatusNotFound},
		{apperrors.ErrInvalidProvidedCredentials, http.StatusBadRequest},
		{apperrors.ErrFeatureNotSupported, http.StatusBadRequest},
		{apperrors.ErrExecutionConflict, http.StatusConflict},
		{apperrors.ErrVaultLocked, http.StatusServiceUnavailable},
		{fmt.Errorf("wrapped: %w", apperrors.ErrEntityNotFound), http.StatusNotFound},
		{fmt.Errorf("something else"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()

			respondError(w, tc.err)

			if w.Code != tc.status {
				t.Errorf("Expected %d for %v, got %d", tc.status, tc.err, w.Code)
			}
		})
	}
}
