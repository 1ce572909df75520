package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/synapdocs/docqa/internal/session"
)

// Provider yields the shared engine resources, initializing them on first
// use. Implemented by session.Manager.
type Provider interface {
	Acquire(ctx context.Context) (*session.Resources, error)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}
