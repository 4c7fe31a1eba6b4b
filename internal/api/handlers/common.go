// Package handlers implements the scanner's small read-only admin surface:
// health, blacklist management and live settings, all backed directly by
// the shared KV store rather than a database-backed service layer.
package handlers

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the uniform error body for every handler in this package.
type ErrorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}
