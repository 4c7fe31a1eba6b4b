package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"arbiscan/internal/config"
	"arbiscan/internal/store"
)

// SettingsHandler exposes the §6 settings map: GetSettings reads the live
// Reloader snapshot every other component already reads from; UpdateSettings
// writes straight to the config:scanner hash, taking effect on the
// Reloader's next poll rather than immediately (the store is the only
// coordination primitive, per §5).
type SettingsHandler struct {
	reloader *config.Reloader
	kv       store.KVStore
}

func NewSettingsHandler(reloader *config.Reloader, kv store.KVStore) *SettingsHandler {
	return &SettingsHandler{reloader: reloader, kv: kv}
}

// GetSettings: GET /api/v1/settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.reloader.Current())
}

// UpdateSettings: PATCH /api/v1/settings — accepts a partial map of the
// snake_case option names from §6 and writes them straight into the
// config:scanner hash.
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var fields map[string]string
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(fields) == 0 {
		respondError(w, http.StatusBadRequest, "no fields to update")
		return
	}
	if err := h.kv.HSet(r.Context(), "config:scanner", fields); err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to update settings: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "settings updated, effective on next reload"})
}
