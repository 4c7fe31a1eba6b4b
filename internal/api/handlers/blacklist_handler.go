package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"arbiscan/internal/alert"
)

// BlacklistHandler exposes the symbol blacklist of §3: a plain set the
// alert gate consults before ever dispatching, and the only part of the
// gate's policy an operator can edit at runtime.
type BlacklistHandler struct {
	blacklist *alert.Blacklist
}

func NewBlacklistHandler(blacklist *alert.Blacklist) *BlacklistHandler {
	return &BlacklistHandler{blacklist: blacklist}
}

type blacklistResponse struct {
	Symbols []string `json:"symbols"`
}

type addToBlacklistRequest struct {
	Symbol string `json:"symbol"`
}

// GetBlacklist: GET /api/v1/blacklist
func (h *BlacklistHandler) GetBlacklist(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.blacklist.All(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read blacklist")
		return
	}
	respondJSON(w, http.StatusOK, blacklistResponse{Symbols: symbols})
}

// AddToBlacklist: POST /api/v1/blacklist
func (h *BlacklistHandler) AddToBlacklist(w http.ResponseWriter, r *http.Request) {
	var req addToBlacklistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	if err := h.blacklist.Add(r.Context(), req.Symbol); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to add to blacklist")
		return
	}
	respondJSON(w, http.StatusCreated, blacklistResponse{Symbols: []string{req.Symbol}})
}

// RemoveFromBlacklist: DELETE /api/v1/blacklist/{symbol}
func (h *BlacklistHandler) RemoveFromBlacklist(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	if err := h.blacklist.Remove(r.Context(), symbol); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to remove from blacklist")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
