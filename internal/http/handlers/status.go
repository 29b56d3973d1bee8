package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"dreamapp/internal/domain"
)

type statusRequest struct {
	ReelID   string `json:"reel_id"`
	RenderID string `json:"render_id"`
}

// GenerationStatus resolves a render handle to the artifact's current
// state. Repeated polls of a still-pending handle are idempotent.
func (a *App) GenerationStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.ReelID == "" || req.RenderID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "reel_id and render_id required")
		return
	}

	result, err := a.Tracker.Poll(r.Context(), req.ReelID, req.RenderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "artifact not found")
			return
		}
		a.Logger.Error().Err(err).Str("artifact_id", req.ReelID).Msg("status poll failed")
		a.error(w, http.StatusInternalServerError, "internal", "status poll failed")
		return
	}
	a.json(w, http.StatusOK, result)
}
