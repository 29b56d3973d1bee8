package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"dreamapp/internal/domain"
)

// ListArtifacts returns the business's artifacts, newest first, with
// decoded status fields.
func (a *App) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "business_id")
	if businessID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "business_id required")
		return
	}
	artifacts, err := a.Artifacts.ListByBusiness(r.Context(), businessID, 50)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list artifacts failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list artifacts")
		return
	}
	out := make([]artifactResponse, 0, len(artifacts))
	for _, artifact := range artifacts {
		out = append(out, toArtifactResponse(artifact))
	}
	a.json(w, http.StatusOK, map[string]any{"items": out})
}

type scheduleRequest struct {
	At time.Time `json:"at"`
}

// ScheduleArtifact marks a ready artifact for publication at a time.
func (a *App) ScheduleArtifact(w http.ResponseWriter, r *http.Request) {
	artifactID := chi.URLParam(r, "id")
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.At.IsZero() {
		a.error(w, http.StatusBadRequest, "bad_request", "a valid schedule time is required")
		return
	}
	a.transition(w, r, artifactID, domain.ScheduledState(req.At))
}

// DiscardArtifact marks the artifact as rejected by the user.
func (a *App) DiscardArtifact(w http.ResponseWriter, r *http.Request) {
	a.transition(w, r, chi.URLParam(r, "id"), domain.DiscardedState())
}

// DeleteArtifact removes the artifact permanently. Deletion is also the
// only way out of a stuck pending state.
func (a *App) DeleteArtifact(w http.ResponseWriter, r *http.Request) {
	artifactID := chi.URLParam(r, "id")
	if err := a.Artifacts.Delete(r.Context(), artifactID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "artifact not found")
			return
		}
		a.Logger.Error().Err(err).Str("artifact_id", artifactID).Msg("delete artifact failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to delete artifact")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"id": artifactID, "status": "deleted"})
}

type feedbackRequest struct {
	Score float64 `json:"score"`
}

// ArtifactFeedback records a user score. A score of -1.0 discards the
// artifact; every score propagates as a reward onto all decision-trace
// spans sharing the artifact's trace id.
func (a *App) ArtifactFeedback(w http.ResponseWriter, r *http.Request) {
	artifactID := chi.URLParam(r, "id")
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	artifact, err := a.Artifacts.GetByID(r.Context(), artifactID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "artifact not found")
			return
		}
		a.Logger.Error().Err(err).Str("artifact_id", artifactID).Msg("load artifact failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load artifact")
		return
	}

	if err := a.Artifacts.SetFeedback(r.Context(), artifactID, req.Score); err != nil {
		a.Logger.Error().Err(err).Str("artifact_id", artifactID).Msg("set feedback failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to record feedback")
		return
	}
	if req.Score == -1.0 {
		if err := a.Artifacts.UpdateState(r.Context(), artifactID, domain.DiscardedState()); err != nil {
			a.Logger.Error().Err(err).Str("artifact_id", artifactID).Msg("discard on feedback failed")
		}
	}
	if artifact.TraceID != "" {
		if err := a.Recorder.AttachReward(r.Context(), artifact.TraceID, req.Score); err != nil {
			// Reward patching is best effort; the feedback itself is saved.
			a.Logger.Warn().Err(err).Str("trace_id", artifact.TraceID).Msg("reward attach failed")
		}
	}
	a.json(w, http.StatusOK, map[string]any{"id": artifactID, "score": req.Score})
}

func (a *App) transition(w http.ResponseWriter, r *http.Request, artifactID string, state domain.ArtifactState) {
	if artifactID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "artifact id required")
		return
	}
	if err := a.Artifacts.UpdateState(r.Context(), artifactID, state); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "artifact not found")
			return
		}
		a.Logger.Error().Err(err).Str("artifact_id", artifactID).Msg("artifact transition failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to update artifact")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"id": artifactID, "status": string(state.Status)})
}
