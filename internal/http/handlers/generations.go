package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"dreamapp/internal/domain"
	"dreamapp/internal/middleware"
	"dreamapp/internal/orchestrator"
)

type generateRequest struct {
	BusinessID   string `json:"business_id"`
	Type         string `json:"type"`
	CampaignGoal string `json:"campaign_goal"`
}

type artifactResponse struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Status   string   `json:"status"`
	URL      string   `json:"url,omitempty"`
	Error    string   `json:"error,omitempty"`
	Handle   string   `json:"render_id,omitempty"`
	MediaIDs []string `json:"media_ids,omitempty"`
	TraceID  string   `json:"trace_id,omitempty"`
}

// Generate triggers one creative generation run.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.BusinessID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "business_id required")
		return
	}
	artifactType := domain.ArtifactType(req.Type)
	if artifactType != domain.ArtifactTypeReel && artifactType != domain.ArtifactTypePost {
		a.error(w, http.StatusBadRequest, "bad_request", "type must be REEL or POST")
		return
	}

	artifacts, err := a.Pipeline.Generate(r.Context(), orchestrator.GenerateRequest{
		BusinessID:   req.BusinessID,
		Type:         artifactType,
		CampaignGoal: req.CampaignGoal,
		RequesterIP:  middleware.ClientIP(r),
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusNotFound, "not_found", "business not found")
		case errors.Is(err, domain.ErrNoMedia):
			a.error(w, http.StatusConflict, "no_media", "a reel needs at least one unprocessed media item")
		default:
			a.Logger.Error().Err(err).Msg("generation failed before artifact creation")
			a.error(w, http.StatusInternalServerError, "internal", "generation failed")
		}
		return
	}

	out := make([]artifactResponse, 0, len(artifacts))
	for _, artifact := range artifacts {
		out = append(out, toArtifactResponse(artifact))
	}
	a.json(w, http.StatusAccepted, map[string]any{"artifacts": out})
}

func toArtifactResponse(artifact domain.Artifact) artifactResponse {
	resp := artifactResponse{
		ID:       artifact.ID,
		Type:     string(artifact.Type),
		Status:   string(artifact.State.Status),
		MediaIDs: artifact.MediaIDs,
		TraceID:  artifact.TraceID,
	}
	switch artifact.State.Status {
	case domain.StatusPending:
		resp.Handle = artifact.State.Handle
	case domain.StatusReady:
		resp.URL = artifact.State.URL
	case domain.StatusFailed:
		resp.Error = artifact.State.Reason
	}
	return resp
}
