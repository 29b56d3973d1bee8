package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"dreamapp/internal/domain"
)

type registerMediaRequest struct {
	URL  string `json:"url"`
	Kind string `json:"kind"`
}

// RegisterMedia records one uploaded media URL for the business. The actual
// upload/signing happens client-side against the storage provider; the API
// only tracks the resulting URL.
func (a *App) RegisterMedia(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "business_id")
	var req registerMediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "a media url is required")
		return
	}
	kind := domain.MediaKind(req.Kind)
	if kind != domain.MediaKindImage && kind != domain.MediaKindVideo {
		kind = domain.MediaKindImage
	}

	item := domain.MediaItem{
		ID:         uuid.NewString(),
		BusinessID: businessID,
		URL:        req.URL,
		Kind:       kind,
	}
	if err := a.Media.Create(r.Context(), &item); err != nil {
		a.Logger.Error().Err(err).Str("business_id", businessID).Msg("register media failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to register media")
		return
	}
	a.json(w, http.StatusCreated, map[string]string{"id": item.ID})
}

// ListUnprocessedMedia returns the media items awaiting generation.
func (a *App) ListUnprocessedMedia(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "business_id")
	items, err := a.Media.ListUnprocessed(r.Context(), businessID)
	if err != nil {
		a.Logger.Error().Err(err).Str("business_id", businessID).Msg("list media failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list media")
		return
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		out = append(out, map[string]any{
			"id":         item.ID,
			"url":        item.URL,
			"kind":       item.Kind,
			"created_at": item.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": out})
}
