package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"dreamapp/internal/storage"
)

const (
	itunesSearchURL     = "https://itunes.apple.com/search"
	audioDefaultTimeout = 15 * time.Second
)

// AudioResolver turns a free-text song title into a playable audio URL.
type AudioResolver interface {
	Resolve(ctx context.Context, songTitle string) (string, error)
}

// ITunesResolver resolves song titles through the public iTunes Search API
// and re-uploads the preview to stable storage. Preview URLs served by the
// catalog rotate, so the first-returned URL must not be persisted directly.
type ITunesResolver struct {
	httpClient *http.Client
	store      storage.Store
	logger     zerolog.Logger
}

// NewITunesResolver constructs the resolver. store may be nil; resolution
// then returns the raw preview URL.
func NewITunesResolver(httpClient *http.Client, store storage.Store, logger zerolog.Logger) *ITunesResolver {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: audioDefaultTimeout}
	}
	return &ITunesResolver{httpClient: httpClient, store: store, logger: logger}
}

type itunesResponse struct {
	ResultCount int `json:"resultCount"`
	Results     []struct {
		TrackName  string `json:"trackName"`
		ArtistName string `json:"artistName"`
		PreviewURL string `json:"previewUrl"`
	} `json:"results"`
}

// Resolve searches the catalog and persists the preview audio.
func (r *ITunesResolver) Resolve(ctx context.Context, songTitle string) (string, error) {
	songTitle = strings.TrimSpace(songTitle)
	if songTitle == "" {
		return "", errors.New("audio: empty song title")
	}

	q := url.Values{}
	q.Set("term", songTitle)
	q.Set("media", "music")
	q.Set("limit", "3")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, itunesSearchURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("audio: build search: %w", err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("audio: search: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("audio: search status %d", resp.StatusCode)
	}
	var out itunesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("audio: decode search: %w", err)
	}

	previewURL := ""
	for _, result := range out.Results {
		if result.PreviewURL != "" {
			previewURL = result.PreviewURL
			break
		}
	}
	if previewURL == "" {
		return "", fmt.Errorf("audio: no playable result for %q", songTitle)
	}

	if r.store == nil {
		return previewURL, nil
	}
	stable, err := r.reupload(ctx, previewURL)
	if err != nil {
		// Unstable URL beats no soundtrack.
		r.logger.Warn().Err(err).Str("song", songTitle).Msg("audio: re-upload failed, using preview url")
		return previewURL, nil
	}
	return stable, nil
}

func (r *ITunesResolver) reupload(ctx context.Context, previewURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, previewURL, nil)
	if err != nil {
		return "", fmt.Errorf("audio: build fetch: %w", err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("audio: fetch preview: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("audio: preview status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 20<<20))
	if err != nil {
		return "", fmt.Errorf("audio: read preview: %w", err)
	}
	key := fmt.Sprintf("audio/%s.m4a", uuid.NewString())
	return r.store.Write(ctx, key, data)
}

var _ AudioResolver = (*ITunesResolver)(nil)
