package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	shotstackDefaultBaseURL = "https://api.shotstack.io/v1"
	shotstackDefaultTimeout = 30 * time.Second
)

// RenderStatus mirrors the render-queue service's lifecycle states.
type RenderStatus string

const (
	RenderQueued    RenderStatus = "queued"
	RenderFetching  RenderStatus = "fetching"
	RenderRendering RenderStatus = "rendering"
	RenderDone      RenderStatus = "done"
	RenderFailed    RenderStatus = "failed"
)

// StatusResult is the outcome of one status poll.
type StatusResult struct {
	Status RenderStatus
	URL    string
	Error  string
}

// VideoRenderer is the asynchronous render-queue contract used by the
// dispatcher and the status tracker.
type VideoRenderer interface {
	Submit(ctx context.Context, timeline Timeline, output Output) (string, error)
	Status(ctx context.Context, handle string) (StatusResult, error)
}

// ShotstackOptions configures the render-queue client.
type ShotstackOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// ShotstackClient talks to the external video render queue.
type ShotstackClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewShotstackClient validates options and constructs the client.
func NewShotstackClient(opts ShotstackOptions) (*ShotstackClient, error) {
	if opts.APIKey == "" {
		return nil, errors.New("shotstack api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = shotstackDefaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: shotstackDefaultTimeout}
	}
	return &ShotstackClient{apiKey: opts.APIKey, baseURL: baseURL, httpClient: client}, nil
}

type submitRequest struct {
	Timeline Timeline `json:"timeline"`
	Output   Output   `json:"output"`
}

type submitResponse struct {
	Success  bool `json:"success"`
	Response struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	} `json:"response"`
}

type statusResponse struct {
	Response struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		URL    string `json:"url"`
		Error  string `json:"error"`
	} `json:"response"`
}

// Submit enqueues a render and returns the opaque render handle.
func (c *ShotstackClient) Submit(ctx context.Context, timeline Timeline, output Output) (string, error) {
	payload := submitRequest{Timeline: timeline, Output: output}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("shotstack: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/render", &buf)
	if err != nil {
		return "", fmt.Errorf("shotstack: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("shotstack: submit: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("shotstack: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("shotstack: submit status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	var out submitResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("shotstack: decode response: %w", err)
	}
	if out.Response.ID == "" {
		return "", fmt.Errorf("shotstack: submit rejected: %s", out.Response.Message)
	}
	return out.Response.ID, nil
}

// Status polls the render queue for the handle's current state.
func (c *ShotstackClient) Status(ctx context.Context, handle string) (StatusResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/render/"+handle, nil)
	if err != nil {
		return StatusResult{}, fmt.Errorf("shotstack: build status request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return StatusResult{}, fmt.Errorf("shotstack: status: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return StatusResult{}, fmt.Errorf("shotstack: read status: %w", err)
	}
	if resp.StatusCode >= 300 {
		return StatusResult{}, fmt.Errorf("shotstack: status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	var out statusResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return StatusResult{}, fmt.Errorf("shotstack: decode status: %w", err)
	}
	return StatusResult{
		Status: RenderStatus(out.Response.Status),
		URL:    out.Response.URL,
		Error:  out.Response.Error,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ VideoRenderer = (*ShotstackClient)(nil)
