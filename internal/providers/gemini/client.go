package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-1.5-flash"
	defaultTimeout = 60 * time.Second

	// ProviderName identifies this client in fallback chains and traces.
	ProviderName = "gemini"
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey      string
	Model       string
	VisionModel string
	BaseURL     string
	HTTPClient  *http.Client
}

// Client is a thin REST facade over the Gemini generateContent API covering
// the two call shapes the pipeline needs: structured-JSON text generation
// and multimodal image analysis.
type Client struct {
	apiKey      string
	model       string
	visionModel string
	baseURL     string
	httpClient  *http.Client
}

// NewClient validates options and constructs a Client.
func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	visionModel := strings.TrimSpace(opts.VisionModel)
	if visionModel == "" {
		visionModel = model
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		apiKey:      opts.APIKey,
		model:       model,
		visionModel: visionModel,
		baseURL:     baseURL,
		httpClient:  client,
	}, nil
}

// Name returns the provider identifier.
func (c *Client) Name() string { return ProviderName }

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	CandidateCount   int     `json:"candidateCount,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends a text-only prompt. When jsonMode is true the API is asked
// for an application/json response body.
func (c *Client) Complete(ctx context.Context, prompt string, temperature float64, jsonMode bool) (string, error) {
	req := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			Temperature:    temperature,
			CandidateCount: 1,
		},
	}
	if jsonMode {
		req.GenerationConfig.ResponseMimeType = "application/json"
	}
	return c.generate(ctx, c.model, req)
}

// ImageInput is one inline image payload for multimodal analysis.
type ImageInput struct {
	MimeType string
	Data     []byte
}

// DescribeImages sends the prompt together with inline image bytes to the
// vision model and returns the raw text answer.
func (c *Client) DescribeImages(ctx context.Context, prompt string, images []ImageInput) (string, error) {
	if len(images) == 0 {
		return "", errors.New("gemini: at least one image is required")
	}
	parts := make([]part, 0, len(images)+1)
	parts = append(parts, part{Text: prompt})
	for _, img := range images {
		mime := img.MimeType
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, part{InlineData: &inlineData{
			MimeType: mime,
			Data:     base64.StdEncoding.EncodeToString(img.Data),
		}})
	}
	req := generateRequest{
		Contents:         []content{{Role: "user", Parts: parts}},
		GenerationConfig: &generationConfig{Temperature: 0.4, CandidateCount: 1},
	}
	return c.generate(ctx, c.visionModel, req)
}

func (c *Client) generate(ctx context.Context, model string, payload generateRequest) (string, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("gemini: encode request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("gemini: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini: http request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("gemini: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("gemini: status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("gemini: api error %d: %s", out.Error.Code, out.Error.Message)
	}
	text := extractText(out)
	if text == "" {
		return "", errors.New("gemini: empty candidate text")
	}
	return text, nil
}

func extractText(resp generateResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			sb.WriteString(p.Text)
		}
		if sb.Len() > 0 {
			break
		}
	}
	return strings.TrimSpace(sb.String())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
