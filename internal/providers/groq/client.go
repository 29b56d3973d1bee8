package groq

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
	defaultBaseURL = "https://api.groq.com/openai/v1"
	defaultModel   = "llama-3.3-70b-versatile"
	defaultTimeout = 60 * time.Second

	// ProviderName identifies this client in fallback chains and traces.
	ProviderName = "groq"
)

// Options controls how the Groq client is configured. The API is
// OpenAI-compatible, so BaseURL may point at any compatible endpoint.
type Options struct {
	APIKey      string
	Model       string
	VisionModel string
	BaseURL     string
	HTTPClient  *http.Client
}

// Client wraps the Groq chat-completions API. It serves as the secondary
// tier in both the LLM and the vision fallback chains.
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
		return nil, errors.New("groq api key is required")
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

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends a text-only prompt, optionally demanding a JSON object body.
func (c *Client) Complete(ctx context.Context, prompt string, temperature float64, jsonMode bool) (string, error) {
	req := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
	}
	if jsonMode {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	return c.chat(ctx, req)
}

// DescribeImageURL sends the prompt plus a single image URL to the vision
// model. Groq's vision tier accepts remote URLs, which keeps this fallback
// path cheap: no bytes need to be re-uploaded.
func (c *Client) DescribeImageURL(ctx context.Context, prompt, imgURL string) (string, error) {
	if imgURL == "" {
		return "", errors.New("groq: image url is required")
	}
	req := chatRequest{
		Model: c.visionModel,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: imgURL}},
			},
		}},
		Temperature: 0.4,
	}
	return c.chat(ctx, req)
}

func (c *Client) chat(ctx context.Context, payload chatRequest) (string, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("groq: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", &buf)
	if err != nil {
		return "", fmt.Errorf("groq: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("groq: http request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("groq: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("groq: status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("groq: decode response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("groq: api error %s: %s", out.Error.Type, out.Error.Message)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", errors.New("groq: empty completion")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
