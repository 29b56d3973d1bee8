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

	"dreamapp/internal/domain"
)

const (
	templateDefaultBaseURL = "https://rest.apitemplate.io/v2"
	templateDefaultTimeout = 45 * time.Second
)

// TemplateFiller fills an externally hosted design template and returns the
// rendered image URL.
type TemplateFiller interface {
	Fill(ctx context.Context, templateID string, option domain.CreativeOption, business *domain.Business, imageURL string) (string, error)
}

// TemplateOptions configures the template-fill client.
type TemplateOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// TemplateClient is the external template-fill service client. It is an
// optional integration: a missing key simply routes posts to the native
// parametric renderer.
type TemplateClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewTemplateClient constructs the client; returns nil (not an error) when
// no API key is configured, so callers can nil-check the integration.
func NewTemplateClient(opts TemplateOptions) *TemplateClient {
	if opts.APIKey == "" {
		return nil
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = templateDefaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: templateDefaultTimeout}
	}
	return &TemplateClient{apiKey: opts.APIKey, baseURL: baseURL, httpClient: client}
}

type templateOverride struct {
	Name string `json:"name"`
	Text string `json:"text,omitempty"`
	Src  string `json:"src,omitempty"`
}

type templateRequest struct {
	Overrides []templateOverride `json:"overrides"`
}

type templateResponse struct {
	Status        string `json:"status"`
	DownloadURL   string `json:"download_url"`
	TransactionID string `json:"transaction_id"`
	TemplateID    string `json:"template_id"`
}

// Fill renders the template with the option's copy and brand assets.
func (c *TemplateClient) Fill(ctx context.Context, templateID string, option domain.CreativeOption, business *domain.Business, imageURL string) (string, error) {
	if c == nil {
		return "", errors.New("template: client not configured")
	}
	payload := templateRequest{Overrides: []templateOverride{
		{Name: "headline", Text: SanitizeText(option.Hook, 80)},
		{Name: "subheadline", Text: SanitizeText(option.Caption, 160)},
		{Name: "business", Text: SanitizeText(business.Name, 40)},
		{Name: "photo", Src: imageURL},
	}}
	if business.LogoURL != "" {
		payload.Overrides = append(payload.Overrides, templateOverride{Name: "logo", Src: business.LogoURL})
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("template: encode request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/create-image?template_id=%s&output_format=jpeg&expiration=0", c.baseURL, templateID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("template: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("template: fill: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("template: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("template: status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	var out templateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("template: decode response: %w", err)
	}
	if !strings.EqualFold(out.Status, "success") || out.DownloadURL == "" {
		return "", fmt.Errorf("template: fill rejected (status %q)", out.Status)
	}
	return out.DownloadURL, nil
}

var _ TemplateFiller = (*TemplateClient)(nil)
