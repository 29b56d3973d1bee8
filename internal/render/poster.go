package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"dreamapp/internal/domain"
	"dreamapp/internal/storage"
)

const posterDefaultTimeout = 30 * time.Second

// PosterRenderer produces a static branded image synchronously and returns
// its persisted URL.
type PosterRenderer interface {
	Render(ctx context.Context, option domain.CreativeOption, business *domain.Business, imageURL string) (string, error)
}

// PosterOptions configures the native parametric renderer client.
type PosterOptions struct {
	EndpointURL string
	HTTPClient  *http.Client
	Store       storage.Store
}

// PosterClient hits the internal parametric image-generation endpoint and
// uploads the resulting bytes to persistent storage.
type PosterClient struct {
	endpoint   string
	httpClient *http.Client
	store      storage.Store
}

// NewPosterClient constructs the client.
func NewPosterClient(opts PosterOptions) (*PosterClient, error) {
	if opts.EndpointURL == "" {
		return nil, errors.New("poster: endpoint url is required")
	}
	if opts.Store == nil {
		return nil, errors.New("poster: storage is required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: posterDefaultTimeout}
	}
	return &PosterClient{endpoint: opts.EndpointURL, httpClient: client, store: opts.Store}, nil
}

// Render builds the parametric query, fetches the rendered image bytes, and
// persists them, returning the final stable URL.
func (c *PosterClient) Render(ctx context.Context, option domain.CreativeOption, business *domain.Business, imageURL string) (string, error) {
	q := url.Values{}
	q.Set("headline", SanitizeText(option.Hook, 80))
	q.Set("subheadline", SanitizeText(option.Caption, 160))
	q.Set("cta", SanitizeText(callToAction(option), 25))
	q.Set("imgUrl", imageURL)
	q.Set("primaryColor", business.PrimaryColor)
	q.Set("accentColor", business.AccentColor)
	q.Set("businessName", SanitizeText(business.Name, 40))
	q.Set("layout", string(option.Layout))
	q.Set("geometry", string(option.Geometry))
	q.Set("fontFamily", option.Typography.FontFamily)
	if business.LogoURL != "" {
		q.Set("logoUrl", business.LogoURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("poster: build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("poster: render: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("poster: render status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 20<<20))
	if err != nil {
		return "", fmt.Errorf("poster: read image: %w", err)
	}
	if len(data) == 0 {
		return "", errors.New("poster: empty render response")
	}

	key := fmt.Sprintf("posts/%s/%s.jpg", business.ID, uuid.NewString())
	finalURL, err := c.store.Write(ctx, key, data)
	if err != nil {
		return "", fmt.Errorf("poster: persist render: %w", err)
	}
	return finalURL, nil
}

// SanitizeText strips characters the renderer's text-shaping engine cannot
// handle: everything outside printable 7-bit ASCII is dropped, whitespace is
// collapsed, and the result is truncated to maxLen.
func SanitizeText(s string, maxLen int) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= 0x20 && r < 0x7f {
			sb.WriteRune(r)
		} else if r == '\n' || r == '\t' {
			sb.WriteRune(' ')
		}
	}
	out := strings.Join(strings.Fields(sb.String()), " ")
	if len(out) > maxLen {
		out = strings.TrimSpace(out[:maxLen])
	}
	return out
}

func callToAction(option domain.CreativeOption) string {
	switch option.Energy {
	case domain.EnergyHighOctane:
		return "Order now"
	case domain.EnergyChill:
		return "Stop by today"
	default:
		return "Taste it yourself"
	}
}

var _ PosterRenderer = (*PosterClient)(nil)
