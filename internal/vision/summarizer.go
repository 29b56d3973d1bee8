// Package vision turns a batch of customer media URLs into a short textual
// report the creative generator can prompt against. The summarizer is
// deliberately fail-open: provider errors degrade through a fallback chain
// down to a sentinel string, never to a returned error.
package vision

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"dreamapp/internal/providers/gemini"
	"dreamapp/internal/providers/llm"
)

const (
	// SampleCap bounds how many media items are sent to the vision model.
	SampleCap = 12
	// MaxProbeBytes rejects media larger than 10 MB before fetching.
	MaxProbeBytes = 10 << 20

	// FailureSentinel is the recognizable marker returned when every
	// provider tier failed. Downstream code string-matches on "failed" to
	// switch the generation mode, so the word must stay in the value.
	FailureSentinel = "visual analysis failed"
)

// Report is the summarizer output: an evocative free-text summary plus
// structured per-index hints.
type Report struct {
	Text        string `json:"summary"`
	SkipIndices []int  `json:"skipIndices"`
	TopPicks    []int  `json:"topPicks"`
}

// Failed reports whether the text is the degraded sentinel.
func (r Report) Failed() bool {
	return strings.Contains(strings.ToLower(r.Text), "failed")
}

// PrimaryClient analyzes inline image bytes (Gemini tier).
type PrimaryClient interface {
	DescribeImages(ctx context.Context, prompt string, images []gemini.ImageInput) (string, error)
}

// FallbackClient analyzes a single remote image URL (Groq tier).
type FallbackClient interface {
	DescribeImageURL(ctx context.Context, prompt, imgURL string) (string, error)
}

// Options wires the summarizer's collaborators and timeouts.
type Options struct {
	Primary      PrimaryClient
	Fallback     FallbackClient
	HTTPClient   *http.Client
	ProbeTimeout time.Duration
	FetchTimeout time.Duration
	Logger       zerolog.Logger
	Rand         *rand.Rand
}

// Summarizer samples, fetches, and describes media batches.
type Summarizer struct {
	primary      PrimaryClient
	fallback     FallbackClient
	httpClient   *http.Client
	probeTimeout time.Duration
	fetchTimeout time.Duration
	logger       zerolog.Logger
	rng          *rand.Rand
}

// NewSummarizer constructs a Summarizer, defaulting timeouts into the
// 5-15 second band media probes are expected to stay within.
func NewSummarizer(opts Options) *Summarizer {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	probe := opts.ProbeTimeout
	if probe <= 0 {
		probe = 10 * time.Second
	}
	fetch := opts.FetchTimeout
	if fetch <= 0 {
		fetch = 15 * time.Second
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Summarizer{
		primary:      opts.Primary,
		fallback:     opts.Fallback,
		httpClient:   httpClient,
		probeTimeout: probe,
		fetchTimeout: fetch,
		logger:       opts.Logger,
		rng:          rng,
	}
}

// Summarize produces the visual report for the batch. It never returns an
// error: failures degrade to a Report carrying FailureSentinel.
func (s *Summarizer) Summarize(ctx context.Context, mediaURLs []string) Report {
	if len(mediaURLs) == 0 {
		return Report{Text: FailureSentinel}
	}

	indices := SampleIndices(len(mediaURLs), SampleCap, s.rng)

	type sampled struct {
		index int
		url   string
		data  []byte
		mime  string
	}
	var survivors []sampled
	for _, idx := range indices {
		u := mediaURLs[idx]
		data, mime, err := s.fetchMedia(ctx, u)
		if err != nil {
			// Fail-open: a broken item is dropped from the batch, not fatal.
			s.logger.Debug().Err(err).Str("url", u).Msg("vision: dropping media item")
			continue
		}
		survivors = append(survivors, sampled{index: idx, url: u, data: data, mime: mime})
	}

	if len(survivors) > 0 && s.primary != nil {
		images := make([]gemini.ImageInput, 0, len(survivors))
		var indexList []string
		for _, item := range survivors {
			images = append(images, gemini.ImageInput{MimeType: item.mime, Data: item.data})
			indexList = append(indexList, fmt.Sprintf("%d", item.index))
		}
		text, err := s.primary.DescribeImages(ctx, batchPrompt(indexList), images)
		if err == nil {
			return parseReport(text)
		}
		s.logger.Warn().Err(err).Msg("vision: primary provider failed, trying fallback")
	}

	// Fallback tier: one sample, reduced payload, simplified prompt.
	if s.fallback != nil && len(mediaURLs) > 0 {
		text, err := s.fallback.DescribeImageURL(ctx, singlePrompt, mediaURLs[0])
		if err == nil && strings.TrimSpace(text) != "" {
			return Report{Text: strings.TrimSpace(text)}
		}
		if err != nil {
			s.logger.Warn().Err(err).Msg("vision: fallback provider failed")
		}
	}

	return Report{Text: FailureSentinel}
}

// SampleIndices picks a deterministic-shape representative subset: the
// first, middle, and last indices are always included, and the remaining
// slots up to cap are filled from a shuffle of the rest, de-duplicated.
func SampleIndices(n, limit int, rng *rand.Rand) []int {
	if n <= 0 {
		return nil
	}
	if n <= limit {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}

	picked := map[int]struct{}{0: {}, n / 2: {}, n - 1: {}}
	rest := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if _, ok := picked[i]; !ok {
			rest = append(rest, i)
		}
	}
	rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	for _, idx := range rest {
		if len(picked) >= limit {
			break
		}
		picked[idx] = struct{}{}
	}

	out := make([]int, 0, len(picked))
	for idx := range picked {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// fetchMedia probes the item with a HEAD request (size gate) and then
// downloads the bytes, each under its own timeout.
func (s *Summarizer) fetchMedia(ctx context.Context, mediaURL string) ([]byte, string, error) {
	probeCtx, cancelProbe := context.WithTimeout(ctx, s.probeTimeout)
	defer cancelProbe()
	head, err := http.NewRequestWithContext(probeCtx, http.MethodHead, mediaURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("vision: build probe: %w", err)
	}
	probeResp, err := s.httpClient.Do(head)
	if err != nil {
		return nil, "", fmt.Errorf("vision: probe: %w", err)
	}
	_ = probeResp.Body.Close()
	if probeResp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("vision: probe status %d", probeResp.StatusCode)
	}
	if probeResp.ContentLength > MaxProbeBytes {
		return nil, "", fmt.Errorf("vision: media too large (%d bytes)", probeResp.ContentLength)
	}

	fetchCtx, cancelFetch := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancelFetch()
	get, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("vision: build fetch: %w", err)
	}
	resp, err := s.httpClient.Do(get)
	if err != nil {
		return nil, "", fmt.Errorf("vision: fetch: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("vision: fetch status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxProbeBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("vision: read body: %w", err)
	}
	if len(data) > MaxProbeBytes {
		return nil, "", fmt.Errorf("vision: media exceeded size cap during fetch")
	}
	mime := resp.Header.Get("Content-Type")
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	return data, strings.TrimSpace(mime), nil
}

func batchPrompt(indexList []string) string {
	return fmt.Sprintf(`You are reviewing candidate photos for a restaurant's social media.
The attached images correspond to original batch indices [%s], in order.

Respond with a JSON object:
{"summary": "<one evocative paragraph describing the overall vibe, dishes, colors and mood>",
 "skipIndices": [<indices that are blurry, unappetizing or off-brand>],
 "topPicks": [<the 2-3 strongest indices>]}`, strings.Join(indexList, ", "))
}

const singlePrompt = `Describe this restaurant photo in one evocative paragraph: the dish, the colors, the mood. Plain text only.`

// parseReport decodes the structured batch answer, falling back to treating
// the whole text as the summary when the model ignored the JSON shape.
func parseReport(text string) Report {
	var report Report
	if err := llm.DecodeJSON(text, &report); err == nil && strings.TrimSpace(report.Text) != "" {
		return report
	}
	return Report{Text: strings.TrimSpace(text)}
}
