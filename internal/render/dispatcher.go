// Package render routes accepted creative options to the right backend: the
// asynchronous video render queue for reels, or the template/parametric
// image path for static posts, including the bounded critique loop.
package render

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"dreamapp/internal/creative"
	"dreamapp/internal/domain"
)

// MaxMediaPerRender caps how many media items feed a single render.
const MaxMediaPerRender = 10

// illustrationBaseURL is the text-to-image fallback used when a post has no
// customer media at all.
const illustrationBaseURL = "https://image.pollinations.ai/prompt/"

// CritiquePolicy makes the critique loop's bound and fail-open behavior an
// explicit, named configuration value.
type CritiquePolicy struct {
	// MaxAttempts counts render attempts (first render + re-renders).
	MaxAttempts int
	// FailOpen accepts the last render when attempts are exhausted.
	FailOpen bool
}

// DefaultCritiquePolicy is three attempts, then accept the last render.
var DefaultCritiquePolicy = CritiquePolicy{MaxAttempts: 3, FailOpen: true}

// Outcome is the dispatch result. Exactly one of Handle (asynchronous reel
// render, poll for completion) or FinalURL (synchronous post render) is set.
type Outcome struct {
	Handle   string
	FinalURL string
}

// Dispatcher routes options to render backends.
type Dispatcher struct {
	video     VideoRenderer
	templates TemplateFiller
	poster    PosterRenderer
	audio     AudioResolver
	critic    *creative.Critic
	corrector *creative.Corrector
	policy    CritiquePolicy
	logger    zerolog.Logger
}

// DispatcherOptions wires the dispatcher's backends.
type DispatcherOptions struct {
	Video     VideoRenderer
	Templates TemplateFiller
	Poster    PosterRenderer
	Audio     AudioResolver
	Critic    *creative.Critic
	Corrector *creative.Corrector
	Policy    CritiquePolicy
	Logger    zerolog.Logger
}

// NewDispatcher constructs a Dispatcher. A zero policy falls back to
// DefaultCritiquePolicy.
func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	policy := opts.Policy
	if policy.MaxAttempts <= 0 {
		policy = DefaultCritiquePolicy
	}
	return &Dispatcher{
		video:     opts.Video,
		templates: opts.Templates,
		poster:    opts.Poster,
		audio:     opts.Audio,
		critic:    opts.Critic,
		corrector: opts.Corrector,
		policy:    policy,
		logger:    opts.Logger,
	}
}

// Render dispatches one creative option. Reels return an opaque handle;
// posts return a final URL.
func (d *Dispatcher) Render(ctx context.Context, artifactType domain.ArtifactType, option *domain.CreativeOption, media []domain.MediaItem, business *domain.Business, traceID string) (Outcome, error) {
	switch artifactType {
	case domain.ArtifactTypeReel:
		handle, err := d.renderReel(ctx, option, media)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Handle: handle}, nil
	case domain.ArtifactTypePost:
		finalURL, err := d.renderPostWithCritique(ctx, option, media, business, traceID)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{FinalURL: finalURL}, nil
	default:
		return Outcome{}, fmt.Errorf("render: unsupported artifact type %q", artifactType)
	}
}

func (d *Dispatcher) renderReel(ctx context.Context, option *domain.CreativeOption, media []domain.MediaItem) (string, error) {
	if d.video == nil {
		return "", errors.New("render: video renderer not configured")
	}
	urls := SelectMediaURLs(media, option.SkipIndices)
	if len(urls) == 0 {
		return "", domain.ErrNoMedia
	}

	audioURL := ""
	if d.audio != nil && option.Music.TrendingAudioTip != "" {
		resolved, err := d.audio.Resolve(ctx, option.Music.TrendingAudioTip)
		if err != nil {
			// A reel without a soundtrack still renders.
			d.logger.Warn().Err(err).Str("song", option.Music.TrendingAudioTip).Msg("render: audio resolution failed")
		} else {
			audioURL = resolved
		}
	}

	timeline := BuildReelTimeline(*option, urls, audioURL)
	return d.video.Submit(ctx, timeline, ReelOutput)
}

// renderPostWithCritique runs the static post state machine:
// ATTEMPT -> RENDER -> (has logo?) CRITIQUE : ACCEPT. Exhausted attempts
// accept the last render.
func (d *Dispatcher) renderPostWithCritique(ctx context.Context, option *domain.CreativeOption, media []domain.MediaItem, business *domain.Business, traceID string) (string, error) {
	imageURL := d.postImageURL(option, media)

	var lastURL string
	for attempt := 1; attempt <= d.policy.MaxAttempts; attempt++ {
		rendered, err := d.renderPostOnce(ctx, option, business, imageURL)
		if err != nil {
			if lastURL != "" && d.policy.FailOpen {
				return lastURL, nil
			}
			return "", err
		}
		lastURL = rendered

		if d.critic == nil || business.LogoURL == "" {
			return rendered, nil
		}
		verdict := d.critic.Check(ctx, traceID, rendered, business.LogoURL, business.StyleRefURLs)
		if verdict.Matches {
			return rendered, nil
		}
		if attempt == d.policy.MaxAttempts {
			break
		}
		if d.corrector != nil {
			d.corrector.Correct(ctx, traceID, option, verdict)
		}
	}

	if !d.policy.FailOpen {
		return "", domain.ErrRenderFailure
	}
	d.logger.Info().Str("trace_id", traceID).Msg("render: critique attempts exhausted, accepting last render")
	return lastURL, nil
}

// renderPostOnce prefers the external template service when the option
// carries a hint and the integration is configured, falling back to the
// native parametric renderer.
func (d *Dispatcher) renderPostOnce(ctx context.Context, option *domain.CreativeOption, business *domain.Business, imageURL string) (string, error) {
	if d.templates != nil && option.TemplateHint != "" {
		rendered, err := d.templates.Fill(ctx, option.TemplateHint, *option, business, imageURL)
		if err == nil {
			return rendered, nil
		}
		d.logger.Warn().Err(err).Str("template", option.TemplateHint).Msg("render: template fill failed, using native renderer")
	}
	if d.poster == nil {
		return "", errors.New("render: poster renderer not configured")
	}
	return d.poster.Render(ctx, *option, business, imageURL)
}

// postImageURL picks the visual for a static post: the first surviving
// media item, or a generated illustration when the batch is empty.
func (d *Dispatcher) postImageURL(option *domain.CreativeOption, media []domain.MediaItem) string {
	urls := SelectMediaURLs(media, option.SkipIndices)
	if len(urls) > 0 {
		return urls[0]
	}
	subject := strings.TrimSpace(option.Illustration)
	if subject == "" {
		subject = option.Hook
	}
	return illustrationBaseURL + url.PathEscape(subject)
}

// SelectMediaURLs applies the option's skip list and the per-render cap.
// When skipping would leave zero items the skip list is ignored entirely so
// something always renders.
func SelectMediaURLs(media []domain.MediaItem, skipIndices []int) []string {
	skip := make(map[int]struct{}, len(skipIndices))
	for _, idx := range skipIndices {
		skip[idx] = struct{}{}
	}

	kept := make([]string, 0, len(media))
	for i, item := range media {
		if _, skipped := skip[i]; skipped {
			continue
		}
		kept = append(kept, item.URL)
	}
	if len(kept) == 0 {
		kept = kept[:0]
		for _, item := range media {
			kept = append(kept, item.URL)
		}
	}
	if len(kept) > MaxMediaPerRender {
		kept = kept[:MaxMediaPerRender]
	}
	return kept
}
