// Package orchestrator ties the generation stages together: vision
// summarization, option generation behind the diversity gate, media
// consumption, and the concurrent per-option render dispatch. All helper
// failures are absorbed into terminal artifact states here; nothing past
// artifact creation propagates an error to the HTTP boundary.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"dreamapp/internal/creative"
	"dreamapp/internal/domain"
	"dreamapp/internal/render"
	"dreamapp/internal/trace"
	"dreamapp/internal/trends"
	"dreamapp/internal/vision"
)

// MediaSummarizer is the vision stage contract.
type MediaSummarizer interface {
	Summarize(ctx context.Context, mediaURLs []string) vision.Report
}

// OptionGenerator is the creative stage contract.
type OptionGenerator interface {
	Generate(ctx context.Context, in creative.GenerateInput) (creative.GenerateResult, error)
}

// OptionRenderer is the dispatch stage contract.
type OptionRenderer interface {
	Render(ctx context.Context, artifactType domain.ArtifactType, option *domain.CreativeOption, media []domain.MediaItem, business *domain.Business, traceID string) (render.Outcome, error)
}

// TrendSource supplies the regional chart and recent history.
type TrendSource interface {
	Region(businessRegion, requesterIP string) string
	TrendingAudio(region string, usedSongs []string) []string
	RecentMemory(ctx context.Context, businessID string) trends.Memory
}

// Pipeline executes one generation request end to end.
type Pipeline struct {
	businesses domain.BusinessRepository
	media      domain.MediaRepository
	artifacts  domain.ArtifactRepository
	summarizer MediaSummarizer
	generator  OptionGenerator
	dispatcher OptionRenderer
	trends     TrendSource
	recorder   *trace.Recorder
	logger     zerolog.Logger
}

// Options wires the pipeline's collaborators.
type Options struct {
	Businesses domain.BusinessRepository
	Media      domain.MediaRepository
	Artifacts  domain.ArtifactRepository
	Summarizer MediaSummarizer
	Generator  OptionGenerator
	Dispatcher OptionRenderer
	Trends     TrendSource
	Recorder   *trace.Recorder
	Logger     zerolog.Logger
}

// NewPipeline constructs a Pipeline.
func NewPipeline(opts Options) *Pipeline {
	return &Pipeline{
		businesses: opts.Businesses,
		media:      opts.Media,
		artifacts:  opts.Artifacts,
		summarizer: opts.Summarizer,
		generator:  opts.Generator,
		dispatcher: opts.Dispatcher,
		trends:     opts.Trends,
		recorder:   opts.Recorder,
		logger:     opts.Logger,
	}
}

// GenerateRequest is one generation trigger.
type GenerateRequest struct {
	BusinessID   string
	Type         domain.ArtifactType
	CampaignGoal string
	RequesterIP  string
}

// Generate runs the full pipeline and returns the created artifacts, each
// initially pending:init-* (reels) or already terminal (posts). Errors are
// only returned for failures before any artifact record exists.
func (p *Pipeline) Generate(ctx context.Context, req GenerateRequest) ([]domain.Artifact, error) {
	business, err := p.businesses.GetByID(ctx, req.BusinessID)
	if err != nil {
		return nil, fmt.Errorf("load business: %w", err)
	}

	media, err := p.media.ListUnprocessed(ctx, req.BusinessID)
	if err != nil {
		return nil, fmt.Errorf("load media: %w", err)
	}
	// A reel cannot exist without footage; a post falls back to an
	// illustration and skips the summarizer entirely.
	if req.Type == domain.ArtifactTypeReel && len(media) == 0 {
		return nil, domain.ErrNoMedia
	}

	report := vision.Report{Text: vision.FailureSentinel}
	if len(media) > 0 {
		urls := make([]string, 0, len(media))
		for _, item := range media {
			urls = append(urls, item.URL)
		}
		report = p.summarizer.Summarize(ctx, urls)
	}

	traceID := uuid.NewString()
	region := p.trends.Region(business.Region, req.RequesterIP)
	memory := p.trends.RecentMemory(ctx, req.BusinessID)
	trending := p.trends.TrendingAudio(region, memory.UsedSongs)

	result, err := p.generator.Generate(ctx, creative.GenerateInput{
		Business:     business,
		Report:       report,
		Type:         req.Type,
		CampaignGoal: req.CampaignGoal,
		Trending:     trending,
		Memory:       memory,
		TraceID:      traceID,
	})
	if err != nil {
		return nil, fmt.Errorf("generate options: %w", err)
	}

	// The batch is consumed exactly once: marked processed after option
	// generation succeeds and before any render starts. A render failure
	// later does not return these items to the unprocessed pool.
	mediaIDs := make([]string, 0, len(media))
	for _, item := range media {
		mediaIDs = append(mediaIDs, item.ID)
	}
	if err := p.media.MarkProcessed(ctx, mediaIDs); err != nil {
		return nil, fmt.Errorf("mark media processed: %w", err)
	}

	artifacts := make([]domain.Artifact, len(result.Options))
	for i := range result.Options {
		artifact := domain.Artifact{
			ID:         uuid.NewString(),
			BusinessID: business.ID,
			Type:       req.Type,
			State:      domain.PendingState(domain.InitHandlePrefix + "-" + uuid.NewString()),
			MediaIDs:   mediaIDs,
			TraceID:    traceID,
		}
		if err := p.artifacts.Create(ctx, &artifact); err != nil {
			return nil, fmt.Errorf("create artifact: %w", err)
		}
		artifacts[i] = artifact
	}

	// Independent per-option pipelines run concurrently; each absorbs its
	// own failure into the artifact's terminal state.
	g, gctx := errgroup.WithContext(ctx)
	for i := range result.Options {
		option := &result.Options[i]
		artifact := &artifacts[i]
		g.Go(func() error {
			p.renderOption(gctx, req.Type, option, media, business, artifact)
			return nil
		})
	}
	_ = g.Wait()

	p.recorder.Flush(ctx, traceID)
	return artifacts, nil
}

func (p *Pipeline) renderOption(ctx context.Context, artifactType domain.ArtifactType, option *domain.CreativeOption, media []domain.MediaItem, business *domain.Business, artifact *domain.Artifact) {
	outcome, err := p.dispatcher.Render(ctx, artifactType, option, media, business, artifact.TraceID)
	if err != nil {
		p.logger.Error().Err(err).Str("artifact_id", artifact.ID).Msg("pipeline: render dispatch failed")
		p.setState(ctx, artifact, domain.FailedState(err.Error()))
		return
	}
	switch {
	case outcome.FinalURL != "":
		p.setState(ctx, artifact, domain.ReadyState(outcome.FinalURL))
	case outcome.Handle != "":
		p.setState(ctx, artifact, domain.PendingState(outcome.Handle))
	default:
		p.setState(ctx, artifact, domain.FailedState("render produced no handle or url"))
	}
}

func (p *Pipeline) setState(ctx context.Context, artifact *domain.Artifact, state domain.ArtifactState) {
	if err := p.artifacts.UpdateState(ctx, artifact.ID, state); err != nil {
		p.logger.Error().Err(err).Str("artifact_id", artifact.ID).Msg("pipeline: state update failed")
		return
	}
	artifact.State = state
}
