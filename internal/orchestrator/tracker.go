package orchestrator

import (
	"context"

	"github.com/rs/zerolog"

	"dreamapp/internal/domain"
	"dreamapp/internal/render"
)

// PollStatus is the tracker's client-facing status value.
type PollStatus string

const (
	PollProcessing PollStatus = "processing"
	PollDone       PollStatus = "done"
	PollFailed     PollStatus = "failed"
)

// PollResult is the outcome of one status poll.
type PollResult struct {
	Status PollStatus `json:"status"`
	URL    string     `json:"url,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// Tracker resolves render handles to terminal artifact states. It is shared
// by the status-poll HTTP handler and the worker reconciler, so the
// transition semantics live in exactly one place.
type Tracker struct {
	artifacts domain.ArtifactRepository
	video     render.VideoRenderer
	logger    zerolog.Logger
}

// NewTracker constructs a Tracker. video may be nil when no render queue is
// configured; dispatched handles then stay processing until the queue comes
// back.
func NewTracker(artifacts domain.ArtifactRepository, video render.VideoRenderer, logger zerolog.Logger) *Tracker {
	return &Tracker{artifacts: artifacts, video: video, logger: logger}
}

// Poll resolves the (artifact, handle) pair. Handles with the init prefix
// never reach the external render service: no real render has been
// dispatched yet, so the artifact's own persisted state answers. Polling a
// still-pending handle is idempotent and mutates nothing.
func (t *Tracker) Poll(ctx context.Context, artifactID, renderHandle string) (PollResult, error) {
	artifact, err := t.artifacts.GetByID(ctx, artifactID)
	if err != nil {
		return PollResult{}, err
	}

	// The artifact may already be terminal (post renders are synchronous,
	// and a competing poll may have finished the transition first).
	switch artifact.State.Status {
	case domain.StatusReady:
		return PollResult{Status: PollDone, URL: artifact.State.URL}, nil
	case domain.StatusFailed:
		return PollResult{Status: PollFailed, Error: artifact.State.Reason}, nil
	case domain.StatusScheduled, domain.StatusDiscarded:
		return PollResult{Status: PollDone, URL: artifact.State.URL}, nil
	}

	if domain.IsInitHandle(renderHandle) {
		// Still preparing: the real render call has not returned a handle.
		return PollResult{Status: PollProcessing}, nil
	}
	if t.video == nil {
		return PollResult{Status: PollProcessing}, nil
	}

	status, err := t.video.Status(ctx, renderHandle)
	if err != nil {
		// Transient queue errors keep the artifact pending; the next poll
		// retries.
		t.logger.Warn().Err(err).Str("handle", renderHandle).Msg("tracker: status poll failed")
		return PollResult{Status: PollProcessing}, nil
	}

	switch status.Status {
	case render.RenderDone:
		if err := t.artifacts.UpdateState(ctx, artifactID, domain.ReadyState(status.URL)); err != nil {
			return PollResult{}, err
		}
		return PollResult{Status: PollDone, URL: status.URL}, nil
	case render.RenderFailed:
		reason := status.Error
		if reason == "" {
			reason = "render failed"
		}
		failed := domain.FailedState(reason)
		if err := t.artifacts.UpdateState(ctx, artifactID, failed); err != nil {
			return PollResult{}, err
		}
		return PollResult{Status: PollFailed, Error: failed.Reason}, nil
	default:
		return PollResult{Status: PollProcessing}, nil
	}
}
