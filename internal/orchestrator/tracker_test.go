package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"dreamapp/internal/domain"
	"dreamapp/internal/render"
)

type fakeStatusVideo struct {
	calls  int
	result render.StatusResult
	err    error
}

func (f *fakeStatusVideo) Submit(context.Context, render.Timeline, render.Output) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeStatusVideo) Status(context.Context, string) (render.StatusResult, error) {
	f.calls++
	return f.result, f.err
}

func seedArtifact(t *testing.T, artifacts *memArtifacts, state domain.ArtifactState) string {
	t.Helper()
	artifact := &domain.Artifact{
		ID:         "art-1",
		BusinessID: "biz-1",
		Type:       domain.ArtifactTypeReel,
		State:      state,
	}
	if err := artifacts.Create(context.Background(), artifact); err != nil {
		t.Fatalf("seed artifact: %v", err)
	}
	return artifact.ID
}

func TestPollInitHandleNeverHitsRenderQueue(t *testing.T) {
	artifacts := newMemArtifacts()
	id := seedArtifact(t, artifacts, domain.PendingState("init-9f2c"))
	video := &fakeStatusVideo{result: render.StatusResult{Status: render.RenderDone, URL: "http://cdn/x.mp4"}}
	tracker := NewTracker(artifacts, video, zerolog.Nop())

	result, err := tracker.Poll(context.Background(), id, "init-9f2c")
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if result.Status != PollProcessing {
		t.Fatalf("status = %q, want processing", result.Status)
	}
	if video.calls != 0 {
		t.Fatalf("render queue polled %d times for an init handle", video.calls)
	}
}

func TestPollTerminalArtifactAnswersFromState(t *testing.T) {
	artifacts := newMemArtifacts()
	id := seedArtifact(t, artifacts, domain.ReadyState("http://cdn/final.mp4"))
	video := &fakeStatusVideo{err: errors.New("must not be called")}
	tracker := NewTracker(artifacts, video, zerolog.Nop())

	result, err := tracker.Poll(context.Background(), id, "real-handle")
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if result.Status != PollDone || result.URL != "http://cdn/final.mp4" {
		t.Fatalf("result = %+v", result)
	}
	if video.calls != 0 {
		t.Fatalf("terminal artifact must not reach the queue")
	}
}

func TestPollDoneTransitionsArtifact(t *testing.T) {
	artifacts := newMemArtifacts()
	id := seedArtifact(t, artifacts, domain.PendingState("real-handle"))
	video := &fakeStatusVideo{result: render.StatusResult{Status: render.RenderDone, URL: "http://cdn/done.mp4"}}
	tracker := NewTracker(artifacts, video, zerolog.Nop())

	result, err := tracker.Poll(context.Background(), id, "real-handle")
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if result.Status != PollDone || result.URL != "http://cdn/done.mp4" {
		t.Fatalf("result = %+v", result)
	}
	stored, err := artifacts.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.State.Status != domain.StatusReady || stored.State.URL != "http://cdn/done.mp4" {
		t.Fatalf("stored state = %+v, want ready", stored.State)
	}
}

func TestPollFailureTransitionsArtifact(t *testing.T) {
	artifacts := newMemArtifacts()
	id := seedArtifact(t, artifacts, domain.PendingState("real-handle"))
	video := &fakeStatusVideo{result: render.StatusResult{Status: render.RenderFailed, Error: "codec exploded"}}
	tracker := NewTracker(artifacts, video, zerolog.Nop())

	result, err := tracker.Poll(context.Background(), id, "real-handle")
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if result.Status != PollFailed || result.Error != "codec exploded" {
		t.Fatalf("result = %+v", result)
	}
	stored, _ := artifacts.GetByID(context.Background(), id)
	if stored.State.Status != domain.StatusFailed {
		t.Fatalf("stored state = %+v, want failed", stored.State)
	}
}

func TestPollStillRenderingIsIdempotent(t *testing.T) {
	artifacts := newMemArtifacts()
	id := seedArtifact(t, artifacts, domain.PendingState("real-handle"))
	video := &fakeStatusVideo{result: render.StatusResult{Status: render.RenderRendering}}
	tracker := NewTracker(artifacts, video, zerolog.Nop())

	for i := 0; i < 3; i++ {
		result, err := tracker.Poll(context.Background(), id, "real-handle")
		if err != nil {
			t.Fatalf("Poll %d: %v", i, err)
		}
		if result.Status != PollProcessing {
			t.Fatalf("status = %q, want processing", result.Status)
		}
	}
	stored, _ := artifacts.GetByID(context.Background(), id)
	if stored.State.Status != domain.StatusPending || stored.State.Handle != "real-handle" {
		t.Fatalf("pending state mutated: %+v", stored.State)
	}
}

func TestPollQueueErrorKeepsProcessing(t *testing.T) {
	artifacts := newMemArtifacts()
	id := seedArtifact(t, artifacts, domain.PendingState("real-handle"))
	video := &fakeStatusVideo{err: errors.New("queue timeout")}
	tracker := NewTracker(artifacts, video, zerolog.Nop())

	result, err := tracker.Poll(context.Background(), id, "real-handle")
	if err != nil {
		t.Fatalf("queue errors must not surface: %v", err)
	}
	if result.Status != PollProcessing {
		t.Fatalf("status = %q, want processing", result.Status)
	}
}

func TestPollUnknownArtifact(t *testing.T) {
	tracker := NewTracker(newMemArtifacts(), nil, zerolog.Nop())
	_, err := tracker.Poll(context.Background(), "missing", "handle")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want not-found", err)
	}
}
