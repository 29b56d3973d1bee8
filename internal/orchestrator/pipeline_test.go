package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"dreamapp/internal/creative"
	"dreamapp/internal/domain"
	"dreamapp/internal/render"
	"dreamapp/internal/trace"
	"dreamapp/internal/trends"
	"dreamapp/internal/vision"
)

type memBusinesses struct {
	items map[string]*domain.Business
}

func (m *memBusinesses) GetByID(_ context.Context, id string) (*domain.Business, error) {
	b, ok := m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

type memMedia struct {
	items     []domain.MediaItem
	processed []string
}

func (m *memMedia) Create(_ context.Context, item *domain.MediaItem) error {
	m.items = append(m.items, *item)
	return nil
}

func (m *memMedia) ListUnprocessed(context.Context, string) ([]domain.MediaItem, error) {
	return m.items, nil
}

func (m *memMedia) MarkProcessed(_ context.Context, ids []string) error {
	m.processed = append(m.processed, ids...)
	return nil
}

type memArtifacts struct {
	mu    sync.Mutex
	items map[string]*domain.Artifact
}

func newMemArtifacts() *memArtifacts {
	return &memArtifacts{items: make(map[string]*domain.Artifact)}
}

func (m *memArtifacts) Create(_ context.Context, artifact *domain.Artifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *artifact
	m.items[artifact.ID] = &stored
	return nil
}

func (m *memArtifacts) GetByID(_ context.Context, id string) (*domain.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *memArtifacts) ListByBusiness(context.Context, string, int) ([]domain.Artifact, error) {
	return nil, nil
}

func (m *memArtifacts) UpdateState(_ context.Context, id string, state domain.ArtifactState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.State = state
	return nil
}

func (m *memArtifacts) SetFeedback(_ context.Context, id string, score float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.Feedback = &score
	return nil
}

func (m *memArtifacts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

func (m *memArtifacts) ListStalePending(context.Context, time.Time, int) ([]domain.Artifact, error) {
	return nil, nil
}

type fakeSummarizer struct {
	calls  int
	report vision.Report
}

func (f *fakeSummarizer) Summarize(context.Context, []string) vision.Report {
	f.calls++
	return f.report
}

type fakeGenerator struct {
	options []domain.CreativeOption
	err     error
}

func (f *fakeGenerator) Generate(_ context.Context, in creative.GenerateInput) (creative.GenerateResult, error) {
	if f.err != nil {
		return creative.GenerateResult{}, f.err
	}
	return creative.GenerateResult{Options: f.options, Mode: creative.FullVision, TraceID: in.TraceID}, nil
}

type fakeDispatcher struct {
	mu       sync.Mutex
	calls    int
	outcomes []render.Outcome
	err      error
}

func (f *fakeDispatcher) Render(_ context.Context, _ domain.ArtifactType, _ *domain.CreativeOption, _ []domain.MediaItem, _ *domain.Business, _ string) (render.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.calls
	f.calls++
	if f.err != nil {
		return render.Outcome{}, f.err
	}
	if idx >= len(f.outcomes) {
		idx = len(f.outcomes) - 1
	}
	return f.outcomes[idx], nil
}

type fakeTrends struct{}

func (fakeTrends) Region(string, string) string { return trends.DefaultRegion }

func (fakeTrends) TrendingAudio(string, []string) []string { return []string{"Song A", "Song B"} }

func (fakeTrends) RecentMemory(context.Context, string) trends.Memory { return trends.Memory{} }

func testPipeline(businesses *memBusinesses, media *memMedia, artifacts *memArtifacts, summarizer *fakeSummarizer, generator *fakeGenerator, dispatcher *fakeDispatcher) *Pipeline {
	return NewPipeline(Options{
		Businesses: businesses,
		Media:      media,
		Artifacts:  artifacts,
		Summarizer: summarizer,
		Generator:  generator,
		Dispatcher: dispatcher,
		Trends:     fakeTrends{},
		Recorder:   trace.NewRecorder(nil, zerolog.Nop()),
		Logger:     zerolog.Nop(),
	})
}

func threeOptions() []domain.CreativeOption {
	out := make([]domain.CreativeOption, 3)
	for i := range out {
		out[i] = domain.CreativeOption{Hook: fmt.Sprintf("hook %d", i)}
	}
	return out
}

func TestGenerateReelCreatesPendingArtifacts(t *testing.T) {
	businesses := &memBusinesses{items: map[string]*domain.Business{"biz-1": {ID: "biz-1", Name: "Sole"}}}
	media := &memMedia{items: []domain.MediaItem{
		{ID: "m1", URL: "http://cdn/1.jpg"},
		{ID: "m2", URL: "http://cdn/2.jpg"},
	}}
	artifacts := newMemArtifacts()
	summarizer := &fakeSummarizer{report: vision.Report{Text: strings.Repeat("vivid plates. ", 20)}}
	dispatcher := &fakeDispatcher{outcomes: []render.Outcome{
		{Handle: "h1"}, {Handle: "h2"}, {Handle: "h3"},
	}}
	p := testPipeline(businesses, media, artifacts, summarizer, &fakeGenerator{options: threeOptions()}, dispatcher)

	created, err := p.Generate(context.Background(), GenerateRequest{BusinessID: "biz-1", Type: domain.ArtifactTypeReel})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(created) != 3 {
		t.Fatalf("artifacts = %d, want 3", len(created))
	}
	if summarizer.calls != 1 {
		t.Fatalf("summarizer calls = %d, want 1", summarizer.calls)
	}
	for _, a := range created {
		if a.State.Status != domain.StatusPending {
			t.Fatalf("artifact state = %q, want pending", a.State.Status)
		}
		if domain.IsInitHandle(a.State.Handle) {
			t.Fatalf("init handle survived dispatch: %q", a.State.Handle)
		}
		if a.TraceID == "" {
			t.Fatalf("artifact missing trace id")
		}
	}
	if len(media.processed) != 2 {
		t.Fatalf("processed media = %v, want both items consumed", media.processed)
	}
}

func TestGenerateReelWithoutMedia(t *testing.T) {
	businesses := &memBusinesses{items: map[string]*domain.Business{"biz-1": {ID: "biz-1"}}}
	p := testPipeline(businesses, &memMedia{}, newMemArtifacts(), &fakeSummarizer{}, &fakeGenerator{options: threeOptions()}, &fakeDispatcher{})

	_, err := p.Generate(context.Background(), GenerateRequest{BusinessID: "biz-1", Type: domain.ArtifactTypeReel})
	if !errors.Is(err, domain.ErrNoMedia) {
		t.Fatalf("err = %v, want no-media", err)
	}
}

func TestGeneratePostWithoutMediaSkipsSummarizer(t *testing.T) {
	businesses := &memBusinesses{items: map[string]*domain.Business{"biz-1": {ID: "biz-1"}}}
	artifacts := newMemArtifacts()
	summarizer := &fakeSummarizer{report: vision.Report{Text: "unused"}}
	dispatcher := &fakeDispatcher{outcomes: []render.Outcome{{FinalURL: "http://cdn/post.jpg"}}}
	p := testPipeline(businesses, &memMedia{}, artifacts, summarizer, &fakeGenerator{options: threeOptions()[:1]}, dispatcher)

	created, err := p.Generate(context.Background(), GenerateRequest{BusinessID: "biz-1", Type: domain.ArtifactTypePost})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if summarizer.calls != 0 {
		t.Fatalf("summarizer must not run on an empty batch")
	}
	if len(created) != 1 {
		t.Fatalf("artifacts = %d, want 1", len(created))
	}
	if created[0].State.Status != domain.StatusReady || created[0].State.URL != "http://cdn/post.jpg" {
		t.Fatalf("state = %+v, want ready with final url", created[0].State)
	}
}

func TestGenerateAbsorbsRenderFailures(t *testing.T) {
	businesses := &memBusinesses{items: map[string]*domain.Business{"biz-1": {ID: "biz-1"}}}
	media := &memMedia{items: []domain.MediaItem{{ID: "m1", URL: "http://cdn/1.jpg"}}}
	artifacts := newMemArtifacts()
	summarizer := &fakeSummarizer{report: vision.Report{Text: "rich"}}
	dispatcher := &fakeDispatcher{err: errors.New("queue unreachable")}
	p := testPipeline(businesses, media, artifacts, summarizer, &fakeGenerator{options: threeOptions()}, dispatcher)

	created, err := p.Generate(context.Background(), GenerateRequest{BusinessID: "biz-1", Type: domain.ArtifactTypeReel})
	if err != nil {
		t.Fatalf("render failures must not fail the request: %v", err)
	}
	for _, a := range created {
		if a.State.Status != domain.StatusFailed {
			t.Fatalf("state = %q, want failed", a.State.Status)
		}
		if a.State.Reason == "" {
			t.Fatalf("failed state missing reason")
		}
	}
	// Media stays consumed even though every render failed.
	if len(media.processed) != 1 {
		t.Fatalf("processed media = %v", media.processed)
	}
}

func TestGenerateUnknownBusiness(t *testing.T) {
	p := testPipeline(&memBusinesses{items: map[string]*domain.Business{}}, &memMedia{}, newMemArtifacts(), &fakeSummarizer{}, &fakeGenerator{}, &fakeDispatcher{})
	_, err := p.Generate(context.Background(), GenerateRequest{BusinessID: "missing", Type: domain.ArtifactTypeReel})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want not-found", err)
	}
}
