package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"dreamapp/internal/domain"
	"dreamapp/internal/orchestrator"
	"dreamapp/internal/render"
)

type fakeVideoQueue struct {
	result render.StatusResult
	calls  int
}

func (f *fakeVideoQueue) Submit(context.Context, render.Timeline, render.Output) (string, error) {
	return "", nil
}

func (f *fakeVideoQueue) Status(context.Context, string) (render.StatusResult, error) {
	f.calls++
	return f.result, nil
}

func statusRouter(repo *fakeArtifactRepo, video *fakeVideoQueue) http.Handler {
	app := testApp(repo, &fakeRewardRepo{})
	app.Tracker = orchestrator.NewTracker(repo, video, zerolog.Nop())
	r := chi.NewRouter()
	r.Post("/v1/generations/status", app.GenerationStatus)
	return r
}

func pollStatus(t *testing.T, router http.Handler, reelID, renderID string) (int, orchestrator.PollResult) {
	t.Helper()
	payload := `{"reel_id": "` + reelID + `", "render_id": "` + renderID + `"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/generations/status", strings.NewReader(payload))
	router.ServeHTTP(rec, req)
	var result orchestrator.PollResult
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatalf("decode body: %v", err)
		}
	}
	return rec.Code, result
}

func TestGenerationStatusInitHandleSkipsQueue(t *testing.T) {
	repo := newFakeArtifactRepo(domain.Artifact{
		ID:         "art-1",
		BusinessID: "biz-1",
		Type:       domain.ArtifactTypeReel,
		State:      domain.PendingState("init-9f2c"),
	})
	video := &fakeVideoQueue{}
	router := statusRouter(repo, video)

	code, result := pollStatus(t, router, "art-1", "init-9f2c")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if result.Status != orchestrator.PollProcessing {
		t.Fatalf("poll status = %q, want processing", result.Status)
	}
	if video.calls != 0 {
		t.Fatalf("queue polled %d times for an init handle", video.calls)
	}
}

func TestGenerationStatusResolvesDoneRender(t *testing.T) {
	repo := newFakeArtifactRepo(domain.Artifact{
		ID:         "art-1",
		BusinessID: "biz-1",
		Type:       domain.ArtifactTypeReel,
		State:      domain.PendingState("sh-42"),
	})
	video := &fakeVideoQueue{result: render.StatusResult{Status: render.RenderDone, URL: "http://cdn/reel.mp4"}}
	router := statusRouter(repo, video)

	code, result := pollStatus(t, router, "art-1", "sh-42")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if result.Status != orchestrator.PollDone || result.URL != "http://cdn/reel.mp4" {
		t.Fatalf("result = %+v", result)
	}
	stored, _ := repo.GetByID(context.Background(), "art-1")
	if stored.State.Status != domain.StatusReady {
		t.Fatalf("state = %q, want ready", stored.State.Status)
	}
}

func TestGenerationStatusUnknownArtifact(t *testing.T) {
	router := statusRouter(newFakeArtifactRepo(), &fakeVideoQueue{})
	code, _ := pollStatus(t, router, "ghost", "sh-1")
	if code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", code)
	}
}

func TestGenerationStatusRejectsMissingFields(t *testing.T) {
	router := statusRouter(newFakeArtifactRepo(), &fakeVideoQueue{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/generations/status", strings.NewReader(`{"reel_id": "art-1"}`))
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
