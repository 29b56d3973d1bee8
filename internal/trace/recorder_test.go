package trace

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"dreamapp/internal/domain"
)

type fakeTraceRepo struct {
	saved   []domain.TraceSpan
	saveErr error
	rewards map[string]float64
}

func (f *fakeTraceRepo) SaveSpans(_ context.Context, spans []domain.TraceSpan) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, spans...)
	return nil
}

func (f *fakeTraceRepo) ListByTraceID(context.Context, string) ([]domain.TraceSpan, error) {
	return f.saved, nil
}

func (f *fakeTraceRepo) AttachReward(_ context.Context, traceID string, reward float64) error {
	if f.rewards == nil {
		f.rewards = make(map[string]float64)
	}
	f.rewards[traceID] = reward
	return nil
}

func (f *fakeTraceRepo) RecentCreative(context.Context, string, int) ([]string, []string, error) {
	return nil, nil, nil
}

func TestRecordAssignsSequentialSeq(t *testing.T) {
	r := NewRecorder(nil, zerolog.Nop())
	now := time.Now()
	for i := 0; i < 3; i++ {
		r.Record("trace-1", Span{Agent: "OptionGenerator", StartedAt: now, FinishedAt: now})
	}
	spans := r.Buffered("trace-1")
	if len(spans) != 3 {
		t.Fatalf("buffered = %d, want 3", len(spans))
	}
	for i, span := range spans {
		if span.Seq != i {
			t.Fatalf("span %d has seq %d", i, span.Seq)
		}
		if span.TraceID != "trace-1" {
			t.Fatalf("span trace id = %q", span.TraceID)
		}
	}
}

func TestRecordClipsOversizedSnapshots(t *testing.T) {
	r := NewRecorder(nil, zerolog.Nop())
	r.Record("trace-1", Span{Agent: "OptionGenerator", Output: strings.Repeat("x", snapshotLimit*2)})
	spans := r.Buffered("trace-1")
	if len(spans[0].Output) != snapshotLimit {
		t.Fatalf("output length = %d, want %d", len(spans[0].Output), snapshotLimit)
	}
}

func TestFlushPersistsAndDrops(t *testing.T) {
	repo := &fakeTraceRepo{}
	r := NewRecorder(repo, zerolog.Nop())
	r.Record("trace-1", Span{Agent: "OptionGenerator"})
	r.Record("trace-1", Span{Agent: "VibeCheck"})

	r.Flush(context.Background(), "trace-1")
	if len(repo.saved) != 2 {
		t.Fatalf("saved = %d, want 2", len(repo.saved))
	}
	if remaining := r.Buffered("trace-1"); len(remaining) != 0 {
		t.Fatalf("buffer not dropped: %d spans remain", len(remaining))
	}
}

func TestFlushFailureDropsWithoutError(t *testing.T) {
	repo := &fakeTraceRepo{saveErr: errors.New("db down")}
	r := NewRecorder(repo, zerolog.Nop())
	r.Record("trace-1", Span{Agent: "OptionGenerator"})

	// Flush only logs on persistence failure; the buffer is still dropped
	// so a later retry cannot double-write.
	r.Flush(context.Background(), "trace-1")
	if remaining := r.Buffered("trace-1"); len(remaining) != 0 {
		t.Fatalf("buffer not dropped after failed flush")
	}
}

func TestFlushIsolatesTraces(t *testing.T) {
	repo := &fakeTraceRepo{}
	r := NewRecorder(repo, zerolog.Nop())
	r.Record("trace-1", Span{Agent: "OptionGenerator"})
	r.Record("trace-2", Span{Agent: "OptionGenerator"})

	r.Flush(context.Background(), "trace-1")
	if len(r.Buffered("trace-2")) != 1 {
		t.Fatalf("flush of trace-1 disturbed trace-2")
	}
}

func TestAttachReward(t *testing.T) {
	repo := &fakeTraceRepo{}
	r := NewRecorder(repo, zerolog.Nop())
	if err := r.AttachReward(context.Background(), "trace-1", 1.0); err != nil {
		t.Fatalf("AttachReward: %v", err)
	}
	if repo.rewards["trace-1"] != 1.0 {
		t.Fatalf("reward = %v", repo.rewards)
	}
}

func TestAttachRewardWithoutRepo(t *testing.T) {
	r := NewRecorder(nil, zerolog.Nop())
	if err := r.AttachReward(context.Background(), "trace-1", -1.0); err != nil {
		t.Fatalf("nil repo must be a no-op: %v", err)
	}
}
