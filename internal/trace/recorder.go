// Package trace buffers decision spans in memory during a generation run and
// flushes them opportunistically. A flush failure downgrades to structured
// log output instead of failing the run.
package trace

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"dreamapp/internal/domain"
)

// snapshotLimit bounds how much of an input/output snapshot is buffered per
// span so a single noisy prompt cannot bloat the trace table.
const snapshotLimit = 4000

// Recorder accumulates spans per trace id. It is safe for concurrent use by
// the per-option render goroutines.
type Recorder struct {
	mu     sync.Mutex
	spans  map[string][]domain.TraceSpan
	repo   domain.TraceRepository
	logger zerolog.Logger
}

// NewRecorder constructs a Recorder. repo may be nil, in which case spans
// only ever reach the log.
func NewRecorder(repo domain.TraceRepository, logger zerolog.Logger) *Recorder {
	return &Recorder{
		spans:  make(map[string][]domain.TraceSpan),
		repo:   repo,
		logger: logger,
	}
}

// Span captures the fields callers supply for one recorded decision.
type Span struct {
	Agent      string
	Input      string
	Output     string
	Prompt     string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Record appends a span to the trace buffer.
func (r *Recorder) Record(traceID string, span Span) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seq := len(r.spans[traceID])
	r.spans[traceID] = append(r.spans[traceID], domain.TraceSpan{
		TraceID:    traceID,
		Seq:        seq,
		Agent:      span.Agent,
		Input:      clip(span.Input),
		Output:     clip(span.Output),
		Prompt:     clip(span.Prompt),
		StartedAt:  span.StartedAt,
		FinishedAt: span.FinishedAt,
	})
}

// Buffered returns a copy of the spans currently held for the trace.
func (r *Recorder) Buffered(traceID string) []domain.TraceSpan {
	r.mu.Lock()
	defer r.mu.Unlock()
	src := r.spans[traceID]
	out := make([]domain.TraceSpan, len(src))
	copy(out, src)
	return out
}

// Flush persists and drops the buffered spans for the trace. Persistence
// errors are logged, not returned: tracing must never fail the pipeline.
func (r *Recorder) Flush(ctx context.Context, traceID string) {
	r.mu.Lock()
	spans := r.spans[traceID]
	delete(r.spans, traceID)
	r.mu.Unlock()

	if len(spans) == 0 {
		return
	}
	if r.repo != nil {
		err := r.repo.SaveSpans(ctx, spans)
		if err == nil {
			return
		}
		r.logger.Error().Err(err).Str("trace_id", traceID).Msg("trace: flush failed, dumping to log")
	}
	for _, span := range spans {
		r.logger.Info().
			Str("trace_id", span.TraceID).
			Int("seq", span.Seq).
			Str("agent", span.Agent).
			Str("output", span.Output).
			Msg("trace: span")
	}
}

// AttachReward patches the reward onto every persisted span of the trace.
func (r *Recorder) AttachReward(ctx context.Context, traceID string, reward float64) error {
	if r.repo == nil {
		return nil
	}
	return r.repo.AttachReward(ctx, traceID, reward)
}

func clip(s string) string {
	if len(s) > snapshotLimit {
		return s[:snapshotLimit]
	}
	return s
}
