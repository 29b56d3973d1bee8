package repo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dreamapp/internal/domain"
)

// TraceRepositoryPG implements domain.TraceRepository using PostgreSQL.
type TraceRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewTraceRepository constructs a new trace repository instance.
func NewTraceRepository(pool *pgxpool.Pool) *TraceRepositoryPG {
	return &TraceRepositoryPG{pool: pool}
}

// SaveSpans appends the spans in one batch. Spans are write-once; the only
// later mutation is the reward patch.
func (r *TraceRepositoryPG) SaveSpans(ctx context.Context, spans []domain.TraceSpan) error {
	if len(spans) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, span := range spans {
		batch.Queue(`
INSERT INTO trace_spans (trace_id, seq, agent, input, output, prompt, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
`, span.TraceID, span.Seq, span.Agent, span.Input, span.Output, span.Prompt, span.StartedAt, span.FinishedAt)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer func() {
		_ = results.Close()
	}()
	for range spans {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// ListByTraceID returns the trace's spans in recorded order.
func (r *TraceRepositoryPG) ListByTraceID(ctx context.Context, traceID string) ([]domain.TraceSpan, error) {
	rows, err := r.pool.Query(ctx, `
SELECT trace_id, seq, agent, input, output, prompt, reward, started_at, finished_at
FROM trace_spans
WHERE trace_id = $1
ORDER BY seq ASC;
`, traceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spans []domain.TraceSpan
	for rows.Next() {
		var span domain.TraceSpan
		if err := rows.Scan(&span.TraceID, &span.Seq, &span.Agent, &span.Input, &span.Output, &span.Prompt, &span.Reward, &span.StartedAt, &span.FinishedAt); err != nil {
			return nil, err
		}
		spans = append(spans, span)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return spans, nil
}

// AttachReward patches the reward across every span of the trace.
func (r *TraceRepositoryPG) AttachReward(ctx context.Context, traceID string, reward float64) error {
	_, err := r.pool.Exec(ctx, `
UPDATE trace_spans SET reward = $2 WHERE trace_id = $1;
`, traceID, reward)
	return err
}

// RecentCreative extracts the hooks and songs used by the business's latest
// generator spans, for the diversity avoid lists. Spans are scoped to the
// business through the artifacts joined on trace_id, then the generator's
// raw JSON output is reparsed for hook and trendingAudioTip fields.
func (r *TraceRepositoryPG) RecentCreative(ctx context.Context, businessID string, limit int) ([]string, []string, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.pool.Query(ctx, `
SELECT s.output
FROM trace_spans s
JOIN artifacts a ON a.trace_id = s.trace_id
WHERE a.business_id = $1 AND s.agent LIKE 'OptionGenerator%'
ORDER BY s.started_at DESC
LIMIT $2;
`, businessID, limit)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var hooks, songs []string
	for rows.Next() {
		var output string
		if err := rows.Scan(&output); err != nil {
			return nil, nil, err
		}
		h, s := extractCreativeFields(output)
		hooks = append(hooks, h...)
		songs = append(songs, s...)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return dedupe(hooks), dedupe(songs), nil
}

var _ domain.TraceRepository = (*TraceRepositoryPG)(nil)
