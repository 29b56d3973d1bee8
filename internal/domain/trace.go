package domain

import "time"

// TraceSpan records one AI-agent decision inside a generation run. Spans
// sharing a TraceID belong to the same run; they are write-once except for
// the reward, which user feedback patches asynchronously across the whole
// trace.
type TraceSpan struct {
	TraceID    string
	Seq        int
	Agent      string
	Input      string
	Output     string
	Prompt     string
	Reward     *float64
	StartedAt  time.Time
	FinishedAt time.Time
}
