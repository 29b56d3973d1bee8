package domain

import (
	"context"
	"time"
)

// BusinessRepository defines access methods for businesses.
type BusinessRepository interface {
	GetByID(ctx context.Context, id string) (*Business, error)
}

// MediaRepository handles persistence for uploaded media items.
type MediaRepository interface {
	Create(ctx context.Context, item *MediaItem) error
	ListUnprocessed(ctx context.Context, businessID string) ([]MediaItem, error)
	MarkProcessed(ctx context.Context, ids []string) error
}

// ArtifactRepository defines persistence for generated artifacts.
type ArtifactRepository interface {
	Create(ctx context.Context, artifact *Artifact) error
	GetByID(ctx context.Context, id string) (*Artifact, error)
	ListByBusiness(ctx context.Context, businessID string, limit int) ([]Artifact, error)
	// UpdateState rewrites the encoded state field in a single atomic write.
	UpdateState(ctx context.Context, id string, state ArtifactState) error
	SetFeedback(ctx context.Context, id string, score float64) error
	Delete(ctx context.Context, id string) error
	// ListStalePending returns artifacts whose dispatched render has been
	// pending longer than the threshold, for the worker reconciler.
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]Artifact, error)
}

// TraceRepository persists decision-trace spans.
type TraceRepository interface {
	SaveSpans(ctx context.Context, spans []TraceSpan) error
	ListByTraceID(ctx context.Context, traceID string) ([]TraceSpan, error)
	AttachReward(ctx context.Context, traceID string, reward float64) error
	// RecentCreative returns the hooks and songs used by the business's
	// latest runs, feeding the diversity avoid lists.
	RecentCreative(ctx context.Context, businessID string, limit int) (hooks []string, songs []string, err error)
}
