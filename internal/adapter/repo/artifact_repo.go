package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dreamapp/internal/domain"
)

// ArtifactRepositoryPG implements domain.ArtifactRepository using PostgreSQL.
// The lifecycle state is stored in the single encoded column `state`,
// reconstructed through domain.DecodeState on every read.
type ArtifactRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewArtifactRepository constructs a new artifact repository instance.
func NewArtifactRepository(pool *pgxpool.Pool) *ArtifactRepositoryPG {
	return &ArtifactRepositoryPG{pool: pool}
}

// Create persists a new artifact record.
func (r *ArtifactRepositoryPG) Create(ctx context.Context, artifact *domain.Artifact) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO artifacts (id, business_id, type, state, media_ids, trace_id)
VALUES ($1, $2, $3, $4, $5, $6);
`, artifact.ID, artifact.BusinessID, artifact.Type, artifact.State.Encode(), artifact.MediaIDs, artifact.TraceID)
	return err
}

// GetByID returns the artifact or domain.ErrNotFound.
func (r *ArtifactRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Artifact, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id, business_id, type, state, media_ids, trace_id, feedback, created_at, updated_at
FROM artifacts
WHERE id = $1;
`, id)
	return scanArtifact(row)
}

// ListByBusiness returns the newest artifacts first.
func (r *ArtifactRepositoryPG) ListByBusiness(ctx context.Context, businessID string, limit int) ([]domain.Artifact, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
SELECT id, business_id, type, state, media_ids, trace_id, feedback, created_at, updated_at
FROM artifacts
WHERE business_id = $1
ORDER BY created_at DESC
LIMIT $2;
`, businessID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artifacts []domain.Artifact
	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, *artifact)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

// UpdateState rewrites the encoded state column in a single atomic write.
func (r *ArtifactRepositoryPG) UpdateState(ctx context.Context, id string, state domain.ArtifactState) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE artifacts SET state = $2, updated_at = now() WHERE id = $1;
`, id, state.Encode())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetFeedback records the user score on the artifact.
func (r *ArtifactRepositoryPG) SetFeedback(ctx context.Context, id string, score float64) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE artifacts SET feedback = $2, updated_at = now() WHERE id = $1;
`, id, score)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the artifact permanently.
func (r *ArtifactRepositoryPG) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
DELETE FROM artifacts WHERE id = $1;
`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListStalePending returns dispatched-but-unresolved artifacts older than
// the threshold, skipping init placeholders (those have no real handle to
// poll yet).
func (r *ArtifactRepositoryPG) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]domain.Artifact, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
SELECT id, business_id, type, state, media_ids, trace_id, feedback, created_at, updated_at
FROM artifacts
WHERE state LIKE 'pending:%'
  AND state NOT LIKE 'pending:init%'
  AND updated_at < $1
ORDER BY updated_at ASC
LIMIT $2;
`, olderThan, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artifacts []domain.Artifact
	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, *artifact)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

func scanArtifact(row pgx.Row) (*domain.Artifact, error) {
	var a domain.Artifact
	var encoded string
	if err := row.Scan(&a.ID, &a.BusinessID, &a.Type, &encoded, &a.MediaIDs, &a.TraceID, &a.Feedback, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	a.State = domain.DecodeState(encoded)
	return &a, nil
}

var _ domain.ArtifactRepository = (*ArtifactRepositoryPG)(nil)
