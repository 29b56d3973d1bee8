package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"dreamapp/internal/domain"
)

// MediaRepositoryPG implements domain.MediaRepository using PostgreSQL.
type MediaRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewMediaRepository constructs a new media repository instance.
func NewMediaRepository(pool *pgxpool.Pool) *MediaRepositoryPG {
	return &MediaRepositoryPG{pool: pool}
}

// Create persists one uploaded media item.
func (r *MediaRepositoryPG) Create(ctx context.Context, item *domain.MediaItem) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO media_items (id, business_id, url, kind, processed)
VALUES ($1, $2, $3, $4, false);
`, item.ID, item.BusinessID, item.URL, item.Kind)
	return err
}

// ListUnprocessed returns the business's unconsumed media in upload order.
func (r *MediaRepositoryPG) ListUnprocessed(ctx context.Context, businessID string) ([]domain.MediaItem, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, business_id, url, kind, processed, created_at
FROM media_items
WHERE business_id = $1 AND processed = false
ORDER BY created_at ASC;
`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.MediaItem
	for rows.Next() {
		var item domain.MediaItem
		if err := rows.Scan(&item.ID, &item.BusinessID, &item.URL, &item.Kind, &item.Processed, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// MarkProcessed flags the items as consumed in one statement.
func (r *MediaRepositoryPG) MarkProcessed(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
UPDATE media_items SET processed = true WHERE id = ANY($1);
`, ids)
	return err
}

var _ domain.MediaRepository = (*MediaRepositoryPG)(nil)
