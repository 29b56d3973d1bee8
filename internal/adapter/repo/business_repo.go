package repo

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dreamapp/internal/domain"
)

// BusinessRepositoryPG implements domain.BusinessRepository using PostgreSQL.
type BusinessRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewBusinessRepository constructs a new business repository instance.
func NewBusinessRepository(pool *pgxpool.Pool) *BusinessRepositoryPG {
	return &BusinessRepositoryPG{pool: pool}
}

// GetByID returns the business or domain.ErrNotFound.
func (r *BusinessRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Business, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id, name, primary_color, accent_color, logo_url, style_refs, region, style_dna, upcoming_event, created_at, updated_at
FROM businesses
WHERE id = $1;
`, id)

	var b domain.Business
	var styleDNA []byte
	if err := row.Scan(&b.ID, &b.Name, &b.PrimaryColor, &b.AccentColor, &b.LogoURL, &b.StyleRefURLs, &b.Region, &styleDNA, &b.UpcomingEvent, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if len(styleDNA) > 0 {
		var dna domain.StyleDNA
		if err := json.Unmarshal(styleDNA, &dna); err == nil {
			b.StyleDNA = &dna
		}
	}
	return &b, nil
}

var _ domain.BusinessRepository = (*BusinessRepositoryPG)(nil)
