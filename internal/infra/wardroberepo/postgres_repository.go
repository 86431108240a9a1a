package wardroberepo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/outfit-recommender/internal/domain/wardrobe"
)

// PostgresRepository implements wardrobe.Repository using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Add upserts on (user_id, filename).
func (r *PostgresRepository) Add(ctx context.Context, item wardrobe.Item) error {
	tags := item.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO wardrobe_items (id, user_id, filename, image_url, tags, saved_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, filename) DO UPDATE
		SET image_url = EXCLUDED.image_url, tags = EXCLUDED.tags, saved_at = EXCLUDED.saved_at
	`, item.ID, item.UserID, item.Filename, item.ImageURL, tags, item.SavedAt)
	return err
}

// ListByUser returns the user's items, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]wardrobe.Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, filename, image_url, tags, saved_at
		FROM wardrobe_items
		WHERE user_id = $1
		ORDER BY saved_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]wardrobe.Item, 0)
	for rows.Next() {
		var item wardrobe.Item
		if err := rows.Scan(&item.ID, &item.UserID, &item.Filename, &item.ImageURL, &item.Tags, &item.SavedAt); err != nil {
			return nil, err
		}
		item.SavedAt = item.SavedAt.UTC()
		items = append(items, item)
	}
	return items, rows.Err()
}

var _ wardrobe.Repository = (*PostgresRepository)(nil)
