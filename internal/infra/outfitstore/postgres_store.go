package outfitstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/outfit-recommender/internal/domain/outfit"
)

// selectColumns maps NULLs to zero values so legacy rows with missing image
// fields still scan and are filtered by the recommender instead of failing
// the whole query.
const selectColumns = `id::text, collection, COALESCE(filename, ''), COALESCE(tags, '{}'::text[]),
		COALESCE(image_full, ''), COALESCE(image_thumbnail, ''), COALESCE(legacy_image, ''),
		COALESCE(source_url, ''), COALESCE(search_filename, ''), COALESCE(is_ai, false), user_id,
		COALESCE(created_at, to_timestamp(0))`

// PostgresStore implements outfit.Store using pgx. Tags live in a text[]
// column so the tier filters map onto array operators.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs the store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Find implements outfit.Store.
func (s *PostgresStore) Find(ctx context.Context, collection string, filter outfit.Filter, limit int) ([]outfit.Document, error) {
	query, args := buildFindQuery(collection, filter, limit)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]outfit.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Insert implements outfit.Store.
func (s *PostgresStore) Insert(ctx context.Context, doc outfit.Document) error {
	tags := doc.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO outfit_images (id, collection, filename, tags, image_full, image_thumbnail, legacy_image,
			source_url, search_filename, is_ai, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), $12)
	`, doc.ID, strings.ToLower(doc.Collection), doc.Filename, tags, doc.Images.Full, doc.Images.Thumbnail,
		doc.LegacyImage, doc.SourceURL, doc.SearchFilename, doc.IsAI, doc.UserID, doc.CreatedAt)
	return err
}

// buildFindQuery renders the filter as a parameterized statement.
func buildFindQuery(collection string, filter outfit.Filter, limit int) (string, []any) {
	args := []any{strings.ToLower(collection)}
	clauses := []string{"collection = $1"}
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if len(filter.AnyTags) > 0 {
		clauses = append(clauses, "tags && "+next(filter.AnyTags)+"::text[]")
	}
	if filter.Tag != "" {
		clauses = append(clauses, next(filter.Tag)+" = ANY(tags)")
	}
	if len(filter.ExcludeFilenames) > 0 {
		clauses = append(clauses, "filename <> ALL("+next(filter.ExcludeFilenames)+"::text[])")
	}
	if filter.OnlyAI {
		clauses = append(clauses, "is_ai")
	}
	query := "SELECT " + selectColumns + "\n\t\tFROM outfit_images\n\t\tWHERE " + strings.Join(clauses, " AND ") +
		"\n\t\tORDER BY created_at DESC"
	if limit > 0 {
		query += "\n\t\tLIMIT " + next(limit)
	}
	return query, args
}

func scanDocument(row pgx.Row) (outfit.Document, error) {
	var (
		doc    outfit.Document
		userID *string
	)
	if err := row.Scan(
		&doc.ID,
		&doc.Collection,
		&doc.Filename,
		&doc.Tags,
		&doc.Images.Full,
		&doc.Images.Thumbnail,
		&doc.LegacyImage,
		&doc.SourceURL,
		&doc.SearchFilename,
		&doc.IsAI,
		&userID,
		&doc.CreatedAt,
	); err != nil {
		return outfit.Document{}, err
	}
	if userID != nil {
		doc.UserID = *userID
	}
	doc.CreatedAt = doc.CreatedAt.UTC()
	return doc, nil
}

var _ outfit.Store = (*PostgresStore)(nil)
