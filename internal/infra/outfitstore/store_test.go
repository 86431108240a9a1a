package outfitstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/outfit-recommender/internal/domain/outfit"
)

func TestMemoryStoreFindAppliesFilterAndRecency(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore(
		outfit.Document{Collection: "images", Filename: "old.png", Tags: []string{"red", "hot"}, CreatedAt: base},
		outfit.Document{Collection: "images", Filename: "new.png", Tags: []string{"scarlet", "hot"}, CreatedAt: base.Add(time.Hour)},
		outfit.Document{Collection: "images", Filename: "cold.png", Tags: []string{"red", "cold"}, CreatedAt: base.Add(2 * time.Hour)},
		outfit.Document{Collection: "images", Filename: "ai.png", Tags: []string{"red", "hot"}, IsAI: true, CreatedAt: base.Add(3 * time.Hour)},
		outfit.Document{Collection: "custom", Filename: "other.png", Tags: []string{"red", "hot"}, CreatedAt: base},
	)
	ctx := context.Background()

	docs, err := store.Find(ctx, "images", outfit.Filter{AnyTags: []string{"red", "scarlet"}, Tag: "hot"}, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"ai.png", "new.png", "old.png"}, filenames(docs))

	docs, err = store.Find(ctx, "IMAGES", outfit.Filter{ExcludeFilenames: []string{"ai.png", "cold.png"}}, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"new.png"}, filenames(docs))

	docs, err = store.Find(ctx, "images", outfit.Filter{OnlyAI: true}, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"ai.png"}, filenames(docs))

	docs, err = store.Find(ctx, "images", outfit.Filter{}, 0)
	require.NoError(t, err)
	require.Len(t, docs, 4)
}

func TestMemoryStoreInsertCopiesTags(t *testing.T) {
	store := NewMemoryStore()
	tags := []string{"red"}
	require.NoError(t, store.Insert(context.Background(), outfit.Document{Collection: "images", Filename: "a.png", Tags: tags}))
	tags[0] = "blue"

	docs, err := store.Find(context.Background(), "images", outfit.Filter{Tag: "red"}, 5)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, 1, store.Len("images"))
}

func TestBuildFindQuery(t *testing.T) {
	query, args := buildFindQuery("Images", outfit.Filter{
		AnyTags:          []string{"red", "scarlet"},
		Tag:              "hot",
		ExcludeFilenames: []string{"a.png"},
		OnlyAI:           true,
	}, 32)

	require.Contains(t, query, "collection = $1")
	require.Contains(t, query, "tags && $2::text[]")
	require.Contains(t, query, "$3 = ANY(tags)")
	require.Contains(t, query, "filename <> ALL($4::text[])")
	require.Contains(t, query, "is_ai")
	require.Contains(t, query, "ORDER BY created_at DESC")
	require.Contains(t, query, "LIMIT $5")
	require.Equal(t, []any{"images", []string{"red", "scarlet"}, "hot", []string{"a.png"}, 32}, args)
}

func TestBuildFindQueryMatchAll(t *testing.T) {
	query, args := buildFindQuery("images", outfit.Filter{}, 0)
	require.Contains(t, query, "WHERE collection = $1\n")
	require.NotContains(t, query, "LIMIT")
	require.Equal(t, []any{"images"}, args)
}

func TestBuildFindQueryCoalescesNullableColumns(t *testing.T) {
	query, _ := buildFindQuery("images", outfit.Filter{}, 10)
	for _, col := range []string{"filename", "image_full", "image_thumbnail", "legacy_image", "source_url", "search_filename"} {
		require.Contains(t, query, "COALESCE("+col+", '')", col)
	}
	require.Contains(t, query, "COALESCE(tags, '{}'::text[])")
	require.Contains(t, query, "COALESCE(is_ai, false)")
}

func filenames(docs []outfit.Document) []string {
	out := make([]string, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.Filename)
	}
	return out
}
