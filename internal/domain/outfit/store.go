package outfit

import "context"

// Filter is a conjunction of document predicates. The zero value matches
// every document in the collection.
type Filter struct {
	// AnyTags matches documents carrying at least one of the tags.
	AnyTags []string
	// Tag matches documents carrying this exact tag.
	Tag string
	// ExcludeFilenames drops documents with any of these filenames.
	ExcludeFilenames []string
	// OnlyAI restricts the result to generated documents.
	OnlyAI bool
}

// MatchAll reports whether the filter places no constraint on documents.
func (f Filter) MatchAll() bool {
	return len(f.AnyTags) == 0 && f.Tag == "" && len(f.ExcludeFilenames) == 0 && !f.OnlyAI
}

// Store is the shared image store read by the recommender and written by replenishment.
type Store interface {
	// Find returns up to limit documents matching the filter, newest first.
	Find(ctx context.Context, collection string, filter Filter, limit int) ([]Document, error)
	Insert(ctx context.Context, doc Document) error
}
