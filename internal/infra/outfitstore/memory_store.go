package outfitstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/yanqian/outfit-recommender/internal/domain/outfit"
)

// MemoryStore is an in-memory implementation of outfit.Store for tests/dev.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]outfit.Document
}

// NewMemoryStore constructs a store backed by process memory.
func NewMemoryStore(seed ...outfit.Document) *MemoryStore {
	s := &MemoryStore{docs: make(map[string][]outfit.Document)}
	for _, doc := range seed {
		s.add(doc)
	}
	return s
}

// Find implements outfit.Store.
func (s *MemoryStore) Find(_ context.Context, collection string, filter outfit.Filter, limit int) ([]outfit.Document, error) {
	s.mu.RLock()
	docs := s.docs[strings.ToLower(collection)]
	matched := make([]outfit.Document, 0, len(docs))
	for _, doc := range docs {
		if matches(doc, filter) {
			matched = append(matched, doc)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Insert implements outfit.Store.
func (s *MemoryStore) Insert(_ context.Context, doc outfit.Document) error {
	s.add(doc)
	return nil
}

// Len reports the number of documents in a collection.
func (s *MemoryStore) Len(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs[strings.ToLower(collection)])
}

func (s *MemoryStore) add(doc outfit.Document) {
	doc.Tags = append([]string(nil), doc.Tags...)
	key := strings.ToLower(doc.Collection)
	s.mu.Lock()
	s.docs[key] = append(s.docs[key], doc)
	s.mu.Unlock()
}

func matches(doc outfit.Document, f outfit.Filter) bool {
	if f.OnlyAI && !doc.IsAI {
		return false
	}
	if len(f.ExcludeFilenames) > 0 {
		for _, name := range f.ExcludeFilenames {
			if doc.Filename == name {
				return false
			}
		}
	}
	if f.Tag != "" && !hasTag(doc.Tags, f.Tag) {
		return false
	}
	if len(f.AnyTags) > 0 {
		found := false
		for _, tag := range f.AnyTags {
			if hasTag(doc.Tags, tag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func hasTag(tags []string, want string) bool {
	for _, tag := range tags {
		if tag == want {
			return true
		}
	}
	return false
}

var _ outfit.Store = (*MemoryStore)(nil)
