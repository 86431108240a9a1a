package storage

import (
	"context"
	"sync"

	"github.com/yanqian/outfit-recommender/internal/domain/outfit"
	"github.com/yanqian/outfit-recommender/internal/domain/replenish"
)

// MemoryStorage keeps blobs in memory. Useful for tests and local dev.
type MemoryStorage struct {
	mu         sync.RWMutex
	publicBase string
	blobs      map[string]storedBlob
}

type storedBlob struct {
	data        []byte
	contentType string
}

// NewMemoryStorage constructs storage whose URLs are rooted at publicBase.
func NewMemoryStorage(publicBase string) *MemoryStorage {
	if publicBase == "" {
		publicBase = "memory://outfits/"
	}
	return &MemoryStorage{publicBase: publicBase, blobs: make(map[string]storedBlob)}
}

// Upload stores the blob and returns its URL.
func (s *MemoryStorage) Upload(_ context.Context, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = storedBlob{data: append([]byte(nil), data...), contentType: contentType}
	return outfit.PublicURL(s.publicBase, key), nil
}

// Get returns a stored blob and its content type.
func (s *MemoryStorage) Get(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[key]
	return blob.data, blob.contentType, ok
}

var _ replenish.Uploader = (*MemoryStorage)(nil)
