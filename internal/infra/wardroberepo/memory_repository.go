package wardroberepo

import (
	"context"
	"sync"

	"github.com/yanqian/outfit-recommender/internal/domain/wardrobe"
)

// MemoryRepository provides an in-memory wardrobe for tests/dev.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string][]wardrobe.Item
}

// NewMemoryRepository constructs a new in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string][]wardrobe.Item)}
}

// Add stores the item; an item with the same filename replaces the old one.
func (r *MemoryRepository) Add(_ context.Context, item wardrobe.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.items[item.UserID]
	for i := range items {
		if items[i].Filename == item.Filename {
			items[i] = item
			return nil
		}
	}
	r.items[item.UserID] = append(items, item)
	return nil
}

// ListByUser returns a user's items in insertion order.
func (r *MemoryRepository) ListByUser(_ context.Context, userID string) ([]wardrobe.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]wardrobe.Item(nil), r.items[userID]...), nil
}

var _ wardrobe.Repository = (*MemoryRepository)(nil)
