package wardrobe

import (
	"context"
	"time"
)

// Item is an outfit saved into a user's personal collection.
type Item struct {
	ID       string    `json:"id"`
	UserID   string    `json:"userId"`
	Filename string    `json:"name"`
	ImageURL string    `json:"image"`
	Tags     []string  `json:"tags"`
	SavedAt  time.Time `json:"savedAt"`
}

// Repository persists wardrobe items.
type Repository interface {
	Add(ctx context.Context, item Item) error
	ListByUser(ctx context.Context, userID string) ([]Item, error)
}
