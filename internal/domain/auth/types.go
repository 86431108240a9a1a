package auth

import "time"

// Config drives token validation.
type Config struct {
	Secret   string
	TokenTTL time.Duration
}

// Claims are extracted from a validated token.
type Claims struct {
	UserID    string
	ExpiresAt time.Time
}
