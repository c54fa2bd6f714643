package domain

import (
	"context"
	"time"
)

// TeacherTokenRow is a bearer token record joined with its teacher.
type TeacherTokenRow struct {
	TeacherID string
	Name      string
	ExpiresAt time.Time
}

// TeacherRepository resolves teacher bearer tokens.
// Tokens are never stored in clear; lookups use their hash.
type TeacherRepository interface {
	// GetByTokenHash returns the token record for the given hash.
	// Returns (nil, nil) when the hash does not match any token.
	GetByTokenHash(ctx context.Context, tokenHash string) (*TeacherTokenRow, error)
}
