package domain

import (
	"context"
	"time"
)

// Session is an attendance window: a time-bounded capability that lets
// anyone holding its id mark presence for one class.
type Session struct {
	ID        string
	ClassID   string
	ExpiresAt time.Time
	IsActive  bool
	CreatedAt time.Time
}

// IsExpired reports whether the session deadline has passed at now.
// It does not look at IsActive.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// IsLive reports whether the session still accepts marks at now.
func (s *Session) IsLive(now time.Time) bool {
	return s.IsActive && !s.IsExpired(now)
}

// SessionRepository defines the data-access contract for attendance sessions.
// Sessions are never deleted, only deactivated.
type SessionRepository interface {
	// Create inserts a new session.
	Create(ctx context.Context, s *Session) error

	// GetByID returns the session with the given id.
	// Returns (nil, nil) when no session is found.
	GetByID(ctx context.Context, id string) (*Session, error)

	// Deactivate flips an active session inactive. It reports whether this
	// call performed the transition; deactivating twice is a no-op.
	Deactivate(ctx context.Context, id string) (bool, error)

	// ListOverdue returns up to limit sessions that are still flagged active
	// but whose deadline is before now.
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]Session, error)
}
