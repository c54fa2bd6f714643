package domain

import "context"

// Session duration bounds, in minutes.
const (
	MinSessionMinutes = 1
	MaxSessionMinutes = 10
)

// ClassRow is the slice of a class record the attendance core needs.
// Only IsActive and ActiveSessionID are ever written by this service.
type ClassRow struct {
	ID                     string
	TeacherID              string
	Name                   string
	SessionDurationMinutes int
	IsActive               bool
	// ActiveSessionID is empty when no session is referenced.
	ActiveSessionID string
}

// ClampSessionMinutes bounds a configured duration to the supported range.
func ClampSessionMinutes(minutes int) int {
	return min(max(minutes, MinSessionMinutes), MaxSessionMinutes)
}

// ClassRepository defines the data-access contract for the class aggregate.
// Both writes are conditional so concurrent callers cannot clobber each other.
type ClassRepository interface {
	// GetByID returns the class with the given id.
	// Returns (nil, nil) when no class is found.
	GetByID(ctx context.Context, id string) (*ClassRow, error)

	// TryActivate sets is_active=true and the active session reference only
	// if the class is currently inactive. It reports whether the swap happened.
	TryActivate(ctx context.Context, classID, sessionID string) (bool, error)

	// ClearActive resets is_active and the session reference only if the
	// class still references sessionID ("" matches no reference).
	// It reports whether the class was changed.
	ClearActive(ctx context.Context, classID, sessionID string) (bool, error)
}
