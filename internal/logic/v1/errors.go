// Package v1 provides the attendance business logic for API version 1.
//
// Error Handling:
// This package defines sentinel errors for the failures callers must tell
// apart. Business methods wrap them with context using fmt.Errorf("%w"),
// and store failures are wrapped together with ErrUnavailable so the
// original cause survives.
//
// Example Usage:
//
//	if class == nil {
//	    return nil, fmt.Errorf("activate class %q: %w", classID, ErrClassNotFound)
//	}
//
//	if err := s.sessions.Create(ctx, sess); err != nil {
//	    return nil, fmt.Errorf("create session: %w: %w", ErrUnavailable, err)
//	}
//
// Error Checking (in handlers):
//
//	switch {
//	case errors.Is(err, logicv1.ErrSessionInactive):
//	    c.JSON(http.StatusBadRequest, gin.H{"error": "session inactive"})
//	case errors.Is(err, logicv1.ErrUnavailable):
//	    c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service unavailable"})
//	default:
//	    c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
//	}
package v1

import "errors"

// Sentinel errors for attendance operations.
var (
	// ErrClassNotFound indicates the class id does not exist.
	// HTTP Status: 404 Not Found
	ErrClassNotFound = errors.New("class not found")

	// ErrSessionNotFound indicates the session id does not exist.
	// HTTP Status: 404 Not Found
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionInactive indicates the session exists but no longer accepts
	// marks, or does not exist at mark time.
	// HTTP Status: 400 Bad Request
	ErrSessionInactive = errors.New("session inactive")

	// ErrInvalidRecord indicates a mark without a name or roll number.
	// HTTP Status: 400 Bad Request
	ErrInvalidRecord = errors.New("name and roll number are required")

	// ErrInvalidDate indicates a date that is not YYYY-MM-DD.
	// HTTP Status: 400 Bad Request
	ErrInvalidDate = errors.New("date must be YYYY-MM-DD")

	// ErrAlreadyMarked indicates the roll number is already in today's bucket.
	// Only returned when roll number dedup is enabled.
	// HTTP Status: 409 Conflict
	ErrAlreadyMarked = errors.New("roll number already marked")

	// ErrInvalidToken indicates the bearer token is unknown.
	// HTTP Status: 401 Unauthorized
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired indicates the bearer token has expired.
	// HTTP Status: 401 Unauthorized
	ErrTokenExpired = errors.New("token expired")

	// ErrForbidden indicates the teacher does not own the class.
	// HTTP Status: 403 Forbidden
	ErrForbidden = errors.New("forbidden")

	// ErrUnavailable indicates the backing store failed.
	// HTTP Status: 503 Service Unavailable
	ErrUnavailable = errors.New("store unavailable")
)
