package domain

import "time"

// ActivateResponse is returned by class activation.
type ActivateResponse struct {
	SessionID string    `json:"sessionId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionStatusResponse is the unauthenticated view of a session.
type SessionStatusResponse struct {
	IsActive  bool      `json:"isActive"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// MarkRequest is the body of a presence mark.
type MarkRequest struct {
	Name   string `json:"name" binding:"required"`
	RollNo string `json:"rollNo" binding:"required"`
}

// MarkResponse acknowledges a stored mark.
type MarkResponse struct {
	OK bool `json:"ok"`
}

// RecordsResponse lists the records of the current day's bucket.
type RecordsResponse struct {
	Records []AttendanceRecord `json:"records"`
}

// DateRecordsResponse lists the records of one day bucket.
type DateRecordsResponse struct {
	Date    string             `json:"date"`
	Records []AttendanceRecord `json:"records"`
}

// DatesResponse lists a class's bucket keys, most recent first.
type DatesResponse struct {
	Dates []string `json:"dates"`
}
