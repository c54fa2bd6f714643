package domain

import (
	"context"
	"time"
)

// DateKeyLayout is the layout of day bucket keys.
const DateKeyLayout = "2006-01-02"

// DateKey returns the UTC calendar date of t as a bucket key.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateKeyLayout)
}

// ParseDateKey normalizes a YYYY-MM-DD string to a bucket key.
func ParseDateKey(s string) (string, error) {
	d, err := time.ParseInLocation(DateKeyLayout, s, time.UTC)
	if err != nil {
		return "", err
	}
	return DateKey(d), nil
}

// AttendanceRecord is one presence entry in a day bucket.
type AttendanceRecord struct {
	Name     string    `json:"name"`
	RollNo   string    `json:"rollNo"`
	MarkedAt time.Time `json:"markedAt"`
}

// AttendanceRepository defines the data-access contract for the append-only
// attendance ledger. A bucket is the set of records for (classID, dateKey).
type AttendanceRepository interface {
	// Append adds a record to the bucket, creating the bucket if needed.
	// Each call is atomic; concurrent appends never lose records.
	Append(ctx context.Context, classID, dateKey string, rec AttendanceRecord) error

	// AppendUnique behaves like Append but skips the insert when the bucket
	// already holds a record with the same roll number. It reports whether
	// the record was stored.
	AppendUnique(ctx context.Context, classID, dateKey string, rec AttendanceRecord) (bool, error)

	// ListRecords returns the bucket's records in append order.
	// A missing bucket yields an empty slice.
	ListRecords(ctx context.Context, classID, dateKey string) ([]AttendanceRecord, error)

	// ListDateKeys returns every bucket key of the class, most recent first.
	ListDateKeys(ctx context.Context, classID string) ([]string, error)
}
