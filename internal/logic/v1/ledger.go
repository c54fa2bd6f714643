package v1

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/attendance-service/internal/core/domain"
	"github.com/duynhne/attendance-service/middleware"
)

// AttendanceLedger records presence marks into per-class, per-UTC-day
// buckets and serves them back to the class owner.
type AttendanceLedger struct {
	manager      *SessionManager
	classes      domain.ClassRepository
	records      domain.AttendanceRepository
	dedupeRollNo bool
}

// LedgerOption customizes an AttendanceLedger.
type LedgerOption func(*AttendanceLedger)

// WithRollNoDedupe rejects repeated roll numbers within one day bucket.
// Without it every mark is stored, duplicates included.
func WithRollNoDedupe(enabled bool) LedgerOption {
	return func(l *AttendanceLedger) { l.dedupeRollNo = enabled }
}

// NewAttendanceLedger creates a new AttendanceLedger. Session validity and
// the clock both come from manager.
func NewAttendanceLedger(manager *SessionManager, classes domain.ClassRepository, records domain.AttendanceRepository, opts ...LedgerOption) *AttendanceLedger {
	l := &AttendanceLedger{
		manager: manager,
		classes: classes,
		records: records,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Mark appends a presence record to today's bucket of the session's class.
// Unknown and expired sessions are both rejected with ErrSessionInactive.
func (l *AttendanceLedger) Mark(ctx context.Context, sessionID string, req domain.MarkRequest) error {
	ctx, span := middleware.StartSpan(ctx, "attendance.mark", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	sess, err := l.manager.resolve(ctx, sessionID)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		marksTotal.WithLabelValues("rejected").Inc()
		span.SetAttributes(attribute.Bool("mark.accepted", false))
		return fmt.Errorf("mark session %q: %w", sessionID, ErrSessionInactive)
	case err != nil:
		marksTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		return err
	case !sess.IsActive:
		marksTotal.WithLabelValues("rejected").Inc()
		span.SetAttributes(attribute.Bool("mark.accepted", false))
		return fmt.Errorf("mark session %q: %w", sessionID, ErrSessionInactive)
	}

	name := strings.TrimSpace(req.Name)
	rollNo := strings.TrimSpace(req.RollNo)
	if name == "" || rollNo == "" {
		marksTotal.WithLabelValues("invalid").Inc()
		return ErrInvalidRecord
	}

	now := l.manager.now().UTC()
	dateKey := domain.DateKey(now)
	rec := domain.AttendanceRecord{Name: name, RollNo: rollNo, MarkedAt: now}
	span.SetAttributes(
		attribute.String("class.id", sess.ClassID),
		attribute.String("date_key", dateKey),
	)

	if l.dedupeRollNo {
		stored, err := l.records.AppendUnique(ctx, sess.ClassID, dateKey, rec)
		if err != nil {
			marksTotal.WithLabelValues("error").Inc()
			span.RecordError(err)
			return fmt.Errorf("append record: %w: %w", ErrUnavailable, err)
		}
		if !stored {
			marksTotal.WithLabelValues("duplicate").Inc()
			return fmt.Errorf("mark roll number %q on %s: %w", rollNo, dateKey, ErrAlreadyMarked)
		}
	} else if err := l.records.Append(ctx, sess.ClassID, dateKey, rec); err != nil {
		marksTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		return fmt.Errorf("append record: %w: %w", ErrUnavailable, err)
	}

	marksTotal.WithLabelValues("accepted").Inc()
	span.SetAttributes(attribute.Bool("mark.accepted", true))
	return nil
}

// ReadToday returns the records of the class's bucket for the current UTC day.
func (l *AttendanceLedger) ReadToday(ctx context.Context, classID, requesterID string) (*domain.RecordsResponse, error) {
	ctx, span := middleware.StartSpan(ctx, "attendance.read_today", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("class.id", classID),
	))
	defer span.End()

	records, err := l.readBucket(ctx, classID, requesterID, domain.DateKey(l.manager.now()))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &domain.RecordsResponse{Records: records}, nil
}

// ReadForDate returns the records of the class's bucket for date (YYYY-MM-DD).
func (l *AttendanceLedger) ReadForDate(ctx context.Context, classID, requesterID, date string) (*domain.DateRecordsResponse, error) {
	ctx, span := middleware.StartSpan(ctx, "attendance.read_for_date", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("class.id", classID),
	))
	defer span.End()

	dateKey, err := domain.ParseDateKey(date)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", date, ErrInvalidDate)
	}

	records, err := l.readBucket(ctx, classID, requesterID, dateKey)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &domain.DateRecordsResponse{Date: dateKey, Records: records}, nil
}

// ListDateKeys returns every bucket key of the class, most recent first.
func (l *AttendanceLedger) ListDateKeys(ctx context.Context, classID, requesterID string) (*domain.DatesResponse, error) {
	ctx, span := middleware.StartSpan(ctx, "attendance.list_dates", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("class.id", classID),
	))
	defer span.End()

	if _, err := loadOwnedClass(ctx, l.classes, classID, requesterID); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list dates of class %q: %w", classID, err)
	}

	keys, err := l.records.ListDateKeys(ctx, classID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query date keys: %w: %w", ErrUnavailable, err)
	}
	if keys == nil {
		keys = []string{}
	}

	span.SetAttributes(attribute.Int("dates.count", len(keys)))
	return &domain.DatesResponse{Dates: keys}, nil
}

func (l *AttendanceLedger) readBucket(ctx context.Context, classID, requesterID, dateKey string) ([]domain.AttendanceRecord, error) {
	if _, err := loadOwnedClass(ctx, l.classes, classID, requesterID); err != nil {
		return nil, fmt.Errorf("read attendance of class %q: %w", classID, err)
	}

	records, err := l.records.ListRecords(ctx, classID, dateKey)
	if err != nil {
		return nil, fmt.Errorf("query records: %w: %w", ErrUnavailable, err)
	}
	if records == nil {
		records = []domain.AttendanceRecord{}
	}
	return records, nil
}
