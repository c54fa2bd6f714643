package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duynhne/attendance-service/internal/core/domain"
)

// PgxAttendanceRepository implements domain.AttendanceRepository using pgxpool.
// A bucket is one attendance_days row plus its attendance_records rows.
type PgxAttendanceRepository struct {
	pool *pgxpool.Pool
}

// NewAttendanceRepository creates a new PgxAttendanceRepository.
func NewAttendanceRepository(pool *pgxpool.Pool) *PgxAttendanceRepository {
	return &PgxAttendanceRepository{pool: pool}
}

const (
	ensureDayQuery = `
		INSERT INTO attendance_days (class_id, date_key) VALUES ($1, $2)
		ON CONFLICT (class_id, date_key) DO NOTHING
	`
	insertRecordQuery = `
		INSERT INTO attendance_records (class_id, date_key, name, roll_no, marked_at)
		VALUES ($1, $2, $3, $4, $5)
	`
)

// Append inserts one record row. Rows are never rewritten, so concurrent
// appends to the same bucket cannot overwrite each other.
func (r *PgxAttendanceRepository) Append(ctx context.Context, classID, dateKey string, rec domain.AttendanceRecord) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, ensureDayQuery, classID, dateKey); err != nil {
			return fmt.Errorf("ensure bucket: %w", err)
		}
		if _, err := tx.Exec(ctx, insertRecordQuery, classID, dateKey, rec.Name, rec.RollNo, rec.MarkedAt); err != nil {
			return fmt.Errorf("insert record: %w", err)
		}
		return nil
	})
}

// AppendUnique serializes writers of one bucket on its attendance_days row
// before checking for an existing roll number.
func (r *PgxAttendanceRepository) AppendUnique(ctx context.Context, classID, dateKey string, rec domain.AttendanceRecord) (bool, error) {
	stored := false
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, ensureDayQuery, classID, dateKey); err != nil {
			return fmt.Errorf("ensure bucket: %w", err)
		}
		lock := `SELECT 1 FROM attendance_days WHERE class_id = $1 AND date_key = $2 FOR UPDATE`
		if _, err := tx.Exec(ctx, lock, classID, dateKey); err != nil {
			return fmt.Errorf("lock bucket: %w", err)
		}

		var exists bool
		check := `SELECT EXISTS(SELECT 1 FROM attendance_records WHERE class_id = $1 AND date_key = $2 AND roll_no = $3)`
		if err := tx.QueryRow(ctx, check, classID, dateKey, rec.RollNo).Scan(&exists); err != nil {
			return fmt.Errorf("check roll number: %w", err)
		}
		if exists {
			return nil
		}

		if _, err := tx.Exec(ctx, insertRecordQuery, classID, dateKey, rec.Name, rec.RollNo, rec.MarkedAt); err != nil {
			return fmt.Errorf("insert record: %w", err)
		}
		stored = true
		return nil
	})
	return stored, err
}

// ListRecords returns the bucket's records in insertion order.
func (r *PgxAttendanceRepository) ListRecords(ctx context.Context, classID, dateKey string) ([]domain.AttendanceRecord, error) {
	query := `
		SELECT name, roll_no, marked_at
		FROM attendance_records
		WHERE class_id = $1 AND date_key = $2
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, classID, dateKey)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.AttendanceRecord, error) {
		var rec domain.AttendanceRecord
		err := row.Scan(&rec.Name, &rec.RollNo, &rec.MarkedAt)
		return rec, err
	})
}

// ListDateKeys returns the class's bucket keys, most recent first.
// YYYY-MM-DD keys sort chronologically as text.
func (r *PgxAttendanceRepository) ListDateKeys(ctx context.Context, classID string) ([]string, error) {
	query := `SELECT date_key FROM attendance_days WHERE class_id = $1 ORDER BY date_key DESC`

	rows, err := r.pool.Query(ctx, query, classID)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[string])
}
