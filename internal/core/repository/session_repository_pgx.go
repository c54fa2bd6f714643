package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duynhne/attendance-service/internal/core/domain"
)

// PgxSessionRepository implements domain.SessionRepository using pgxpool.
type PgxSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new PgxSessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *PgxSessionRepository {
	return &PgxSessionRepository{pool: pool}
}

// Create inserts a new attendance session.
func (r *PgxSessionRepository) Create(ctx context.Context, s *domain.Session) error {
	query := `INSERT INTO attendance_sessions (id, class_id, expires_at, is_active, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query, s.ID, s.ClassID, s.ExpiresAt, s.IsActive, s.CreatedAt)
	return err
}

// GetByID returns the session with the given id.
// Returns (nil, nil) when no session is found.
func (r *PgxSessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	query := `SELECT id, class_id, expires_at, is_active, created_at FROM attendance_sessions WHERE id = $1`

	var s domain.Session
	err := r.pool.QueryRow(ctx, query, id).Scan(&s.ID, &s.ClassID, &s.ExpiresAt, &s.IsActive, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &s, nil
}

// Deactivate flips the session inactive if it is still active.
func (r *PgxSessionRepository) Deactivate(ctx context.Context, id string) (bool, error) {
	query := `UPDATE attendance_sessions SET is_active = FALSE WHERE id = $1 AND is_active`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListOverdue returns active sessions whose deadline is before now.
func (r *PgxSessionRepository) ListOverdue(ctx context.Context, now time.Time, limit int) ([]domain.Session, error) {
	query := `
		SELECT id, class_id, expires_at, is_active, created_at
		FROM attendance_sessions
		WHERE is_active AND expires_at < $1
		ORDER BY expires_at
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Session, error) {
		var s domain.Session
		err := row.Scan(&s.ID, &s.ClassID, &s.ExpiresAt, &s.IsActive, &s.CreatedAt)
		return s, err
	})
}
