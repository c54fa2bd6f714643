package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duynhne/attendance-service/internal/core/domain"
)

// PgxClassRepository implements domain.ClassRepository using pgxpool.
type PgxClassRepository struct {
	pool *pgxpool.Pool
}

// NewClassRepository creates a new PgxClassRepository.
func NewClassRepository(pool *pgxpool.Pool) *PgxClassRepository {
	return &PgxClassRepository{pool: pool}
}

// GetByID returns the class with the given id.
// Returns (nil, nil) when no class is found.
func (r *PgxClassRepository) GetByID(ctx context.Context, id string) (*domain.ClassRow, error) {
	query := `
		SELECT id, teacher_id, name, session_duration_minutes, is_active, COALESCE(active_session_id, '')
		FROM classes
		WHERE id = $1
	`

	var row domain.ClassRow
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&row.ID, &row.TeacherID, &row.Name, &row.SessionDurationMinutes, &row.IsActive, &row.ActiveSessionID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &row, nil
}

// TryActivate points an inactive class at sessionID.
// The WHERE clause is the compare half of the compare-and-swap.
func (r *PgxClassRepository) TryActivate(ctx context.Context, classID, sessionID string) (bool, error) {
	query := `UPDATE classes SET is_active = TRUE, active_session_id = $2 WHERE id = $1 AND NOT is_active`
	tag, err := r.pool.Exec(ctx, query, classID, sessionID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ClearActive deactivates the class if it still references sessionID.
func (r *PgxClassRepository) ClearActive(ctx context.Context, classID, sessionID string) (bool, error) {
	query := `
		UPDATE classes SET is_active = FALSE, active_session_id = NULL
		WHERE id = $1 AND COALESCE(active_session_id, '') = $2
	`
	tag, err := r.pool.Exec(ctx, query, classID, sessionID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
