package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duynhne/attendance-service/internal/core/domain"
)

// PgxTeacherRepository implements domain.TeacherRepository using pgxpool.
type PgxTeacherRepository struct {
	pool *pgxpool.Pool
}

// NewTeacherRepository creates a new PgxTeacherRepository.
func NewTeacherRepository(pool *pgxpool.Pool) *PgxTeacherRepository {
	return &PgxTeacherRepository{pool: pool}
}

// GetByTokenHash looks up the token by hash and returns the owning teacher
// together with the token expiry time.
// Returns (nil, nil) when the hash does not match any token.
func (r *PgxTeacherRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.TeacherTokenRow, error) {
	query := `
		SELECT t.id, t.name, tt.expires_at
		FROM teacher_tokens tt
		JOIN teachers t ON tt.teacher_id = t.id
		WHERE tt.token_hash = $1
	`

	var row domain.TeacherTokenRow
	err := r.pool.QueryRow(ctx, query, tokenHash).Scan(&row.TeacherID, &row.Name, &row.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &row, nil
}
