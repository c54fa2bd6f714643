package memory

import (
	"context"
	"sync"

	"github.com/duynhne/attendance-service/internal/core/domain"
)

// TeacherRepository is a map-backed domain.TeacherRepository keyed by token hash.
type TeacherRepository struct {
	mu     sync.Mutex
	tokens map[string]domain.TeacherTokenRow
}

func NewTeacherRepository() *TeacherRepository {
	return &TeacherRepository{tokens: make(map[string]domain.TeacherTokenRow)}
}

// PutToken registers a token hash for a teacher.
func (r *TeacherRepository) PutToken(tokenHash string, row domain.TeacherTokenRow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[tokenHash] = row
}

func (r *TeacherRepository) GetByTokenHash(_ context.Context, tokenHash string) (*domain.TeacherTokenRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.tokens[tokenHash]
	if !ok {
		return nil, nil
	}
	return &row, nil
}
