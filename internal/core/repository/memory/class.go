// Package memory provides in-process implementations of the domain
// repositories. They honour the same conditional-update contracts as the
// pgx repositories and back the logic and handler tests.
package memory

import (
	"context"
	"sync"

	"github.com/duynhne/attendance-service/internal/core/domain"
)

// ClassRepository is a map-backed domain.ClassRepository.
type ClassRepository struct {
	mu      sync.Mutex
	classes map[string]domain.ClassRow
	// FailWrites makes every write return the error, to simulate an outage.
	FailWrites error
}

func NewClassRepository() *ClassRepository {
	return &ClassRepository{classes: make(map[string]domain.ClassRow)}
}

// Put inserts or replaces a class.
func (r *ClassRepository) Put(c domain.ClassRow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[c.ID] = c
}

func (r *ClassRepository) GetByID(_ context.Context, id string) (*domain.ClassRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.classes[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *ClassRepository) TryActivate(_ context.Context, classID, sessionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWrites != nil {
		return false, r.FailWrites
	}
	c, ok := r.classes[classID]
	if !ok || c.IsActive {
		return false, nil
	}
	c.IsActive = true
	c.ActiveSessionID = sessionID
	r.classes[classID] = c
	return true, nil
}

func (r *ClassRepository) ClearActive(_ context.Context, classID, sessionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWrites != nil {
		return false, r.FailWrites
	}
	c, ok := r.classes[classID]
	if !ok || c.ActiveSessionID != sessionID {
		return false, nil
	}
	c.IsActive = false
	c.ActiveSessionID = ""
	r.classes[classID] = c
	return true, nil
}
