package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/duynhne/attendance-service/internal/core/domain"
)

// SessionRepository is a map-backed domain.SessionRepository.
type SessionRepository struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	// FailWrites makes every write return the error, to simulate an outage.
	FailWrites error
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]domain.Session)}
}

func (r *SessionRepository) Create(_ context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWrites != nil {
		return r.FailWrites
	}
	if _, ok := r.sessions[s.ID]; ok {
		return fmt.Errorf("session %q already exists", s.ID)
	}
	r.sessions[s.ID] = *s
	return nil
}

func (r *SessionRepository) GetByID(_ context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *SessionRepository) Deactivate(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWrites != nil {
		return false, r.FailWrites
	}
	s, ok := r.sessions[id]
	if !ok || !s.IsActive {
		return false, nil
	}
	s.IsActive = false
	r.sessions[id] = s
	return true, nil
}

func (r *SessionRepository) ListOverdue(_ context.Context, now time.Time, limit int) ([]domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Session
	for _, s := range r.sessions {
		if s.IsActive && s.ExpiresAt.Before(now) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Count returns the number of stored sessions, active or not.
func (r *SessionRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
