package v1

import (
	"context"

	"github.com/duynhne/attendance-service/internal/core/domain"
)

// SessionStatusService is the unauthenticated read path for pollers.
// Knowing the session id is the only capability it checks.
type SessionStatusService struct {
	manager *SessionManager
}

func NewSessionStatusService(manager *SessionManager) *SessionStatusService {
	return &SessionStatusService{manager: manager}
}

// Status returns the session state after lazy expiry.
func (s *SessionStatusService) Status(ctx context.Context, sessionID string) (*domain.SessionStatusResponse, error) {
	return s.manager.GetStatus(ctx, sessionID)
}
