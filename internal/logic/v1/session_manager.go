package v1

import (
	"context"
	"fmt"
	"time"

	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/attendance-service/internal/core/domain"
	"github.com/duynhne/attendance-service/middleware"
)

// maxActivateAttempts bounds the reload/compare-and-swap loop in Activate.
const maxActivateAttempts = 3

// SessionManager owns the attendance session lifecycle: activation,
// lazy expiry, and keeping the class flag in line with its session.
// It depends on repository interfaces only.
type SessionManager struct {
	classes  domain.ClassRepository
	sessions domain.SessionRepository
	now      func() time.Time
}

// ManagerOption customizes a SessionManager.
type ManagerOption func(*SessionManager)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *SessionManager) { m.now = now }
}

// NewSessionManager creates a new SessionManager with the given repository dependencies.
func NewSessionManager(classes domain.ClassRepository, sessions domain.SessionRepository, opts ...ManagerOption) *SessionManager {
	m := &SessionManager{
		classes:  classes,
		sessions: sessions,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Activate returns the class's live session, creating one if there is none.
// A live session is returned unchanged; its deadline is never extended.
//
// The class flag is claimed with a compare-and-swap after the new session
// is stored. A caller that loses the swap abandons its session and reloads,
// so concurrent activations all converge on the winner's session.
func (m *SessionManager) Activate(ctx context.Context, classID, requesterID string) (*domain.ActivateResponse, error) {
	ctx, span := middleware.StartSpan(ctx, "session.activate", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("class.id", classID),
	))
	defer span.End()

	for attempt := 1; attempt <= maxActivateAttempts; attempt++ {
		class, err := loadOwnedClass(ctx, m.classes, classID, requesterID)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("activate class %q: %w", classID, err)
		}

		if class.IsActive {
			current, err := m.currentSession(ctx, class)
			if err != nil {
				span.RecordError(err)
				return nil, fmt.Errorf("activate class %q: %w", classID, err)
			}
			if current != nil {
				sessionsActivated.WithLabelValues("reused").Inc()
				span.SetAttributes(
					attribute.String("session.id", current.ID),
					attribute.Bool("session.reused", true),
				)
				return &domain.ActivateResponse{SessionID: current.ID, ExpiresAt: current.ExpiresAt}, nil
			}

			cleared, err := m.classes.ClearActive(ctx, class.ID, class.ActiveSessionID)
			if err != nil {
				span.RecordError(err)
				return nil, fmt.Errorf("clear class %q: %w: %w", classID, ErrUnavailable, err)
			}
			if !cleared {
				// Someone else moved the class on; look again.
				span.AddEvent("activation.class_changed")
				continue
			}
		}

		sess, err := m.newSession(class)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("activate class %q: %w", classID, err)
		}
		if err := m.sessions.Create(ctx, sess); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("create session: %w: %w", ErrUnavailable, err)
		}

		won, err := m.classes.TryActivate(ctx, class.ID, sess.ID)
		if err != nil {
			span.RecordError(err)
			m.abandon(ctx, sess.ID)
			return nil, fmt.Errorf("claim class %q: %w: %w", classID, ErrUnavailable, err)
		}
		if won {
			sessionsActivated.WithLabelValues("created").Inc()
			span.SetAttributes(
				attribute.String("session.id", sess.ID),
				attribute.Bool("session.reused", false),
				attribute.Int("attempt", attempt),
			)
			span.AddEvent("session.created")
			logger := pkgzerolog.FromContext(ctx)
			logger.Info().
				Str("class_id", class.ID).
				Str("session_id", sess.ID).
				Time("expires_at", sess.ExpiresAt).
				Msg("Attendance session created")
			return &domain.ActivateResponse{SessionID: sess.ID, ExpiresAt: sess.ExpiresAt}, nil
		}

		span.AddEvent("activation.lost_race")
		m.abandon(ctx, sess.ID)
	}

	err := fmt.Errorf("activate class %q: contention after %d attempts: %w", classID, maxActivateAttempts, ErrUnavailable)
	span.RecordError(err)
	return nil, err
}

// GetStatus returns the session state, applying lazy expiry first.
func (m *SessionManager) GetStatus(ctx context.Context, sessionID string) (*domain.SessionStatusResponse, error) {
	ctx, span := middleware.StartSpan(ctx, "session.get_status", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	sess, err := m.resolve(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Bool("session.active", sess.IsActive))
	return &domain.SessionStatusResponse{IsActive: sess.IsActive, ExpiresAt: sess.ExpiresAt}, nil
}

// resolve loads a session and applies lazy expiry to it.
func (m *SessionManager) resolve(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := m.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session: %w: %w", ErrUnavailable, err)
	}
	if sess == nil {
		return nil, fmt.Errorf("lookup session: %w", ErrSessionNotFound)
	}
	if err := m.reconcile(ctx, sess, "read"); err != nil {
		return nil, err
	}
	return sess, nil
}

// reconcile flips an overdue session inactive and then tries to clear the
// owning class flag. Only the session write is required to succeed; a
// stale class flag is repaired by the next Activate.
func (m *SessionManager) reconcile(ctx context.Context, sess *domain.Session, via string) error {
	if !sess.IsActive || !sess.IsExpired(m.now()) {
		return nil
	}

	changed, err := m.sessions.Deactivate(ctx, sess.ID)
	if err != nil {
		return fmt.Errorf("expire session: %w: %w", ErrUnavailable, err)
	}
	sess.IsActive = false
	if changed {
		sessionsExpired.WithLabelValues(via).Inc()
	}

	if _, err := m.classes.ClearActive(ctx, sess.ClassID, sess.ID); err != nil {
		logger := pkgzerolog.FromContext(ctx)
		logger.Warn().
			Err(err).
			Str("class_id", sess.ClassID).
			Str("session_id", sess.ID).
			Msg("Failed to clear class active flag")
	}
	return nil
}

// currentSession returns the class's referenced session if it is still
// live. A dead reference is retired (session flipped inactive) and nil is
// returned; clearing the class itself is left to the caller.
func (m *SessionManager) currentSession(ctx context.Context, class *domain.ClassRow) (*domain.Session, error) {
	if class.ActiveSessionID == "" {
		return nil, nil
	}

	sess, err := m.sessions.GetByID(ctx, class.ActiveSessionID)
	if err != nil {
		return nil, fmt.Errorf("query session: %w: %w", ErrUnavailable, err)
	}
	if sess == nil {
		return nil, nil
	}
	if sess.IsLive(m.now()) {
		return sess, nil
	}

	if sess.IsActive {
		changed, err := m.sessions.Deactivate(ctx, sess.ID)
		if err != nil {
			return nil, fmt.Errorf("expire session: %w: %w", ErrUnavailable, err)
		}
		if changed {
			sessionsExpired.WithLabelValues("activate").Inc()
		}
	}
	return nil, nil
}

func (m *SessionManager) newSession(class *domain.ClassRow) (*domain.Session, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	now := m.now().UTC()
	minutes := domain.ClampSessionMinutes(class.SessionDurationMinutes)
	return &domain.Session{
		ID:        id.String(),
		ClassID:   class.ID,
		ExpiresAt: now.Add(time.Duration(minutes) * time.Minute),
		IsActive:  true,
		CreatedAt: now,
	}, nil
}

// abandon deactivates a session that was never handed out.
func (m *SessionManager) abandon(ctx context.Context, sessionID string) {
	if _, err := m.sessions.Deactivate(ctx, sessionID); err != nil {
		logger := pkgzerolog.FromContext(ctx)
		logger.Warn().
			Err(err).
			Str("session_id", sessionID).
			Msg("Failed to deactivate abandoned session")
		return
	}
	sessionsExpired.WithLabelValues("abandoned").Inc()
}

// loadOwnedClass loads a class and checks that requesterID owns it.
func loadOwnedClass(ctx context.Context, classes domain.ClassRepository, classID, requesterID string) (*domain.ClassRow, error) {
	class, err := classes.GetByID(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("query class: %w: %w", ErrUnavailable, err)
	}
	if class == nil {
		return nil, ErrClassNotFound
	}
	if class.TeacherID != requesterID {
		return nil, ErrForbidden
	}
	return class, nil
}
