package v1

import (
	"sync"
	"testing"
	"time"

	"github.com/duynhne/attendance-service/internal/core/domain"
	"github.com/duynhne/attendance-service/internal/core/repository/memory"
)

const (
	testClassID   = "class-1"
	testTeacherID = "teacher-1"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	classes  *memory.ClassRepository
	sessions *memory.SessionRepository
	records  *memory.AttendanceRepository
	clock    *fakeClock
	manager  *SessionManager
	ledger   *AttendanceLedger
}

func newFixture(t *testing.T, durationMinutes int, opts ...LedgerOption) *fixture {
	t.Helper()

	f := &fixture{
		classes:  memory.NewClassRepository(),
		sessions: memory.NewSessionRepository(),
		records:  memory.NewAttendanceRepository(),
		clock:    &fakeClock{now: time.Date(2024, 3, 1, 9, 58, 0, 0, time.UTC)},
	}
	f.classes.Put(domain.ClassRow{
		ID:                     testClassID,
		TeacherID:              testTeacherID,
		Name:                   "Physics 101",
		SessionDurationMinutes: durationMinutes,
	})
	f.manager = NewSessionManager(f.classes, f.sessions, WithClock(f.clock.Now))
	f.ledger = NewAttendanceLedger(f.manager, f.classes, f.records, opts...)
	return f
}

func (f *fixture) class(t *testing.T) domain.ClassRow {
	t.Helper()
	c, err := f.classes.GetByID(t.Context(), testClassID)
	if err != nil || c == nil {
		t.Fatalf("load class: %v", err)
	}
	return *c
}
