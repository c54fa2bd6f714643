package v1

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynhne/attendance-service/internal/core/domain"
)

func TestActivateIsIdempotentWhileLive(t *testing.T) {
	f := newFixture(t, 5)
	ctx := t.Context()

	first, err := f.manager.Activate(ctx, testClassID, testTeacherID)
	require.NoError(t, err)

	f.clock.Advance(4 * time.Minute)
	second, err := f.manager.Activate(ctx, testClassID, testTeacherID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.sessions.Count())

	class := f.class(t)
	assert.True(t, class.IsActive)
	assert.Equal(t, first.SessionID, class.ActiveSessionID)
}

func TestActivateClampsDuration(t *testing.T) {
	cases := []struct {
		configured int
		want       time.Duration
	}{
		{configured: 0, want: time.Minute},
		{configured: -4, want: time.Minute},
		{configured: 7, want: 7 * time.Minute},
		{configured: 15, want: 10 * time.Minute},
	}

	for _, tc := range cases {
		f := newFixture(t, tc.configured)
		start := f.clock.Now()

		got, err := f.manager.Activate(t.Context(), testClassID, testTeacherID)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got.ExpiresAt.Sub(start), "configured %d", tc.configured)
	}
}

func TestActivateRejectsUnknownClassAndForeignTeacher(t *testing.T) {
	f := newFixture(t, 5)

	_, err := f.manager.Activate(t.Context(), "missing", testTeacherID)
	assert.ErrorIs(t, err, ErrClassNotFound)

	_, err = f.manager.Activate(t.Context(), testClassID, "someone-else")
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, 0, f.sessions.Count())
}

func TestGetStatusLazyExpiryIsOneWay(t *testing.T) {
	f := newFixture(t, 5)
	ctx := t.Context()

	act, err := f.manager.Activate(ctx, testClassID, testTeacherID)
	require.NoError(t, err)
	deadline := act.ExpiresAt

	f.clock.Set(deadline.Add(-time.Second))
	status, err := f.manager.GetStatus(ctx, act.SessionID)
	require.NoError(t, err)
	assert.True(t, status.IsActive)
	assert.True(t, f.class(t).IsActive)

	f.clock.Set(deadline.Add(time.Second))
	status, err = f.manager.GetStatus(ctx, act.SessionID)
	require.NoError(t, err)
	assert.False(t, status.IsActive)
	assert.Equal(t, deadline, status.ExpiresAt)

	class := f.class(t)
	assert.False(t, class.IsActive, "expiry read should clear the class flag")
	assert.Empty(t, class.ActiveSessionID)

	f.clock.Set(deadline.Add(100 * time.Second))
	status, err = f.manager.GetStatus(ctx, act.SessionID)
	require.NoError(t, err)
	assert.False(t, status.IsActive)
}

func TestGetStatusUnknownSession(t *testing.T) {
	f := newFixture(t, 5)

	_, err := f.manager.GetStatus(t.Context(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestActivateAfterExpirySupersedesOldSession(t *testing.T) {
	f := newFixture(t, 2)
	ctx := t.Context()

	old, err := f.manager.Activate(ctx, testClassID, testTeacherID)
	require.NoError(t, err)

	f.clock.Advance(3 * time.Minute)
	fresh, err := f.manager.Activate(ctx, testClassID, testTeacherID)
	require.NoError(t, err)

	assert.NotEqual(t, old.SessionID, fresh.SessionID)
	assert.Equal(t, f.clock.Now().Add(2*time.Minute), fresh.ExpiresAt)

	oldSess, err := f.sessions.GetByID(ctx, old.SessionID)
	require.NoError(t, err)
	assert.False(t, oldSess.IsActive)
	assert.Equal(t, fresh.SessionID, f.class(t).ActiveSessionID)
}

func TestActivateRepairsDanglingReference(t *testing.T) {
	f := newFixture(t, 5)
	class := f.class(t)
	class.IsActive = true
	class.ActiveSessionID = "ghost"
	f.classes.Put(class)

	act, err := f.manager.Activate(t.Context(), testClassID, testTeacherID)
	require.NoError(t, err)
	assert.NotEqual(t, "ghost", act.SessionID)
	assert.Equal(t, act.SessionID, f.class(t).ActiveSessionID)
}

func TestActivateStoreFailureLeavesClassInactive(t *testing.T) {
	f := newFixture(t, 5)
	f.sessions.FailWrites = errors.New("connection refused")

	_, err := f.manager.Activate(t.Context(), testClassID, testTeacherID)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, f.class(t).IsActive)
	assert.Equal(t, 0, f.sessions.Count())
}

func TestGetStatusClassClearFailureIsNonFatal(t *testing.T) {
	f := newFixture(t, 1)
	ctx := t.Context()

	act, err := f.manager.Activate(ctx, testClassID, testTeacherID)
	require.NoError(t, err)

	f.classes.FailWrites = errors.New("timeout")
	f.clock.Advance(2 * time.Minute)

	status, err := f.manager.GetStatus(ctx, act.SessionID)
	require.NoError(t, err)
	assert.False(t, status.IsActive)
	assert.True(t, f.class(t).IsActive, "class flag is stale until the next activation")

	f.classes.FailWrites = nil
	fresh, err := f.manager.Activate(ctx, testClassID, testTeacherID)
	require.NoError(t, err)
	assert.NotEqual(t, act.SessionID, fresh.SessionID)
	assert.Equal(t, fresh.SessionID, f.class(t).ActiveSessionID)
}

func TestConcurrentActivationYieldsOneSession(t *testing.T) {
	f := newFixture(t, 5)
	ctx := t.Context()

	const callers = 64
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		ids   = make([]string, callers)
		errs  = make([]error, callers)
	)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			res, err := f.manager.Activate(ctx, testClassID, testTeacherID)
			errs[i] = err
			if err == nil {
				ids[i] = res.SessionID
			}
		}()
	}
	close(start)
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i], "caller %d got a different session", i)
	}

	class := f.class(t)
	assert.Equal(t, ids[0], class.ActiveSessionID)

	status, err := f.manager.GetStatus(ctx, ids[0])
	require.NoError(t, err)
	assert.True(t, status.IsActive)

	live, err := f.sessions.ListOverdue(ctx, f.clock.Now().Add(time.Hour), callers)
	require.NoError(t, err)
	assert.Len(t, live, 1, "losing sessions must be abandoned")
}

func TestSessionStatusServiceDelegates(t *testing.T) {
	f := newFixture(t, 5)
	svc := NewSessionStatusService(f.manager)

	act, err := f.manager.Activate(t.Context(), testClassID, testTeacherID)
	require.NoError(t, err)

	status, err := svc.Status(t.Context(), act.SessionID)
	require.NoError(t, err)
	assert.Equal(t, &domain.SessionStatusResponse{IsActive: true, ExpiresAt: act.ExpiresAt}, status)

	_, err = svc.Status(t.Context(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestExpirySweeperReconcilesWithoutReaders(t *testing.T) {
	f := newFixture(t, 1)
	ctx := t.Context()
	sweeper := NewExpirySweeper(f.manager, time.Minute)

	act, err := f.manager.Activate(ctx, testClassID, testTeacherID)
	require.NoError(t, err)

	n, err := sweeper.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	f.clock.Advance(90 * time.Second)
	n, err = sweeper.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, f.class(t).IsActive)

	sess, err := f.sessions.GetByID(ctx, act.SessionID)
	require.NoError(t, err)
	assert.False(t, sess.IsActive)

	n, err = sweeper.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
