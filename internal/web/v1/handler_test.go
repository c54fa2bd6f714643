package v1

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynhne/attendance-service/internal/core/domain"
	"github.com/duynhne/attendance-service/internal/core/repository/memory"
	logicv1 "github.com/duynhne/attendance-service/internal/logic/v1"
)

const (
	ownerToken    = "owner-token"
	strangerToken = "stranger-token"
)

type testServer struct {
	router *gin.Engine
	now    time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := &testServer{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}

	classes := memory.NewClassRepository()
	classes.Put(domain.ClassRow{ID: "class-1", TeacherID: "teacher-1", Name: "Chemistry", SessionDurationMinutes: 5})

	teachers := memory.NewTeacherRepository()
	farFuture := time.Now().Add(24 * time.Hour)
	teachers.PutToken(logicv1.HashToken(ownerToken), domain.TeacherTokenRow{TeacherID: "teacher-1", ExpiresAt: farFuture})
	teachers.PutToken(logicv1.HashToken(strangerToken), domain.TeacherTokenRow{TeacherID: "teacher-2", ExpiresAt: farFuture})

	manager := logicv1.NewSessionManager(classes, memory.NewSessionRepository(),
		logicv1.WithClock(func() time.Time { return ts.now }))
	ledger := logicv1.NewAttendanceLedger(manager, classes, memory.NewAttendanceRepository())

	h := NewHandler(manager, logicv1.NewSessionStatusService(manager), ledger, logicv1.NewTeacherAuthenticator(teachers))

	ts.router = gin.New()
	h.RegisterRoutes(ts.router.Group("/api/v1"))
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func (ts *testServer) activate(t *testing.T) domain.ActivateResponse {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/v1/classes/class-1/activate", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[domain.ActivateResponse](t, w)
}

func TestActivateRequiresTeacher(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/classes/class-1/activate", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/classes/class-1/activate", nil)
	req.Header.Set("Authorization", "Basic abc")
	w = httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/classes/class-1/activate", "made-up", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/classes/class-1/activate", strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/classes/missing/activate", ownerToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestActivateAndPollStatus(t *testing.T) {
	ts := newTestServer(t)

	first := ts.activate(t)
	assert.NotEmpty(t, first.SessionID)
	assert.Equal(t, ts.now.Add(5*time.Minute), first.ExpiresAt)

	second := ts.activate(t)
	assert.Equal(t, first.SessionID, second.SessionID)

	w := ts.do(t, http.MethodGet, "/api/v1/session/"+first.SessionID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decode[map[string]any](t, w)
	assert.Equal(t, true, status["isActive"])
	assert.Contains(t, status, "expiresAt")

	ts.now = first.ExpiresAt.Add(time.Second)
	w = ts.do(t, http.MethodGet, "/api/v1/session/"+first.SessionID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[domain.SessionStatusResponse](t, w).IsActive)

	w = ts.do(t, http.MethodGet, "/api/v1/session/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMarkAttendance(t *testing.T) {
	ts := newTestServer(t)
	act := ts.activate(t)
	markPath := "/api/v1/session/" + act.SessionID + "/mark"

	w := ts.do(t, http.MethodPost, markPath, "", map[string]string{"name": "Ada", "rollNo": "1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	w = ts.do(t, http.MethodPost, markPath, "", map[string]string{"name": "Ada"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/session/unknown/mark", "", map[string]string{"name": "Ada", "rollNo": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"session inactive"}`, w.Body.String())

	ts.now = act.ExpiresAt.Add(time.Minute)
	w = ts.do(t, http.MethodPost, markPath, "", map[string]string{"name": "Late", "rollNo": "9"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"session inactive"}`, w.Body.String())
}

func TestAttendanceReads(t *testing.T) {
	ts := newTestServer(t)
	act := ts.activate(t)
	markPath := "/api/v1/session/" + act.SessionID + "/mark"

	for _, rollNo := range []string{"1", "1", "2"} {
		w := ts.do(t, http.MethodPost, markPath, "", map[string]string{"name": "Student " + rollNo, "rollNo": rollNo})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := ts.do(t, http.MethodGet, "/api/v1/classes/class-1/attendance/today", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	today := decode[domain.RecordsResponse](t, w)
	require.Len(t, today.Records, 3)
	assert.Equal(t, "1", today.Records[0].RollNo)
	assert.Equal(t, "2", today.Records[2].RollNo)

	w = ts.do(t, http.MethodGet, "/api/v1/classes/class-1/attendance?date=2024-03-01", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	day := decode[domain.DateRecordsResponse](t, w)
	assert.Equal(t, "2024-03-01", day.Date)
	assert.Len(t, day.Records, 3)

	w = ts.do(t, http.MethodGet, "/api/v1/classes/class-1/attendance?date=2024-02-01", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"date":"2024-02-01","records":[]}`, w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/v1/classes/class-1/attendance", ownerToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/classes/class-1/attendance?date=March", ownerToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "YYYY-MM-DD"))

	w = ts.do(t, http.MethodGet, "/api/v1/classes/class-1/attendance/dates", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"dates":["2024-03-01"]}`, w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/v1/classes/class-1/attendance/today", strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
