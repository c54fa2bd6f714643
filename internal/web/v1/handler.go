package v1

import (
	"context"
	"errors"
	"net/http"
	"strings"

	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/attendance-service/internal/core/domain"
	logicv1 "github.com/duynhne/attendance-service/internal/logic/v1"
	"github.com/duynhne/attendance-service/middleware"
)

// Handler groups HTTP handlers for the attendance API v1.
// Dependencies are injected via the constructor, no global state.
type Handler struct {
	sessions *logicv1.SessionManager
	status   *logicv1.SessionStatusService
	ledger   *logicv1.AttendanceLedger
	auth     *logicv1.TeacherAuthenticator
}

// NewHandler creates a new Handler.
func NewHandler(
	sessions *logicv1.SessionManager,
	status *logicv1.SessionStatusService,
	ledger *logicv1.AttendanceLedger,
	auth *logicv1.TeacherAuthenticator,
) *Handler {
	return &Handler{
		sessions: sessions,
		status:   status,
		ledger:   ledger,
		auth:     auth,
	}
}

// RegisterRoutes registers all attendance API v1 routes on the given router group.
// Session routes are public: the session id is the capability.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/session/:sessionId", h.GetSessionStatus)
	rg.POST("/session/:sessionId/mark", h.MarkAttendance)

	classes := rg.Group("/classes/:classId", h.RequireTeacher())
	{
		classes.POST("/activate", h.ActivateClass)
		classes.GET("/attendance", h.GetAttendanceForDate)
		classes.GET("/attendance/today", h.GetTodayAttendance)
		classes.GET("/attendance/dates", h.ListAttendanceDates)
	}
}

// RequireTeacher resolves the bearer token and stores the teacher id in
// the gin context under middleware.TeacherIDKey.
func (h *Handler) RequireTeacher() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		logger := pkgzerolog.FromContext(ctx)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format"})
			return
		}

		teacher, err := h.auth.Authenticate(ctx, token)
		if err != nil {
			logger.Warn().Err(err).Msg("Token lookup failed")

			switch {
			case errors.Is(err, logicv1.ErrInvalidToken):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			case errors.Is(err, logicv1.ErrTokenExpired):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
			case errors.Is(err, logicv1.ErrUnavailable):
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Service unavailable"})
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			}
			return
		}

		c.Set(middleware.TeacherIDKey, teacher.TeacherID)
		c.Next()
	}
}

// ActivateClass opens (or returns the open) attendance session of a class.
// POST /api/v1/classes/:classId/activate
func (h *Handler) ActivateClass(c *gin.Context) {
	ctx, span := startRequestSpan(c)
	defer span.End()

	logger := pkgzerolog.FromContext(ctx)
	classID := c.Param("classId")

	response, err := h.sessions.Activate(ctx, classID, c.GetString(middleware.TeacherIDKey))
	if err != nil {
		span.RecordError(err)
		logger.Error().Err(err).Str("class_id", classID).Msg("Activation failed")
		writeError(c, err)
		return
	}

	logger.Info().
		Str("class_id", classID).
		Str("session_id", response.SessionID).
		Msg("Class activated")
	c.JSON(http.StatusOK, response)
}

// GetSessionStatus is polled by the QR page and the teacher countdown.
// GET /api/v1/session/:sessionId
func (h *Handler) GetSessionStatus(c *gin.Context) {
	ctx, span := startRequestSpan(c)
	defer span.End()

	response, err := h.status.Status(ctx, c.Param("sessionId"))
	if err != nil {
		span.RecordError(err)
		if !errors.Is(err, logicv1.ErrSessionNotFound) {
			logger := pkgzerolog.FromContext(ctx)
			logger.Error().Err(err).Msg("Session status failed")
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// MarkAttendance records a student's presence.
// POST /api/v1/session/:sessionId/mark
func (h *Handler) MarkAttendance(c *gin.Context) {
	ctx, span := startRequestSpan(c)
	defer span.End()

	logger := pkgzerolog.FromContext(ctx)

	var req domain.MarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		span.RecordError(err)
		logger.Warn().Err(err).Msg("Invalid request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(attribute.Bool("request.valid", true))

	if err := h.ledger.Mark(ctx, c.Param("sessionId"), req); err != nil {
		span.RecordError(err)
		logger.Warn().Err(err).Str("roll_no", req.RollNo).Msg("Mark rejected")
		writeError(c, err)
		return
	}

	logger.Info().Str("roll_no", req.RollNo).Msg("Attendance marked")
	c.JSON(http.StatusOK, domain.MarkResponse{OK: true})
}

// GetTodayAttendance returns the current UTC day's records.
// GET /api/v1/classes/:classId/attendance/today
func (h *Handler) GetTodayAttendance(c *gin.Context) {
	ctx, span := startRequestSpan(c)
	defer span.End()

	response, err := h.ledger.ReadToday(ctx, c.Param("classId"), c.GetString(middleware.TeacherIDKey))
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetAttendanceForDate returns one day's records.
// GET /api/v1/classes/:classId/attendance?date=YYYY-MM-DD
func (h *Handler) GetAttendanceForDate(c *gin.Context) {
	ctx, span := startRequestSpan(c)
	defer span.End()

	date, ok := c.GetQuery("date")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date query parameter required"})
		return
	}

	response, err := h.ledger.ReadForDate(ctx, c.Param("classId"), c.GetString(middleware.TeacherIDKey), date)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListAttendanceDates returns the class's bucket keys, most recent first.
// GET /api/v1/classes/:classId/attendance/dates
func (h *Handler) ListAttendanceDates(c *gin.Context) {
	ctx, span := startRequestSpan(c)
	defer span.End()

	response, err := h.ledger.ListDateKeys(ctx, c.Param("classId"), c.GetString(middleware.TeacherIDKey))
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func startRequestSpan(c *gin.Context) (context.Context, trace.Span) {
	return middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("route", c.FullPath()),
	))
}

// writeError maps logic errors to HTTP responses.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, logicv1.ErrClassNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Class not found"})
	case errors.Is(err, logicv1.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case errors.Is(err, logicv1.ErrSessionInactive):
		c.JSON(http.StatusBadRequest, gin.H{"error": "session inactive"})
	case errors.Is(err, logicv1.ErrInvalidRecord):
		c.JSON(http.StatusBadRequest, gin.H{"error": logicv1.ErrInvalidRecord.Error()})
	case errors.Is(err, logicv1.ErrInvalidDate):
		c.JSON(http.StatusBadRequest, gin.H{"error": logicv1.ErrInvalidDate.Error()})
	case errors.Is(err, logicv1.ErrAlreadyMarked):
		c.JSON(http.StatusConflict, gin.H{"error": "Roll number already marked today"})
	case errors.Is(err, logicv1.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	case errors.Is(err, logicv1.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
