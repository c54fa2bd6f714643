package v1

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/blake2b"

	"github.com/duynhne/attendance-service/internal/core/domain"
	"github.com/duynhne/attendance-service/middleware"
)

// TeacherAuthenticator resolves bearer tokens issued by the account service.
type TeacherAuthenticator struct {
	teachers domain.TeacherRepository
	now      func() time.Time
}

func NewTeacherAuthenticator(teachers domain.TeacherRepository) *TeacherAuthenticator {
	return &TeacherAuthenticator{teachers: teachers, now: time.Now}
}

// HashToken returns the hex BLAKE2b-256 digest under which a token is stored.
func HashToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Authenticate returns the teacher owning token.
func (a *TeacherAuthenticator) Authenticate(ctx context.Context, token string) (*domain.TeacherTokenRow, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.authenticate_teacher", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	row, err := a.teachers.GetByTokenHash(ctx, HashToken(token))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query token: %w: %w", ErrUnavailable, err)
	}
	if row == nil {
		span.SetAttributes(attribute.Bool("token.valid", false))
		return nil, fmt.Errorf("lookup token: %w", ErrInvalidToken)
	}

	if a.now().After(row.ExpiresAt) {
		span.SetAttributes(attribute.Bool("token.valid", false))
		return nil, fmt.Errorf("token expired at %v: %w", row.ExpiresAt, ErrTokenExpired)
	}

	span.SetAttributes(
		attribute.String("teacher.id", row.TeacherID),
		attribute.Bool("token.valid", true),
	)
	return row, nil
}
