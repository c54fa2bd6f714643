// Package repository holds the pgx implementations of the domain
// repositories.
package repository

import "github.com/duynhne/attendance-service/internal/core/domain"

var (
	_ domain.ClassRepository      = (*PgxClassRepository)(nil)
	_ domain.SessionRepository    = (*PgxSessionRepository)(nil)
	_ domain.AttendanceRepository = (*PgxAttendanceRepository)(nil)
	_ domain.TeacherRepository    = (*PgxTeacherRepository)(nil)
)
