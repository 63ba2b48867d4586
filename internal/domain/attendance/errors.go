package attendance

import (
	"errors"

	"github.com/cmlabs-hris/attendance-insights/internal/pkg/timezone"
)

// Attendance domain errors
var (
	// Entry-local pipeline errors; the offending entry is skipped.
	ErrMalformedTimestamp     = timezone.ErrMalformedTimestamp
	ErrUnrecognizedEntryShape = errors.New("unrecognized attendance entry shape")
	ErrCorruptSession         = errors.New("session duration is negative after rollover")

	// Service errors
	ErrUserNotFound     = errors.New("no attendance data found for user")
	ErrSessionNotFound  = errors.New("attendance session not found")
	ErrInvalidSourceKey = errors.New("invalid session source key")
	ErrMissingUserClaim = errors.New("user_id claim is missing or invalid")
)
