package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-insights/internal/domain/attendance"
	attendanceservice "github.com/cmlabs-hris/attendance-insights/internal/service/attendance"
)

// AuditReport summarizes one pass over every stored user.
type AuditReport struct {
	Users          int
	Sessions       int
	Skipped        int
	UsersWithIssue int
	// ByKind counts skipped entries per sentinel error.
	ByKind map[string]int
}

type AttendanceJobs struct {
	attendanceRepo attendance.RawAttendanceRepository
	pipeline       *attendanceservice.Pipeline
}

func NewAttendanceJobs(attendanceRepo attendance.RawAttendanceRepository, pipeline *attendanceservice.Pipeline) *AttendanceJobs {
	return &AttendanceJobs{
		attendanceRepo: attendanceRepo,
		pipeline:       pipeline,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler, auditInterval time.Duration) {
	scheduler.AddJob("attendance_audit", auditInterval, j.AuditAttendance)
}

// AuditAttendance reconciles every user so corrupt historical entries show up
// in the logs without waiting for a request.
func (j *AttendanceJobs) AuditAttendance(ctx context.Context) error {
	report, err := j.Audit(ctx)
	if err != nil {
		return err
	}

	slog.Info("Cron: attendance audit finished",
		"users", report.Users,
		"sessions", report.Sessions,
		"skipped", report.Skipped,
		"users_with_issues", report.UsersWithIssue,
	)
	return nil
}

func (j *AttendanceJobs) Audit(ctx context.Context) (AuditReport, error) {
	userIDs, err := j.attendanceRepo.ListUserIDs(ctx)
	if err != nil {
		return AuditReport{}, fmt.Errorf("failed to list users: %w", err)
	}

	report := AuditReport{ByKind: make(map[string]int)}
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		rec, err := j.attendanceRepo.GetByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, attendance.ErrUserNotFound) {
				continue
			}
			return report, fmt.Errorf("failed to get attendance for %s: %w", userID, err)
		}

		sessions, issues := j.pipeline.Sessions(rec)
		report.Users++
		report.Sessions += len(sessions)
		if len(issues) == 0 {
			continue
		}

		report.UsersWithIssue++
		report.Skipped += len(issues)
		kinds := make(map[string]int)
		for _, issue := range issues {
			kinds[issueKind(issue)]++
		}
		for k, n := range kinds {
			report.ByKind[k] += n
		}

		slog.Warn("Cron: attendance entries skipped",
			"user_id", userID,
			"skipped", len(issues),
			"kinds", kinds,
		)
	}

	return report, nil
}

func issueKind(issue attendance.Issue) string {
	switch {
	case errors.Is(issue, attendance.ErrMalformedTimestamp):
		return "malformed_timestamp"
	case errors.Is(issue, attendance.ErrUnrecognizedEntryShape):
		return "unrecognized_entry_shape"
	case errors.Is(issue, attendance.ErrCorruptSession):
		return "corrupt_session"
	default:
		return "other"
	}
}
