package cron

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-insights/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-insights/internal/pkg/timezone"
	"github.com/cmlabs-hris/attendance-insights/internal/repository/memory"
	attendanceservice "github.com/cmlabs-hris/attendance-insights/internal/service/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttendanceJobs_Audit(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewAttendanceRepository()
	require.NoError(t, repo.Put(ctx, "clean", attendance.RawUserRecord{
		ClockInTimes:  map[string]json.RawMessage{"1700000000000": json.RawMessage(`"09:05"`)},
		ClockOutTimes: map[string]json.RawMessage{"1700000000000": json.RawMessage(`"17:10"`)},
	}))
	require.NoError(t, repo.Put(ctx, "messy", attendance.RawUserRecord{
		Attendance: map[string]json.RawMessage{
			"2024-01-07": json.RawMessage(`{"clockInTime":"08:00"}`),
			"2024-01-08": json.RawMessage(`{"clockInTime":"half past eight"}`),
			"garbage":    json.RawMessage(`{"clockInTime":"08:00"}`),
		},
	}))

	resolver, err := timezone.NewResolver("Asia/Jakarta")
	require.NoError(t, err)
	pipeline := attendanceservice.NewPipeline(resolver, attendanceservice.ShiftPolicy{}, attendanceservice.Aggregator{})

	jobs := NewAttendanceJobs(repo, pipeline)
	report, err := jobs.Audit(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Users)
	assert.Equal(t, 2, report.Sessions)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 1, report.UsersWithIssue)
	assert.Equal(t, map[string]int{"malformed_timestamp": 1, "unrecognized_entry_shape": 1}, report.ByKind)

	scheduler := NewScheduler()
	jobs.RegisterJobs(scheduler, 0)
	assert.Empty(t, scheduler.Jobs())
	jobs.RegisterJobs(scheduler, time.Minute)
	assert.Equal(t, []string{"attendance_audit"}, scheduler.Jobs())
	assert.NoError(t, scheduler.RunOnce(ctx))
}
