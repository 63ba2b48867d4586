package postgresql

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/cmlabs-hris/attendance-insights/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-insights/internal/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.NewPostgreSQLDB(dsn)
	require.NoError(t, err)
	require.NoError(t, database.MigratePostgreSQL(context.Background(), db))

	_, err = db.Exec(context.Background(), "TRUNCATE TABLE user_attendance")
	require.NoError(t, err)

	t.Cleanup(db.Close)
	return db
}

func TestAttendanceRepository_PutGet(t *testing.T) {
	ctx := context.Background()
	repo := NewAttendanceRepository(newTestDB(t))

	rec := attendance.RawUserRecord{
		ClockInTimes:  map[string]json.RawMessage{"1700000000000": json.RawMessage(`"09:05"`)},
		ClockOutTimes: map[string]json.RawMessage{"1700000000000": json.RawMessage(`"17:10"`)},
	}
	require.NoError(t, repo.Put(ctx, "u1", rec))
	require.NoError(t, repo.Put(ctx, "u0", attendance.RawUserRecord{}))

	got, err := repo.GetByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.JSONEq(t, `"09:05"`, string(got.ClockInTimes["1700000000000"]))
	assert.JSONEq(t, `"17:10"`, string(got.ClockOutTimes["1700000000000"]))

	ids, err := repo.ListUserIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u0", "u1"}, ids)

	_, err = repo.GetByUserID(ctx, "nobody")
	assert.ErrorIs(t, err, attendance.ErrUserNotFound)
}

func TestAttendanceRepository_DeleteEntries(t *testing.T) {
	ctx := context.Background()
	repo := NewAttendanceRepository(newTestDB(t))

	require.NoError(t, repo.Put(ctx, "u1", attendance.RawUserRecord{
		Attendance: map[string]json.RawMessage{
			"2024-01-07":               json.RawMessage(`{"clockInTime":"08:00"}`),
			"2024-01-08_1704700800000": json.RawMessage(`{"clockInTime":"08:00"}`),
		},
	}))

	err := repo.DeleteEntries(ctx, "u1", []attendance.EntryPath{{attendance.NodeAttendance, "2024-01-08_1704700800000"}})
	require.NoError(t, err)

	got, err := repo.GetByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, got.Attendance, 1)
	assert.Contains(t, got.Attendance, "2024-01-07")

	err = repo.DeleteEntries(ctx, "nobody", []attendance.EntryPath{{attendance.NodeAttendance, "x"}})
	assert.ErrorIs(t, err, attendance.ErrUserNotFound)
}
