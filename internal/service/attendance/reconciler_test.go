package attendance

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-insights/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-insights/internal/pkg/timezone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reconcile(t *testing.T, zone string, rec attendance.RawUserRecord) ([]attendance.Session, []attendance.Issue) {
	t.Helper()
	entries, issues := Classify(rec)
	sessions, more := NewReconciler(newResolver(t, zone)).Reconcile(entries)
	return sessions, append(issues, more...)
}

func TestReconcile_LegacyPairing(t *testing.T) {
	sessions, issues := reconcile(t, "Asia/Jakarta", attendance.RawUserRecord{
		ClockInTimes:  node("1700000000000", `"09:05"`),
		ClockOutTimes: node("1700000000000", `"17:10"`, "1700100000000", `"18:00"`),
	})
	require.Empty(t, issues)
	require.Len(t, sessions, 2)

	paired := sessions[0]
	assert.Equal(t, "legacy/1700000000000", paired.SourceKey)
	assert.Equal(t, attendance.LegacyPaired, paired.Provenance)
	assert.Equal(t, "2023-11-15", paired.Date)
	assert.Equal(t, timezone.WallClock{Hour: 9, Minute: 5}, *paired.ClockIn)
	assert.Equal(t, timezone.WallClock{Hour: 17, Minute: 10}, *paired.ClockOut)

	orphan := sessions[1]
	assert.Equal(t, "legacy/1700100000000", orphan.SourceKey)
	assert.Equal(t, "2023-11-16", orphan.Date)
	assert.Nil(t, orphan.ClockIn)
	assert.Equal(t, timezone.WallClock{Hour: 18}, *orphan.ClockOut)
}

func TestReconcile_LegacyEmptyClockInDerivedFromKey(t *testing.T) {
	sessions, issues := reconcile(t, "Asia/Jakarta", attendance.RawUserRecord{
		ClockInTimes: node("1700000000000", `""`),
	})
	require.Empty(t, issues)
	require.Len(t, sessions, 1)
	assert.Equal(t, timezone.WallClock{Hour: 5, Minute: 13, Second: 20}, *sessions[0].ClockIn)
	assert.Nil(t, sessions[0].ClockOut)
}

func TestReconcile_LegacyMalformedClockSkipsEntry(t *testing.T) {
	sessions, issues := reconcile(t, "UTC", attendance.RawUserRecord{
		ClockInTimes: node("1700000000000", `"nine-ish"`, "1700086400000", `"09:00"`),
	})
	require.Len(t, sessions, 1)
	assert.Equal(t, "legacy/1700086400000", sessions[0].SourceKey)

	require.Len(t, issues, 1)
	assert.Equal(t, "legacy/1700000000000", issues[0].SourceKey)
	assert.ErrorIs(t, issues[0], attendance.ErrMalformedTimestamp)
}

func TestReconcile_KeyedDateAndClockSources(t *testing.T) {
	sessions, issues := reconcile(t, "America/New_York", attendance.RawUserRecord{
		Attendance: node(
			// Evening clock-in stored as UTC; the organization date is the key's.
			"2024-01-06", `{"clockInTimestamp":"2024-01-07T01:30:00Z","date":"2024-01-07"}`,
			// No date in the key: the key timestamp is 19:00 on the 7th in New York.
			"x_1704672000000", `{"clockInTime":"7:00 PM","clockOutTime":"11:15 PM","isLate":true}`,
		),
	})
	require.Empty(t, issues)
	require.Len(t, sessions, 2)

	byKey := map[string]attendance.Session{}
	for _, s := range sessions {
		byKey[s.SourceKey] = s
	}

	evening := byKey["attendance/2024-01-06"]
	assert.Equal(t, "2024-01-06", evening.Date)
	assert.Equal(t, timezone.WallClock{Hour: 20, Minute: 30}, *evening.ClockIn)
	require.NotNil(t, evening.ClockInTimestamp)
	assert.Equal(t, time.Date(2024, 1, 7, 1, 30, 0, 0, time.UTC).UnixMilli(), *evening.ClockInTimestamp)
	assert.Equal(t, evening.ClockInTimestamp, evening.Timestamp)

	keyed := byKey["attendance/x_1704672000000"]
	assert.Equal(t, "2024-01-07", keyed.Date)
	assert.Equal(t, timezone.WallClock{Hour: 19}, *keyed.ClockIn)
	assert.Equal(t, timezone.WallClock{Hour: 23, Minute: 15}, *keyed.ClockOut)
	require.NotNil(t, keyed.ExplicitIsLate)
	assert.True(t, *keyed.ExplicitIsLate)
	assert.Equal(t, int64(1704672000000), *keyed.Timestamp)
}

func TestReconcile_KeyedDateFallbacks(t *testing.T) {
	sessions, issues := reconcile(t, "UTC", attendance.RawUserRecord{
		Attendance: node(
			"2024-01-07_morning", `{"clockInTime":"08:00","clockOutTime":"16:00"}`,
			"import_batch7", `{"clockInTime":"09:00","date":"2024-01-05"}`,
			"import_batch8", `{"clockInTime":"09:00"}`,
		),
	})
	require.Len(t, sessions, 2)

	byKey := map[string]attendance.Session{}
	for _, s := range sessions {
		byKey[s.SourceKey] = s
	}
	assert.Equal(t, "2024-01-07", byKey["attendance/2024-01-07_morning"].Date)
	assert.Equal(t, "2024-01-05", byKey["attendance/import_batch7"].Date)

	require.Len(t, issues, 1)
	assert.Equal(t, "attendance/import_batch8", issues[0].SourceKey)
	assert.ErrorIs(t, issues[0], attendance.ErrMalformedTimestamp)
}

func TestReconcile_KeyedNumericTimestamp(t *testing.T) {
	sessions, issues := reconcile(t, "UTC", attendance.RawUserRecord{
		Attendance: node("2024-01-08", `{"clockInTimestamp":1704700800000,"eventType":"morning_shift"}`),
	})
	require.Empty(t, issues)
	require.Len(t, sessions, 1)
	assert.Equal(t, timezone.WallClock{Hour: 8}, *sessions[0].ClockIn)
	assert.True(t, sessions[0].ShiftScheduled)
}

func TestReconcile_KeyedSkips(t *testing.T) {
	sessions, issues := reconcile(t, "UTC", attendance.RawUserRecord{
		Attendance: node(
			"2024-01-07", `{"clockInTime":"25:99"}`,
			"2024-01-08", `{"status":"present"}`,
			"2024-01-09", `{"clockInTime":"08:00"}`,
		),
	})
	require.Len(t, sessions, 1)
	assert.Equal(t, "2024-01-09", sessions[0].Date)

	require.Len(t, issues, 2)
	assert.ErrorIs(t, issues[0], attendance.ErrMalformedTimestamp)
	assert.ErrorIs(t, issues[1], attendance.ErrUnrecognizedEntryShape)
}

func TestReconcile_NoDuplicateSourceKeys(t *testing.T) {
	sessions, issues := reconcile(t, "UTC", attendance.RawUserRecord{
		ClockInTimes:  node("1700000000000", `"09:00"`, "1700086400000", `"09:00"`, "1700172800000", `"09:00"`),
		ClockOutTimes: node("1700000000000", `"17:00"`, "1700172800000", `"17:00"`, "1700259200000", `"17:00"`),
	})
	require.Empty(t, issues)
	assert.Len(t, sessions, 4)

	seen := map[string]bool{}
	for _, s := range sessions {
		assert.False(t, seen[s.SourceKey], "duplicate %s", s.SourceKey)
		seen[s.SourceKey] = true
	}
}

func TestParseSourceKey(t *testing.T) {
	paths, err := ParseSourceKey("attendance/2024-01-07_1704614400000")
	require.NoError(t, err)
	assert.Equal(t, []attendance.EntryPath{{"attendance", "2024-01-07_1704614400000"}}, paths)

	paths, err = ParseSourceKey("legacy/1700000000000")
	require.NoError(t, err)
	assert.Equal(t, []attendance.EntryPath{
		{"clockInTimes", "1700000000000"},
		{"clockOutTimes", "1700000000000"},
	}, paths)

	for _, bad := range []string{"", "attendance/", "legacy/a/b", "other/123"} {
		_, err := ParseSourceKey(bad)
		assert.ErrorIs(t, err, attendance.ErrInvalidSourceKey, bad)
	}
}
