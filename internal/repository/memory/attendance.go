package memory

import (
	"context"
	"encoding/json"
	"maps"
	"slices"
	"sync"

	"github.com/cmlabs-hris/attendance-insights/internal/domain/attendance"
)

// AttendanceRepository keeps user subtrees in process memory. Records are
// copied on the way in and out so callers never share maps with the store.
type AttendanceRepository struct {
	mu      sync.RWMutex
	records map[string]attendance.RawUserRecord
}

func NewAttendanceRepository() *AttendanceRepository {
	return &AttendanceRepository{
		records: make(map[string]attendance.RawUserRecord),
	}
}

func (r *AttendanceRepository) GetByUserID(_ context.Context, userID string) (attendance.RawUserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[userID]
	if !ok {
		return attendance.RawUserRecord{}, attendance.ErrUserNotFound
	}
	return cloneRecord(rec), nil
}

func (r *AttendanceRepository) ListUserIDs(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.records)), nil
}

func (r *AttendanceRepository) Put(_ context.Context, userID string, record attendance.RawUserRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[userID] = cloneRecord(record)
	return nil
}

func (r *AttendanceRepository) DeleteEntries(_ context.Context, userID string, paths []attendance.EntryPath) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[userID]
	if !ok {
		return attendance.ErrUserNotFound
	}

	for _, p := range paths {
		if len(p) != 2 {
			continue
		}
		switch p[0] {
		case attendance.NodeClockInTimes:
			delete(rec.ClockInTimes, p[1])
		case attendance.NodeClockOutTimes:
			delete(rec.ClockOutTimes, p[1])
		case attendance.NodeAttendance:
			delete(rec.Attendance, p[1])
		}
	}
	r.records[userID] = rec
	return nil
}

func cloneRecord(rec attendance.RawUserRecord) attendance.RawUserRecord {
	return attendance.RawUserRecord{
		ClockInTimes:  cloneNode(rec.ClockInTimes),
		ClockOutTimes: cloneNode(rec.ClockOutTimes),
		Attendance:    cloneNode(rec.Attendance),
	}
}

func cloneNode(node map[string]json.RawMessage) map[string]json.RawMessage {
	if node == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(node))
	for k, v := range node {
		out[k] = slices.Clone(v)
	}
	return out
}
