// Package cache decorates a document store with a read-through TTL cache of
// user subtrees. Writes go to the underlying store and evict the user's entry.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-insights/internal/domain/attendance"
	"github.com/maypok86/otter/v2"
)

const maxCachedUsers = 10_000

type AttendanceRepository struct {
	next   attendance.RawAttendanceRepository
	cache  *otter.Cache[string, attendance.RawUserRecord]
	loader otter.Loader[string, attendance.RawUserRecord]
}

// NewAttendanceRepository wraps next. A non-positive ttl disables caching and
// returns next unchanged.
func NewAttendanceRepository(next attendance.RawAttendanceRepository, ttl time.Duration) attendance.RawAttendanceRepository {
	if ttl <= 0 {
		return next
	}

	r := &AttendanceRepository{
		next: next,
		cache: otter.Must(&otter.Options[string, attendance.RawUserRecord]{
			MaximumSize:      maxCachedUsers,
			ExpiryCalculator: otter.ExpiryWriting[string, attendance.RawUserRecord](ttl),
		}),
	}
	r.loader = otter.LoaderFunc[string, attendance.RawUserRecord](r.load)
	return r
}

// GetByUserID returns the cached subtree when present. Cached records are
// shared between callers and must not be modified. Concurrent misses for one
// user share a single load, and a write that lands while a load is in flight
// discards that load's result instead of caching it.
func (r *AttendanceRepository) GetByUserID(ctx context.Context, userID string) (attendance.RawUserRecord, error) {
	return r.cache.Get(ctx, userID, r.loader)
}

func (r *AttendanceRepository) load(ctx context.Context, userID string) (attendance.RawUserRecord, error) {
	rec, err := r.next.GetByUserID(ctx, userID)
	if err != nil {
		return attendance.RawUserRecord{}, err
	}
	slog.DebugContext(ctx, "attendance record cached", "user_id", userID)
	return rec, nil
}

func (r *AttendanceRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	return r.next.ListUserIDs(ctx)
}

func (r *AttendanceRepository) Put(ctx context.Context, userID string, record attendance.RawUserRecord) error {
	defer r.cache.Invalidate(userID)
	return r.next.Put(ctx, userID, record)
}

func (r *AttendanceRepository) DeleteEntries(ctx context.Context, userID string, paths []attendance.EntryPath) error {
	defer r.cache.Invalidate(userID)
	return r.next.DeleteEntries(ctx, userID, paths)
}
