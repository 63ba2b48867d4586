package attendance

import "context"

// RawAttendanceRepository reads the per-user attendance subtrees of the
// document store. The pipeline treats everything it returns as read-only.
type RawAttendanceRepository interface {
	// GetByUserID returns the user's attendance subtree, or ErrUserNotFound
	GetByUserID(ctx context.Context, userID string) (RawUserRecord, error)

	// ListUserIDs returns every user holding an attendance subtree, sorted ascending
	ListUserIDs(ctx context.Context) ([]string, error)

	// Put replaces a user's subtree (imports and fixtures)
	Put(ctx context.Context, userID string, record RawUserRecord) error

	// DeleteEntries removes the given nodes from a user's subtree.
	// Missing nodes are ignored.
	DeleteEntries(ctx context.Context, userID string, paths []EntryPath) error
}
