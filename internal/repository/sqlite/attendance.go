package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-insights/internal/domain/attendance"
)

type AttendanceRepository struct {
	db *sql.DB
}

func NewAttendanceRepository(db *sql.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

func (r *AttendanceRepository) GetByUserID(ctx context.Context, userID string) (attendance.RawUserRecord, error) {
	var doc string
	err := r.db.QueryRowContext(ctx, `
SELECT document FROM user_attendance WHERE user_id = ?;
`, userID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return attendance.RawUserRecord{}, attendance.ErrUserNotFound
	}
	if err != nil {
		return attendance.RawUserRecord{}, fmt.Errorf("GetByUserID: %w", err)
	}

	var rec attendance.RawUserRecord
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return attendance.RawUserRecord{}, fmt.Errorf("GetByUserID decode %s: %w", userID, err)
	}
	return rec, nil
}

func (r *AttendanceRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT user_id FROM user_attendance ORDER BY user_id ASC;
`)
	if err != nil {
		return nil, fmt.Errorf("ListUserIDs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ListUserIDs scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *AttendanceRepository) Put(ctx context.Context, userID string, record attendance.RawUserRecord) error {
	doc, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("Put encode: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, `
INSERT INTO user_attendance(user_id, document, updated_at_ms) VALUES (?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
  document = excluded.document,
  updated_at_ms = excluded.updated_at_ms;
`, userID, string(doc), time.Now().UTC().UnixMilli()); err != nil {
		return fmt.Errorf("Put: %w", err)
	}
	return nil
}

func (r *AttendanceRepository) DeleteEntries(ctx context.Context, userID string, paths []attendance.EntryPath) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("DeleteEntries begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id string
	err = tx.QueryRowContext(ctx, `SELECT user_id FROM user_attendance WHERE user_id = ?;`, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return attendance.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("DeleteEntries lookup: %w", err)
	}

	now := time.Now().UTC().UnixMilli()
	for _, p := range paths {
		if _, err := tx.ExecContext(ctx, `
UPDATE user_attendance SET document = json_remove(document, ?), updated_at_ms = ?
WHERE user_id = ?;
`, jsonPath(p), now, userID); err != nil {
			return fmt.Errorf("DeleteEntries %s: %w", p, err)
		}
	}

	return tx.Commit()
}

// jsonPath renders p as a sqlite JSON path with every label quoted, so keys
// containing '.' or '-' address a single member.
func jsonPath(p attendance.EntryPath) string {
	var b strings.Builder
	b.WriteString("$")
	for _, label := range p {
		b.WriteString(`."`)
		b.WriteString(strings.ReplaceAll(label, `"`, `\"`))
		b.WriteString(`"`)
	}
	return b.String()
}
