package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-insights/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-insights/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.RawAttendanceRepository {
	return &attendanceRepository{db: db}
}

// GetByUserID implements attendance.RawAttendanceRepository.
func (a *attendanceRepository) GetByUserID(ctx context.Context, userID string) (attendance.RawUserRecord, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT document
		FROM user_attendance
		WHERE user_id = $1
	`

	var doc []byte
	if err := q.QueryRow(ctx, query, userID).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.RawUserRecord{}, attendance.ErrUserNotFound
		}
		return attendance.RawUserRecord{}, fmt.Errorf("failed to get attendance document: %w", err)
	}

	var rec attendance.RawUserRecord
	if err := json.Unmarshal(doc, &rec); err != nil {
		return attendance.RawUserRecord{}, fmt.Errorf("failed to decode attendance document for %s: %w", userID, err)
	}

	return rec, nil
}

// ListUserIDs implements attendance.RawAttendanceRepository.
func (a *attendanceRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, a.db)

	rows, err := q.Query(ctx, `SELECT user_id FROM user_attendance ORDER BY user_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance users: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan attendance users: %w", err)
	}

	return ids, nil
}

// Put implements attendance.RawAttendanceRepository.
func (a *attendanceRepository) Put(ctx context.Context, userID string, record attendance.RawUserRecord) error {
	q := GetQuerier(ctx, a.db)

	doc, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode attendance document: %w", err)
	}

	query := `
		INSERT INTO user_attendance (user_id, document, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET document = EXCLUDED.document, updated_at = NOW()
	`

	if _, err := q.Exec(ctx, query, userID, string(doc)); err != nil {
		return fmt.Errorf("failed to put attendance document: %w", err)
	}

	return nil
}

// DeleteEntries implements attendance.RawAttendanceRepository.
func (a *attendanceRepository) DeleteEntries(ctx context.Context, userID string, paths []attendance.EntryPath) error {
	return WithTransaction(ctx, a.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, a.db)

		var locked string
		err := q.QueryRow(ctx,
			`SELECT user_id FROM user_attendance WHERE user_id = $1 FOR UPDATE`, userID,
		).Scan(&locked)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return attendance.ErrUserNotFound
			}
			return fmt.Errorf("failed to lock attendance document: %w", err)
		}

		query := `
			UPDATE user_attendance
			SET document = document #- $2::text[], updated_at = NOW()
			WHERE user_id = $1
		`
		for _, p := range paths {
			if _, err := q.Exec(ctx, query, userID, []string(p)); err != nil {
				return fmt.Errorf("failed to delete %s: %w", p, err)
			}
		}
		return nil
	})
}
