// internal/infra/database/sqlite_notification_log.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"medicine_reminder/internal/domain/notification"
)

// SQLiteNotificationLog records every dispatched reminder, one row per
// schedule and minute slot.
type SQLiteNotificationLog struct {
	db *sql.DB
}

func NewSQLiteNotificationLog(db *sql.DB) *SQLiteNotificationLog {
	return &SQLiteNotificationLog{db: db}
}

// Append is a no-op for a slot that is already logged.
func (l *SQLiteNotificationLog) Append(ctx context.Context, e notification.LogEntry) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO notification_log (schedule_id, slot, shown_at) VALUES (?, ?, ?) ON CONFLICT(schedule_id, slot) DO NOTHING`,
		e.ScheduleID, e.Slot.Unix(), formatTime(e.ShownAt))
	if err != nil {
		return fmt.Errorf("error appending notification log entry: %w", err)
	}
	return nil
}

func (l *SQLiteNotificationLog) Exists(ctx context.Context, scheduleID string, slot time.Time) (bool, error) {
	var one int
	err := l.db.QueryRowContext(ctx,
		`SELECT 1 FROM notification_log WHERE schedule_id = ? AND slot = ?`,
		scheduleID, slot.Unix()).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error checking notification log: %w", err)
	}
	return true, nil
}

// Recent returns up to limit entries, newest first.
func (l *SQLiteNotificationLog) Recent(ctx context.Context, limit int) ([]notification.LogEntry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT schedule_id, slot, shown_at FROM notification_log ORDER BY slot DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("error reading notification log: %w", err)
	}
	defer rows.Close()

	var entries []notification.LogEntry
	for rows.Next() {
		var (
			e       notification.LogEntry
			slot    int64
			shownAt string
		)
		if err := rows.Scan(&e.ScheduleID, &slot, &shownAt); err != nil {
			return nil, fmt.Errorf("error scanning notification log: %w", err)
		}
		e.Slot = time.Unix(slot, 0)
		if e.ShownAt, err = parseTime(shownAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
