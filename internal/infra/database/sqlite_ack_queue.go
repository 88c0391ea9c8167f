// internal/infra/database/sqlite_ack_queue.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"medicine_reminder/internal/domain/acknowledgement"
)

// SQLiteAckQueue is the durable acknowledgement queue of the agent.
type SQLiteAckQueue struct {
	db *sql.DB
}

func NewSQLiteAckQueue(db *sql.DB) *SQLiteAckQueue {
	return &SQLiteAckQueue{db: db}
}

func (q *SQLiteAckQueue) Enqueue(ctx context.Context, rec *acknowledgement.Record) error {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting enqueue transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO ack_queue (id, acted_at, action, schedule_id) VALUES (?, ?, ?, ?)`,
		rec.ID, formatTime(rec.Time), rec.Action, rec.ScheduleID)
	if err != nil {
		return fmt.Errorf("error enqueuing acknowledgement: %w", err)
	}
	key, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("error reading queue key: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing acknowledgement: %w", err)
	}

	rec.Key = key
	return nil
}

func (q *SQLiteAckQueue) Drain(ctx context.Context) ([]acknowledgement.Record, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT key, id, acted_at, action, schedule_id FROM ack_queue ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("error reading acknowledgement queue: %w", err)
	}
	defer rows.Close()

	var records []acknowledgement.Record
	for rows.Next() {
		var (
			rec     acknowledgement.Record
			actedAt string
		)
		if err := rows.Scan(&rec.Key, &rec.ID, &actedAt, &rec.Action, &rec.ScheduleID); err != nil {
			return nil, fmt.Errorf("error scanning queued acknowledgement: %w", err)
		}
		if rec.Time, err = parseTime(actedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating acknowledgement queue: %w", err)
	}
	return records, nil
}

func (q *SQLiteAckQueue) Clear(ctx context.Context) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM ack_queue`); err != nil {
		return fmt.Errorf("error clearing acknowledgement queue: %w", err)
	}
	return nil
}

func (q *SQLiteAckQueue) Remove(ctx context.Context, keys []int64) error {
	if len(keys) == 0 {
		return nil
	}
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting remove transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `DELETE FROM ack_queue WHERE key = ?`)
	if err != nil {
		return fmt.Errorf("error preparing remove: %w", err)
	}
	defer stmt.Close()

	for _, key := range keys {
		if _, err := stmt.ExecContext(ctx, key); err != nil {
			return fmt.Errorf("error removing acknowledgement %d: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing remove: %w", err)
	}
	return nil
}

func (q *SQLiteAckQueue) Count(ctx context.Context) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ack_queue`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting acknowledgement queue: %w", err)
	}
	return n, nil
}
