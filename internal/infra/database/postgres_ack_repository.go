// internal/infra/database/postgres_ack_repository.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"medicine_reminder/internal/domain/acknowledgement"

	"github.com/lib/pq"
)

type PostgresAckRepository struct {
	db *sql.DB
}

func NewPostgresAckRepository(db *sql.DB) *PostgresAckRepository {
	return &PostgresAckRepository{db: db}
}

// SaveBatch inserts the batch in one transaction. Rows whose id is already
// stored are skipped.
func (r *PostgresAckRepository) SaveBatch(ctx context.Context, records []acknowledgement.Record) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("error starting batch transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO acknowledgements (id, acted_at, action, schedule_id)
               VALUES ($1, $2, $3, $4)
               ON CONFLICT (id) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("error preparing acknowledgement insert: %w", err)
	}
	defer stmt.Close()

	stored := 0
	for _, rec := range records {
		res, err := stmt.ExecContext(ctx, rec.ID, rec.Time.UTC(), rec.Action, rec.ScheduleID)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && (pqErr.Code.Class() == "22" || pqErr.Code.Class() == "23") {
				return 0, fmt.Errorf("%w: %s: %s", acknowledgement.ErrInvalidRecord, rec.ID, pqErr.Message)
			}
			return 0, fmt.Errorf("error inserting acknowledgement %s: %w", rec.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("error reading affected rows: %w", err)
		}
		stored += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing acknowledgement batch: %w", err)
	}
	return stored, nil
}

// ListSince returns acknowledgements acted on at or after since, oldest
// first. An empty scheduleIDs list matches every schedule.
func (r *PostgresAckRepository) ListSince(ctx context.Context, since time.Time, scheduleIDs []string) ([]acknowledgement.Record, error) {
	query := `SELECT id, acted_at, action, schedule_id FROM acknowledgements
               WHERE acted_at >= $1 AND (cardinality($2::text[]) = 0 OR schedule_id = ANY($2))
               ORDER BY acted_at`
	if scheduleIDs == nil {
		scheduleIDs = []string{}
	}
	rows, err := r.db.QueryContext(ctx, query, since.UTC(), pq.Array(scheduleIDs))
	if err != nil {
		return nil, fmt.Errorf("error listing acknowledgements: %w", err)
	}
	defer rows.Close()

	var records []acknowledgement.Record
	for rows.Next() {
		var rec acknowledgement.Record
		if err := rows.Scan(&rec.ID, &rec.Time, &rec.Action, &rec.ScheduleID); err != nil {
			return nil, fmt.Errorf("error scanning acknowledgement: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
