// internal/infra/database/sqlite_cache_store.go
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"medicine_reminder/internal/domain/cache"
)

// SQLiteCacheStore keeps cache generation buckets in the agent database.
type SQLiteCacheStore struct {
	db *sql.DB
}

func NewSQLiteCacheStore(db *sql.DB) *SQLiteCacheStore {
	return &SQLiteCacheStore{db: db}
}

func (s *SQLiteCacheStore) CreateBucket(ctx context.Context, bucket string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cache_buckets (name, created_at) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		bucket, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("error creating cache bucket %s: %w", bucket, err)
	}
	return nil
}

func (s *SQLiteCacheStore) Buckets(ctx context.Context) ([]string, error) {
	return s.strings(ctx, `SELECT name FROM cache_buckets ORDER BY name`)
}

// DeleteBucket removes the bucket and its entries in one transaction.
func (s *SQLiteCacheStore) DeleteBucket(ctx context.Context, bucket string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting bucket delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cache_entries WHERE bucket = ?`, bucket); err != nil {
		return fmt.Errorf("error deleting entries of %s: %w", bucket, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM cache_buckets WHERE name = ?`, bucket); err != nil {
		return fmt.Errorf("error deleting bucket %s: %w", bucket, err)
	}
	return tx.Commit()
}

func (s *SQLiteCacheStore) Put(ctx context.Context, bucket string, entry cache.Entry) error {
	header, err := json.Marshal(entry.Header)
	if err != nil {
		return fmt.Errorf("error encoding cached headers: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting cache put: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM cache_buckets WHERE name = ?`, bucket).Scan(&exists)
	if err == sql.ErrNoRows {
		return cache.ErrBucketNotFound
	}
	if err != nil {
		return fmt.Errorf("error looking up bucket %s: %w", bucket, err)
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO cache_entries (bucket, key, status, header, body, stored_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(bucket, key) DO UPDATE SET
  status=excluded.status,
  header=excluded.header,
  body=excluded.body,
  stored_at=excluded.stored_at`,
		bucket, entry.Key, entry.Status, string(header), entry.Body, formatTime(entry.StoredAt))
	if err != nil {
		return fmt.Errorf("error storing cache entry %s: %w", entry.Key, err)
	}
	return tx.Commit()
}

func (s *SQLiteCacheStore) Match(ctx context.Context, bucket, key string) (*cache.Entry, error) {
	var (
		entry    = cache.Entry{Key: key}
		header   string
		storedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT status, header, body, stored_at FROM cache_entries WHERE bucket = ? AND key = ?`,
		bucket, key).Scan(&entry.Status, &header, &entry.Body, &storedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, cache.ErrMiss
		}
		return nil, fmt.Errorf("error matching cache entry %s: %w", key, err)
	}

	entry.Header = make(http.Header)
	if err := json.Unmarshal([]byte(header), &entry.Header); err != nil {
		return nil, fmt.Errorf("error decoding cached headers of %s: %w", key, err)
	}
	if entry.StoredAt, err = parseTime(storedAt); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *SQLiteCacheStore) Keys(ctx context.Context, bucket string) ([]string, error) {
	return s.strings(ctx, `SELECT key FROM cache_entries WHERE bucket = ? ORDER BY key`, bucket)
}

func (s *SQLiteCacheStore) strings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying cache store: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("error scanning cache store row: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
