package acknowledgement

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidRecord is returned by a Repository when the store rejects a
// record's data.
var ErrInvalidRecord = errors.New("acknowledgement rejected by store constraints")

// QueueStore is the durable local acknowledgement queue.
type QueueStore interface {
	// Enqueue persists the record in its own transaction and sets its Key.
	Enqueue(ctx context.Context, rec *Record) error
	// Drain returns every queued record, oldest first, without removing them.
	Drain(ctx context.Context) ([]Record, error)
	// Clear removes every queued record.
	Clear(ctx context.Context) error
	// Remove deletes exactly the given keys in one transaction.
	Remove(ctx context.Context, keys []int64) error
	Count(ctx context.Context) (int, error)
}

// Repository stores synced acknowledgements on the server side.
type Repository interface {
	// SaveBatch stores all records or none. Records whose ID was already
	// stored are skipped; the number of new rows is returned.
	SaveBatch(ctx context.Context, records []Record) (int, error)
	// ListSince returns records acted on at or after since, oldest first,
	// limited to scheduleIDs when any are given.
	ListSince(ctx context.Context, since time.Time, scheduleIDs []string) ([]Record, error)
}
