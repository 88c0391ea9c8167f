package cache

import (
	"context"
	"errors"
)

// ErrMiss is returned by Match when the bucket has no entry for the key.
var ErrMiss = errors.New("cache: no matching entry")

// ErrBucketNotFound is returned when writing to a bucket that was never created.
var ErrBucketNotFound = errors.New("cache: bucket not found")

// Store holds named buckets of cached responses, one bucket per generation.
type Store interface {
	CreateBucket(ctx context.Context, bucket string) error
	Buckets(ctx context.Context) ([]string, error)
	DeleteBucket(ctx context.Context, bucket string) error
	Put(ctx context.Context, bucket string, entry Entry) error
	// Match returns the exact entry for key, or ErrMiss.
	Match(ctx context.Context, bucket, key string) (*Entry, error)
	Keys(ctx context.Context, bucket string) ([]string, error)
}
