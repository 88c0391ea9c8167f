// internal/app/sync_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"medicine_reminder/internal/domain/acknowledgement"
	"medicine_reminder/internal/infra/metrics"
	"medicine_reminder/internal/infra/scheduler"

	"github.com/sirupsen/logrus"
)

// ErrSyncInProgress is returned when another attempt holds the queue.
var ErrSyncInProgress = fmt.Errorf("acknowledgement sync already in progress")

// SyncTag names the sync requested after a dose is taken.
const SyncTag = "sync-medicines"

// BatchSender posts a batch to the remote sync endpoint. A nil error means
// the endpoint confirmed the whole batch.
type BatchSender interface {
	Send(ctx context.Context, records []acknowledgement.Record) error
}

// SyncResult holds counters for one sync attempt.
type SyncResult struct {
	Pending int // Records drained from the queue
	Sent    int // Records confirmed by the endpoint and removed locally
}

var _ SyncTrigger = (*SyncCoordinator)(nil)

// SyncCoordinator drains the acknowledgement queue to the remote endpoint.
// A batch is removed locally only after the endpoint confirmed it.
type SyncCoordinator struct {
	queue    acknowledgement.QueueStore
	sender   BatchSender
	logger   *logrus.Entry
	running  sync.Mutex
	missed   atomic.Bool // An attempt was refused while running was held
	triggers chan struct{}
}

func NewSyncCoordinator(queue acknowledgement.QueueStore, sender BatchSender, logger *logrus.Entry) *SyncCoordinator {
	return &SyncCoordinator{
		queue:    queue,
		sender:   sender,
		logger:   logger,
		triggers: make(chan struct{}, 1),
	}
}

// Sync performs one attempt. An attempt refused with ErrSyncInProgress is
// re-armed as a Trigger once the running one finishes.
func (c *SyncCoordinator) Sync(ctx context.Context) (SyncResult, error) {
	var result SyncResult

	if !c.running.TryLock() {
		c.missed.Store(true)
		return result, ErrSyncInProgress
	}
	defer func() {
		c.running.Unlock()
		if c.missed.Swap(false) {
			c.Trigger()
		}
	}()

	records, err := c.queue.Drain(ctx)
	if err != nil {
		metrics.SyncAttempts.WithLabelValues("store_error").Inc()
		return result, fmt.Errorf("failed to drain acknowledgement queue: %w", err)
	}
	result.Pending = len(records)
	if len(records) == 0 {
		metrics.SyncAttempts.WithLabelValues("empty").Inc()
		return result, nil
	}

	if err := c.sender.Send(ctx, records); err != nil {
		metrics.SyncAttempts.WithLabelValues("failed").Inc()
		c.logger.WithError(err).Warnf("Sync of %d acknowledgements failed, keeping them queued", len(records))
		return result, fmt.Errorf("failed to send acknowledgements: %w", err)
	}

	// Only the drained keys are removed: records queued while the batch was
	// in flight stay for the next attempt.
	keys := make([]int64, len(records))
	for i, r := range records {
		keys[i] = r.Key
	}
	if err := c.queue.Remove(ctx, keys); err != nil {
		metrics.SyncAttempts.WithLabelValues("store_error").Inc()
		return result, fmt.Errorf("batch confirmed but local removal failed: %w", err)
	}

	result.Sent = len(records)
	metrics.SyncAttempts.WithLabelValues("ok").Inc()
	c.logger.Infof("Synced %d acknowledgements", result.Sent)
	return result, nil
}

// Trigger requests an attempt from Run without blocking. Triggers that
// arrive while one is pending collapse into it.
func (c *SyncCoordinator) Trigger() {
	select {
	case c.triggers <- struct{}{}:
	default:
	}
}

// Run performs an attempt for every Trigger call and every reconnect
// signal until ctx is done. signals may be nil.
func (c *SyncCoordinator) Run(ctx context.Context, signals <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.triggers:
			c.attempt(ctx, SyncTag)
		case _, ok := <-signals:
			if !ok {
				signals = nil
				continue
			}
			c.attempt(ctx, "reconnect")
		}
	}
}

// StartFallback polls the queue on spec for platforms without a reconnect signal.
func (c *SyncCoordinator) StartFallback(poller *scheduler.Poller, spec string) (*scheduler.PollHandle, error) {
	return poller.StartPolling("sync", spec, func(ctx context.Context) {
		c.attempt(ctx, "poll")
	})
}

func (c *SyncCoordinator) attempt(ctx context.Context, reason string) {
	logCtx := c.logger.WithField("trigger", reason)
	res, err := c.Sync(ctx)
	switch {
	case errors.Is(err, ErrSyncInProgress):
		logCtx.Debug("Sync already running, retrying when it finishes")
	case err != nil:
		logCtx.WithError(err).Warn("Sync attempt failed, will retry on next trigger")
	case res.Pending > 0:
		logCtx.Debugf("Sync attempt sent %d records", res.Sent)
	}
}
