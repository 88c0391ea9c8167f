// internal/app/sync_receiver_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medicine_reminder/internal/domain/acknowledgement"
	"medicine_reminder/internal/infra/metrics"

	"github.com/sirupsen/logrus"
)

// ErrInvalidBatch is returned when a posted batch contains a malformed record.
// The whole batch is rejected so the client keeps it queued.
var ErrInvalidBatch = fmt.Errorf("invalid acknowledgement batch")

// SyncReceiver defines the operations of the sync server.
type SyncReceiver interface {
	Receive(ctx context.Context, records []acknowledgement.Record) (int, error)
	History(ctx context.Context, since time.Time, scheduleIDs []string) ([]acknowledgement.Record, error)
}

var _ SyncReceiver = (*SyncReceiverService)(nil)

// SyncReceiverService is the server side of the sync endpoint.
type SyncReceiverService struct {
	repo   acknowledgement.Repository
	logger *logrus.Entry
}

func NewSyncReceiverService(repo acknowledgement.Repository, logger *logrus.Entry) *SyncReceiverService {
	return &SyncReceiverService{repo: repo, logger: logger}
}

// Receive validates and stores one batch. Records already stored (a client
// retrying after a lost response) are skipped; the number of new records
// is returned.
func (s *SyncReceiverService) Receive(ctx context.Context, records []acknowledgement.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	seen := make(map[string]bool, len(records))
	unique := make([]acknowledgement.Record, 0, len(records))
	for i, r := range records {
		switch {
		case r.ID == "":
			return 0, fmt.Errorf("%w: record %d has no id", ErrInvalidBatch, i)
		case r.Action != acknowledgement.ActionTaken:
			return 0, fmt.Errorf("%w: record %s has action %q", ErrInvalidBatch, r.ID, r.Action)
		case r.Time.IsZero():
			return 0, fmt.Errorf("%w: record %s has no time", ErrInvalidBatch, r.ID)
		}
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		unique = append(unique, r)
	}

	stored, err := s.repo.SaveBatch(ctx, unique)
	if errors.Is(err, acknowledgement.ErrInvalidRecord) {
		s.logger.WithError(err).Warn("Store rejected acknowledgement batch")
		return 0, fmt.Errorf("%w: %w", ErrInvalidBatch, err)
	}
	if err != nil {
		s.logger.WithError(err).Errorf("Failed to store batch of %d acknowledgements", len(unique))
		return 0, fmt.Errorf("failed to store acknowledgements: %w", err)
	}

	metrics.AcknowledgementsReceived.Add(float64(stored))
	s.logger.Infof("Stored %d of %d acknowledgements (%d duplicates)", stored, len(records), len(records)-stored)
	return stored, nil
}

// History returns stored acknowledgements since the given time.
func (s *SyncReceiverService) History(ctx context.Context, since time.Time, scheduleIDs []string) ([]acknowledgement.Record, error) {
	records, err := s.repo.ListSince(ctx, since, scheduleIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list acknowledgements: %w", err)
	}
	return records, nil
}
