package app

import (
	"context"
	"fmt"
	"time"

	"medicine_reminder/internal/domain/acknowledgement"
	"medicine_reminder/internal/domain/notification"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrUnknownAction is returned for action names outside the action surface.
var ErrUnknownAction = fmt.Errorf("unknown notification action")

// SyncTrigger asks the sync coordinator for an attempt as soon as possible.
type SyncTrigger interface {
	Trigger()
}

// ActionHandler defines the operations behind a notification's buttons.
type ActionHandler interface {
	Handle(ctx context.Context, actionName, scheduleID string) (*acknowledgement.Record, error)
}

var _ ActionHandler = (*ActionService)(nil)

// ActionService handles user responses to delivered notifications.
type ActionService struct {
	queue   acknowledgement.QueueStore
	trigger SyncTrigger // May be nil
	logger  *logrus.Entry
	now     func() time.Time
}

func NewActionService(queue acknowledgement.QueueStore, trigger SyncTrigger, logger *logrus.Entry) *ActionService {
	return &ActionService{queue: queue, trigger: trigger, logger: logger, now: time.Now}
}

// Handle routes an action. take/taken is recorded in the acknowledgement
// queue; snooze/dismiss have no persisted effect. Queue failures are
// returned so the caller can tell the user the acknowledgement was not kept.
func (s *ActionService) Handle(ctx context.Context, actionName, scheduleID string) (*acknowledgement.Record, error) {
	action, ok := notification.ParseAction(actionName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, actionName)
	}
	logCtx := s.logger.WithField("action", action).WithField("schedule_id", scheduleID)

	if !action.Acknowledges() {
		logCtx.Info("Notification action has no persisted effect")
		return nil, nil
	}

	rec := &acknowledgement.Record{
		ID:         uuid.NewString(),
		Time:       s.now().UTC(),
		Action:     acknowledgement.ActionTaken,
		ScheduleID: scheduleID,
	}
	if err := s.queue.Enqueue(ctx, rec); err != nil {
		logCtx.WithError(err).Error("Failed to store acknowledgement")
		return nil, fmt.Errorf("failed to store acknowledgement: %w", err)
	}
	logCtx.WithField("key", rec.Key).Info("Acknowledgement queued")

	if s.trigger != nil {
		s.trigger.Trigger()
	}
	return rec, nil
}
