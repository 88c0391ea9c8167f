// internal/app/reminder_service.go
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"medicine_reminder/internal/domain/notification"
	"medicine_reminder/internal/domain/schedule"
	"medicine_reminder/internal/infra/scheduler"

	"github.com/sirupsen/logrus"
)

// ReminderService polls the schedules collaborator and dispatches due reminders.
type ReminderService struct {
	source     schedule.Source
	dispatcher *Dispatcher
	notifLog   notification.LogRepository // May be nil; the in-memory set still dedupes
	logger     *logrus.Entry
	now        func() time.Time

	mu    sync.Mutex
	shown map[string]time.Time // schedule ID -> last dispatched slot
}

func NewReminderService(source schedule.Source, dispatcher *Dispatcher, notifLog notification.LogRepository, logger *logrus.Entry) *ReminderService {
	return &ReminderService{
		source:     source,
		dispatcher: dispatcher,
		notifLog:   notifLog,
		logger:     logger,
		now:        time.Now,
		shown:      make(map[string]time.Time),
	}
}

// Start runs an initial check and then polls on spec. The caller owns the
// returned handle and must stop it before starting another one.
func (s *ReminderService) Start(poller *scheduler.Poller, spec string) (*scheduler.PollHandle, error) {
	handle, err := poller.StartPolling("matcher", spec, func(ctx context.Context) {
		if _, err := s.Tick(ctx, s.now()); err != nil {
			s.logger.WithError(err).Error("Reminder check failed")
		}
	})
	if err != nil {
		return nil, err
	}
	handle.RunNow(func(ctx context.Context) {
		if _, err := s.Tick(ctx, s.now()); err != nil {
			s.logger.WithError(err).Error("Initial reminder check failed")
		}
	})
	return handle, nil
}

// Tick performs one evaluation at now and returns the reminders it dispatched.
func (s *ReminderService) Tick(ctx context.Context, now time.Time) ([]notification.DueReminder, error) {
	schedules, err := s.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}

	var dispatched []notification.DueReminder
	for _, sc := range schedules {
		for _, due := range Match(now, []schedule.DosingSchedule{sc}) {
			if s.alreadyShown(ctx, due) {
				s.logger.WithField("schedule_id", due.ScheduleID).Debug("Reminder already shown for this slot, skipping")
				continue
			}
			s.markShown(due)
			s.dispatcher.Dispatch(ctx, due, sc)
			dispatched = append(dispatched, due)
		}
	}
	return dispatched, nil
}

func (s *ReminderService) alreadyShown(ctx context.Context, due notification.DueReminder) bool {
	s.mu.Lock()
	last, ok := s.shown[due.ScheduleID]
	s.mu.Unlock()
	if ok && last.Equal(due.FiredAt) {
		return true
	}
	if s.notifLog == nil {
		return false
	}
	exists, err := s.notifLog.Exists(ctx, due.ScheduleID, due.FiredAt)
	if err != nil {
		s.logger.WithError(err).Warn("Notification log lookup failed, relying on in-memory log")
		return false
	}
	return exists
}

func (s *ReminderService) markShown(due notification.DueReminder) {
	s.mu.Lock()
	s.shown[due.ScheduleID] = due.FiredAt
	s.mu.Unlock()
}
