// internal/app/dispatcher.go
package app

import (
	"context"
	"fmt"
	"time"

	"medicine_reminder/internal/domain/notification"
	"medicine_reminder/internal/domain/schedule"
	"medicine_reminder/internal/infra/metrics"

	"github.com/sirupsen/logrus"
)

// Audible channels used for a dispatch.
const (
	SoundPlayed = "sound"
	SoundTone   = "tone"
	SoundAlert  = "alert"
	SoundNone   = "none"
)

// DispatchReport describes which channels delivered a reminder.
type DispatchReport struct {
	Suppressed bool   // Permission denied, nothing was attempted
	Sound      string // One of the Sound* constants
	Alerted    bool   // The blocking alert was shown (fallback or small viewport)
	Sink       string // Name of the sink that raised the system notification, empty if none did
	Logged     bool
}

// PushDispatcher raises messages pushed from outside the schedule.
type PushDispatcher interface {
	DispatchPush(ctx context.Context, msg notification.Message) DispatchReport
}

var _ PushDispatcher = (*Dispatcher)(nil)

// Dispatcher turns due reminders into user-visible alerts. Every step is
// best effort: a failing channel degrades to a weaker one and never stops
// the remaining steps.
type Dispatcher struct {
	permission notification.PermissionSource
	sinks      []notification.NotificationSink // Primary first
	sound      notification.SoundPlayer
	tone       notification.SoundPlayer // May be nil when no synthesizer exists
	alerter    notification.Alerter
	viewport   notification.Viewport
	notifLog   notification.LogRepository
	logger     *logrus.Entry
	now        func() time.Time
}

// DispatcherDeps groups the injected capabilities of a Dispatcher.
type DispatcherDeps struct {
	Permission notification.PermissionSource
	Sinks      []notification.NotificationSink
	Sound      notification.SoundPlayer
	Tone       notification.SoundPlayer
	Alerter    notification.Alerter
	Viewport   notification.Viewport
	Log        notification.LogRepository
}

func NewDispatcher(deps DispatcherDeps, logger *logrus.Entry) *Dispatcher {
	return &Dispatcher{
		permission: deps.Permission,
		sinks:      deps.Sinks,
		sound:      deps.Sound,
		tone:       deps.Tone,
		alerter:    deps.Alerter,
		viewport:   deps.Viewport,
		notifLog:   deps.Log,
		logger:     logger,
		now:        time.Now,
	}
}

// Dispatch delivers one due reminder for the given schedule.
func (d *Dispatcher) Dispatch(ctx context.Context, due notification.DueReminder, s schedule.DosingSchedule) DispatchReport {
	var report DispatchReport
	logCtx := d.logger.WithField("schedule_id", due.ScheduleID)

	if !d.permitted(ctx) {
		logCtx.Info("Notification permission not granted, reminder suppressed")
		report.Suppressed = true
		metrics.RemindersDispatched.WithLabelValues("suppressed").Inc()
		return report
	}

	msg := notification.ForSchedule(s)

	// 1. Audible alert: sound file, then synthesized tone, then blocking alert.
	report.Sound = d.playSound(ctx, logCtx, msg.Body)
	if report.Sound == SoundAlert {
		report.Alerted = true
	}

	// 2. Small displays always get the blocking alert as well.
	if d.viewport != nil && d.viewport.Small() {
		if err := d.safely("alert", func() error { return d.alerter.Alert(ctx, msg.Body) }); err != nil {
			logCtx.WithError(err).Warn("Blocking alert failed on small viewport")
		} else {
			report.Alerted = true
		}
	}

	// 3. Persistent system notification.
	report.Sink = d.notify(ctx, logCtx, msg)
	if report.Sink == "" && !report.Alerted {
		if err := d.safely("alert", func() error { return d.alerter.Alert(ctx, msg.Body) }); err != nil {
			logCtx.WithError(err).Error("All delivery channels failed")
		} else {
			report.Alerted = true
		}
	}

	// 4. Log entry for deduplication and audit.
	entry := notification.LogEntry{ScheduleID: due.ScheduleID, ShownAt: d.now(), Slot: due.FiredAt}
	if d.notifLog != nil {
		if err := d.safely("log", func() error { return d.notifLog.Append(ctx, entry) }); err != nil {
			logCtx.WithError(err).Warn("Failed to append notification log entry")
		} else {
			report.Logged = true
		}
	}

	channel := report.Sink
	if channel == "" {
		channel = "alert"
	}
	metrics.RemindersDispatched.WithLabelValues(channel).Inc()
	logCtx.Infof("Reminder dispatched (sound: %s, sink: %q, alert: %v)", report.Sound, report.Sink, report.Alerted)
	return report
}

// DispatchPush raises a system notification for an inbound push message.
func (d *Dispatcher) DispatchPush(ctx context.Context, msg notification.Message) DispatchReport {
	var report DispatchReport
	if !d.permitted(ctx) {
		d.logger.Info("Notification permission not granted, push suppressed")
		report.Suppressed = true
		return report
	}
	report.Sound = SoundNone
	report.Sink = d.notify(ctx, d.logger, msg)
	if report.Sink == "" {
		d.logger.Warn("Push message could not be shown on any sink")
	}
	return report
}

func (d *Dispatcher) permitted(ctx context.Context) bool {
	if d.permission == nil {
		return true
	}
	granted := false
	if err := d.safely("permission", func() error {
		granted = d.permission.Granted(ctx)
		return nil
	}); err != nil {
		d.logger.WithError(err).Warn("Permission check failed, treating as denied")
		return false
	}
	return granted
}

func (d *Dispatcher) playSound(ctx context.Context, logCtx *logrus.Entry, text string) string {
	if d.sound != nil {
		err := d.safely("sound", func() error { return d.sound.Play(ctx) })
		if err == nil {
			return SoundPlayed
		}
		logCtx.WithError(err).Warn("Failed to play notification sound")
	}
	if d.tone != nil {
		err := d.safely("tone", func() error { return d.tone.Play(ctx) })
		if err == nil {
			return SoundTone
		}
		logCtx.WithError(err).Warn("Failed to play synthesized tone")
	}
	if d.alerter != nil {
		err := d.safely("alert", func() error { return d.alerter.Alert(ctx, text) })
		if err == nil {
			return SoundAlert
		}
		logCtx.WithError(err).Warn("Blocking alert fallback failed")
	}
	return SoundNone
}

func (d *Dispatcher) notify(ctx context.Context, logCtx *logrus.Entry, msg notification.Message) string {
	for _, sink := range d.sinks {
		err := d.safely(sink.Name(), func() error { return sink.Notify(ctx, msg) })
		if err == nil {
			return sink.Name()
		}
		logCtx.WithError(err).WithField("sink", sink.Name()).Warn("Notification sink failed, trying next")
	}
	return ""
}

// safely runs one channel call and converts a panic into an error, so a
// misbehaving channel cannot escape Dispatch.
func (d *Dispatcher) safely(step string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", step, r)
		}
	}()
	if step == "alert" && d.alerter == nil {
		return fmt.Errorf("no alert channel configured")
	}
	return fn()
}
