package app

import (
	"time"

	"medicine_reminder/internal/domain/notification"
	"medicine_reminder/internal/domain/schedule"
)

// Match returns the schedules due at now. A schedule is due when the weekday
// name of now is one of its days and one of its times equals now rendered as
// HH:MM. Equality is exact: a tick that misses the minute skips that dose.
// now is interpreted in its own location, which callers set to local time.
func Match(now time.Time, schedules []schedule.DosingSchedule) []notification.DueReminder {
	var (
		due     []notification.DueReminder
		weekday = now.Weekday()
		hhmm    = now.Format(schedule.TimeOfDayLayout)
		slot    = now.Truncate(time.Minute)
	)

	for _, s := range schedules {
		if !s.Eligible() || !s.OnDay(weekday) || !s.HasTime(hhmm) {
			continue
		}
		due = append(due, notification.DueReminder{
			ScheduleID: s.ID,
			FiredAt:    slot,
		})
	}
	return due
}
