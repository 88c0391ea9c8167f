// internal/domain/notification/reminder.go
package notification

import (
	"strings"
	"time"

	"medicine_reminder/internal/domain/schedule"
)

const (
	DefaultTitle = "Medicine Reminder"
	DefaultBody  = "Time to take your medicine"
	Tag          = "medicine-reminder"
)

// DueReminder is produced by the matcher for one schedule at one minute slot.
type DueReminder struct {
	ScheduleID string
	FiredAt    time.Time
}

// LogEntry records that a notification was shown for a schedule.
type LogEntry struct {
	ScheduleID string
	ShownAt    time.Time
	Slot       time.Time // Minute slot of the DueReminder
}

// Message is the user-visible content of a system notification.
type Message struct {
	Title              string
	Body               string
	Tag                string
	ScheduleID         string // Empty for push messages
	RequireInteraction bool
	Actions            []ActionButton
}

// ActionButton is a button shown on a persistent notification.
type ActionButton struct {
	Action Action
	Title  string
}

// DefaultActions are attached to every reminder notification.
var DefaultActions = []ActionButton{
	{Action: ActionTake, Title: "Take Now"},
	{Action: ActionSnooze, Title: "Snooze"},
}

// Describe renders the reminder text for a schedule. Missing optional
// parts are left out rather than rendered empty.
func Describe(s schedule.DosingSchedule) string {
	var b strings.Builder
	b.WriteString("Hey")
	if s.PatientName != "" {
		b.WriteString(", ")
		b.WriteString(s.PatientName)
	}
	b.WriteString(", It's your time to take ")
	b.WriteString(s.Name)
	if s.Dosage != "" {
		b.WriteString(" - ")
		b.WriteString(s.Dosage)
	}
	if s.MealRelation != "" {
		b.WriteString(", Make sure to take it ")
		b.WriteString(s.MealRelation)
	}
	return b.String()
}

// ForSchedule builds the persistent notification for a due schedule.
func ForSchedule(s schedule.DosingSchedule) Message {
	return Message{
		Title:              DefaultTitle,
		Body:               Describe(s),
		Tag:                Tag,
		ScheduleID:         s.ID,
		RequireInteraction: true,
		Actions:            DefaultActions,
	}
}
