// internal/domain/schedule/schedule.go
package schedule

import "time"

// Weekdays holds the canonical weekday labels, indexed by time.Weekday.
var Weekdays = [7]string{
	"Sunday",
	"Monday",
	"Tuesday",
	"Wednesday",
	"Thursday",
	"Friday",
	"Saturday",
}

// TimeOfDayLayout is the 24-hour, zero-padded wall-clock layout used for dose times.
const TimeOfDayLayout = "15:04"

// DosingSchedule is a medicine with the weekdays and times it should be taken.
// It is owned by the schedules collaborator; this module only reads it.
type DosingSchedule struct {
	ID           string   // Stable across edits
	Name         string   // Medicine name
	Dosage       string   // Free text, e.g. "1 pill"
	PatientName  string   // Optional
	MealRelation string   // Optional, e.g. "after meal"
	Days         []string // Subset of Weekdays, order irrelevant
	Times        []string // "HH:MM" local time
}

// Eligible reports whether the schedule can ever be matched.
func (s DosingSchedule) Eligible() bool {
	return len(s.Days) > 0 && len(s.Times) > 0
}

// OnDay reports whether the schedule lists the weekday label of d.
func (s DosingSchedule) OnDay(d time.Weekday) bool {
	label := Weekdays[d]
	for _, day := range s.Days {
		if day == label {
			return true
		}
	}
	return false
}

// HasTime reports whether hhmm is one of the schedule's times.
func (s DosingSchedule) HasTime(hhmm string) bool {
	for _, t := range s.Times {
		if t == hhmm {
			return true
		}
	}
	return false
}
