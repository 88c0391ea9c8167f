package schedule

import "context"

// Source supplies the current list of dosing schedules on every polling tick.
type Source interface {
	List(ctx context.Context) ([]DosingSchedule, error)
}
