package app

import (
	"context"

	"medicine_reminder/internal/domain/notification"
)

// PermissionGate grants notification permission when notifications are
// enabled and at least one delivery channel grants it. With no sources the
// switch alone decides.
type PermissionGate struct {
	Enabled bool
	Sources []notification.PermissionSource
}

func (g PermissionGate) Granted(ctx context.Context) bool {
	if !g.Enabled {
		return false
	}
	if len(g.Sources) == 0 {
		return true
	}
	for _, s := range g.Sources {
		if s.Granted(ctx) {
			return true
		}
	}
	return false
}
