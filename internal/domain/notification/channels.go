// internal/domain/notification/channels.go
package notification

import (
	"context"
	"time"
)

// PermissionSource tells whether the user allowed system notifications.
type PermissionSource interface {
	Granted(ctx context.Context) bool
}

// NotificationSink raises a persistent, user-dismissable system notification.
type NotificationSink interface {
	Name() string
	Notify(ctx context.Context, msg Message) error
}

// SoundPlayer plays an audible alert. Used both for the sound file and
// for the synthesized tone fallback.
type SoundPlayer interface {
	Play(ctx context.Context) error
}

// Alerter shows a blocking alert with the reminder text. It is the last
// resort channel.
type Alerter interface {
	Alert(ctx context.Context, text string) error
}

// Viewport classifies the display the user is looking at.
type Viewport interface {
	Small() bool
}

// LogRepository persists NotificationLogEntries.
type LogRepository interface {
	Append(ctx context.Context, entry LogEntry) error
	Exists(ctx context.Context, scheduleID string, slot time.Time) (bool, error)
}
