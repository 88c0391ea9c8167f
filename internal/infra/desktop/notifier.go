// Package desktop raises freedesktop.org notifications over the D-Bus
// session bus and reports the buttons the user presses on them.
package desktop

import (
	"context"
	"fmt"
	"sync"

	"medicine_reminder/internal/domain/notification"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
)

const (
	notifyObj    = "org.freedesktop.Notifications"
	notifyIntf   = "org.freedesktop.Notifications"
	notifyPath   = "/org/freedesktop/Notifications"
	notifyMethod = notifyIntf + ".Notify"

	signalActionInvoked = notifyIntf + ".ActionInvoked"
	signalClosed        = notifyIntf + ".NotificationClosed"

	urgencyCritical byte  = 2
	neverExpire     int32 = 0
)

// ActionHandler receives an action pressed on a notification this process raised.
type ActionHandler func(ctx context.Context, action, scheduleID string)

// Notifier is a NotificationSink and PermissionSource backed by the
// desktop notification daemon.
type Notifier struct {
	conn    *dbus.Conn
	appName string
	logger  *logrus.Entry

	mu      sync.Mutex
	pending map[uint32]string // notification id -> schedule id
}

// Connect opens a private connection to the session bus.
func Connect(appName string, logger *logrus.Entry) (*Notifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Notifier{
		conn:    conn,
		appName: appName,
		logger:  logger,
		pending: make(map[uint32]string),
	}, nil
}

func (n *Notifier) Name() string { return "desktop" }

// Granted reports whether a notification daemon owns its bus name.
func (n *Notifier) Granted(ctx context.Context) bool {
	var owned bool
	err := n.conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.NameHasOwner", 0, notifyObj).Store(&owned)
	if err != nil {
		n.logger.WithError(err).Debug("Cannot query notification daemon")
		return false
	}
	return owned
}

// Notify raises a notification that stays until the user acts on it when
// msg requires interaction.
func (n *Notifier) Notify(ctx context.Context, msg notification.Message) error {
	obj := n.conn.Object(notifyObj, notifyPath)

	var id uint32
	err := obj.CallWithContext(ctx, notifyMethod, 0,
		n.appName,
		uint32(0),
		"",
		msg.Title,
		msg.Body,
		actionList(msg.Actions),
		hints(msg),
		expireTimeout(msg),
	).Store(&id)
	if err != nil {
		return fmt.Errorf("cannot send notification %q: %w", msg.Title, err)
	}

	n.mu.Lock()
	n.pending[id] = msg.ScheduleID
	n.mu.Unlock()
	return nil
}

// ListenActions delivers ActionInvoked signals for this process's
// notifications to handler until ctx is done.
func (n *Notifier) ListenActions(ctx context.Context, handler ActionHandler) error {
	for _, member := range []string{"ActionInvoked", "NotificationClosed"} {
		if err := n.conn.AddMatchSignalContext(ctx,
			dbus.WithMatchObjectPath(notifyPath),
			dbus.WithMatchInterface(notifyIntf),
			dbus.WithMatchMember(member),
		); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", member, err)
		}
	}

	signals := make(chan *dbus.Signal, 16)
	n.conn.Signal(signals)

	go func() {
		defer n.conn.RemoveSignal(signals)
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-signals:
				n.handleSignal(ctx, sig, handler)
			}
		}
	}()
	return nil
}

func (n *Notifier) handleSignal(ctx context.Context, sig *dbus.Signal, handler ActionHandler) {
	if sig == nil {
		return
	}
	switch sig.Name {
	case signalActionInvoked:
		id, action, ok := parseActionInvoked(sig)
		if !ok {
			return
		}
		n.mu.Lock()
		scheduleID, mine := n.pending[id]
		n.mu.Unlock()
		if !mine || action == "default" {
			return
		}
		n.logger.WithField("notification_id", id).Debugf("Action %q invoked", action)
		handler(ctx, action, scheduleID)
	case signalClosed:
		if len(sig.Body) > 0 {
			if id, ok := sig.Body[0].(uint32); ok {
				n.mu.Lock()
				delete(n.pending, id)
				n.mu.Unlock()
			}
		}
	}
}

func (n *Notifier) Close() error {
	return n.conn.Close()
}

func parseActionInvoked(sig *dbus.Signal) (uint32, string, bool) {
	if len(sig.Body) != 2 {
		return 0, "", false
	}
	id, ok := sig.Body[0].(uint32)
	if !ok {
		return 0, "", false
	}
	action, ok := sig.Body[1].(string)
	return id, action, ok
}

// actionList flattens buttons into the key, label pairs the Notify call expects.
func actionList(buttons []notification.ActionButton) []string {
	out := make([]string, 0, 2*len(buttons))
	for _, b := range buttons {
		out = append(out, string(b.Action), b.Title)
	}
	return out
}

func hints(msg notification.Message) map[string]dbus.Variant {
	h := map[string]dbus.Variant{
		"category": dbus.MakeVariant("reminder"),
	}
	if msg.RequireInteraction {
		h["urgency"] = dbus.MakeVariant(urgencyCritical)
		h["resident"] = dbus.MakeVariant(true)
	}
	return h
}

func expireTimeout(msg notification.Message) int32 {
	if msg.RequireInteraction {
		return neverExpire
	}
	return -1 // Server default
}
