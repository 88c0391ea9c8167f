package desktop

import (
	"context"
	"io"
	"testing"

	"medicine_reminder/internal/domain/notification"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
)

func TestActionListPairs(t *testing.T) {
	got := actionList(notification.DefaultActions)
	want := []string{"take", "Take Now", "snooze", "Snooze"}
	if len(got) != len(want) {
		t.Fatalf("actionList = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("actionList[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPersistentNotificationHints(t *testing.T) {
	msg := notification.Message{RequireInteraction: true}
	h := hints(msg)
	if v, ok := h["urgency"]; !ok || v.Value() != urgencyCritical {
		t.Errorf("urgency hint = %v", h["urgency"])
	}
	if v, ok := h["resident"]; !ok || v.Value() != true {
		t.Errorf("resident hint = %v", h["resident"])
	}
	if expireTimeout(msg) != neverExpire {
		t.Error("interactive notifications must never expire")
	}

	plain := notification.Message{}
	if _, ok := hints(plain)["resident"]; ok {
		t.Error("plain notification should not be resident")
	}
	if expireTimeout(plain) != -1 {
		t.Error("plain notification should use the server default timeout")
	}
}

func TestHandleSignalRoutesOwnNotifications(t *testing.T) {
	l := logrus.New()
	l.SetOutput(io.Discard)
	n := &Notifier{logger: logrus.NewEntry(l), pending: map[uint32]string{7: "aspirin"}}

	type call struct{ action, scheduleID string }
	var calls []call
	handler := func(_ context.Context, action, scheduleID string) {
		calls = append(calls, call{action, scheduleID})
	}
	ctx := context.Background()

	n.handleSignal(ctx, &dbus.Signal{Name: signalActionInvoked, Body: []interface{}{uint32(7), "take"}}, handler)
	n.handleSignal(ctx, &dbus.Signal{Name: signalActionInvoked, Body: []interface{}{uint32(9), "take"}}, handler)
	n.handleSignal(ctx, &dbus.Signal{Name: signalActionInvoked, Body: []interface{}{uint32(7), "default"}}, handler)
	n.handleSignal(ctx, &dbus.Signal{Name: signalActionInvoked, Body: []interface{}{"bad"}}, handler)
	n.handleSignal(ctx, &dbus.Signal{Name: signalClosed, Body: []interface{}{uint32(7), uint32(2)}}, handler)
	n.handleSignal(ctx, &dbus.Signal{Name: signalActionInvoked, Body: []interface{}{uint32(7), "snooze"}}, handler)

	if len(calls) != 1 || calls[0] != (call{"take", "aspirin"}) {
		t.Errorf("calls = %+v, want one take for aspirin", calls)
	}
}
