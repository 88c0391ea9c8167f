package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"medicine_reminder/internal/domain/notification"
	"medicine_reminder/internal/domain/schedule"
)

var aspirin = schedule.DosingSchedule{
	ID:           "aspirin",
	Name:         "Aspirin",
	Dosage:       "1 pill",
	PatientName:  "Ann",
	MealRelation: "after meal",
	Days:         []string{"Monday"},
	Times:        []string{"08:00"},
}

type dispatcherFixture struct {
	sound, tone *fakePlayer
	alerter     *fakeAlerter
	primary     *fakeSink
	fallback    *fakeSink
	log         *fakeLog
}

func newDispatcherFixture() *dispatcherFixture {
	return &dispatcherFixture{
		sound:    &fakePlayer{},
		tone:     &fakePlayer{},
		alerter:  &fakeAlerter{},
		primary:  &fakeSink{name: "desktop"},
		fallback: &fakeSink{name: "telegram"},
		log:      &fakeLog{},
	}
}

func (f *dispatcherFixture) dispatcher(granted, small bool) *Dispatcher {
	return NewDispatcher(DispatcherDeps{
		Permission: fakePermission(granted),
		Sinks:      []notification.NotificationSink{f.primary, f.fallback},
		Sound:      f.sound,
		Tone:       f.tone,
		Alerter:    f.alerter,
		Viewport:   fakeViewport(small),
		Log:        f.log,
	}, testLogger())
}

func dueAt(id string) notification.DueReminder {
	return notification.DueReminder{ScheduleID: id, FiredAt: time.Date(2024, 1, 1, 8, 0, 0, 0, time.Local)}
}

func TestDispatchHappyPath(t *testing.T) {
	f := newDispatcherFixture()
	report := f.dispatcher(true, false).Dispatch(context.Background(), dueAt("aspirin"), aspirin)

	if report.Suppressed || report.Sound != SoundPlayed || report.Alerted || report.Sink != "desktop" || !report.Logged {
		t.Fatalf("unexpected report: %+v", report)
	}
	if f.tone.calls != 0 {
		t.Errorf("tone played %d times, want 0", f.tone.calls)
	}
	if len(f.primary.msgs) != 1 || len(f.fallback.msgs) != 0 {
		t.Fatalf("primary got %d, fallback got %d messages", len(f.primary.msgs), len(f.fallback.msgs))
	}
	msg := f.primary.msgs[0]
	if !msg.RequireInteraction {
		t.Error("system notification must require interaction")
	}
	want := "Hey, Ann, It's your time to take Aspirin - 1 pill, Make sure to take it after meal"
	if msg.Body != want {
		t.Errorf("Body = %q, want %q", msg.Body, want)
	}
	if len(f.log.entries) != 1 || f.log.entries[0].ScheduleID != "aspirin" {
		t.Errorf("log entries = %+v", f.log.entries)
	}
}

func TestDispatchPermissionDenied(t *testing.T) {
	f := newDispatcherFixture()
	report := f.dispatcher(false, true).Dispatch(context.Background(), dueAt("aspirin"), aspirin)

	if !report.Suppressed {
		t.Fatal("expected dispatch to be suppressed")
	}
	if f.sound.calls+f.tone.calls+len(f.alerter.texts)+len(f.primary.msgs)+len(f.log.entries) != 0 {
		t.Error("no channel may be touched without permission")
	}
}

func TestDispatchSoundFallbackChain(t *testing.T) {
	f := newDispatcherFixture()
	f.sound.err = errBoom
	report := f.dispatcher(true, false).Dispatch(context.Background(), dueAt("aspirin"), aspirin)
	if report.Sound != SoundTone || report.Alerted {
		t.Errorf("sound failure: report = %+v, want tone without alert", report)
	}

	f = newDispatcherFixture()
	f.sound.err = errBoom
	f.tone.panics = true
	report = f.dispatcher(true, false).Dispatch(context.Background(), dueAt("aspirin"), aspirin)
	if report.Sound != SoundAlert || !report.Alerted {
		t.Errorf("tone failure: report = %+v, want blocking alert", report)
	}
	if len(f.alerter.texts) != 1 || !strings.Contains(f.alerter.texts[0], "Aspirin") {
		t.Errorf("alert texts = %v", f.alerter.texts)
	}
	if report.Sink != "desktop" || !report.Logged {
		t.Errorf("later steps must still run: %+v", report)
	}
}

func TestDispatchSmallViewportAlwaysAlerts(t *testing.T) {
	f := newDispatcherFixture()
	report := f.dispatcher(true, true).Dispatch(context.Background(), dueAt("aspirin"), aspirin)
	if report.Sound != SoundPlayed || !report.Alerted {
		t.Errorf("report = %+v, want sound and alert", report)
	}
	if len(f.alerter.texts) != 1 {
		t.Errorf("alerts = %d, want 1", len(f.alerter.texts))
	}
}

func TestDispatchSinkFallback(t *testing.T) {
	f := newDispatcherFixture()
	f.primary.err = errBoom
	report := f.dispatcher(true, false).Dispatch(context.Background(), dueAt("aspirin"), aspirin)
	if report.Sink != "telegram" {
		t.Errorf("Sink = %q, want telegram", report.Sink)
	}

	f = newDispatcherFixture()
	f.primary.err = errBoom
	f.fallback.err = errBoom
	f.log.err = errBoom
	report = f.dispatcher(true, false).Dispatch(context.Background(), dueAt("aspirin"), aspirin)
	if report.Sink != "" || !report.Alerted || report.Logged {
		t.Errorf("report = %+v, want alert only", report)
	}
}

func TestDispatchPush(t *testing.T) {
	f := newDispatcherFixture()
	d := f.dispatcher(true, false)

	report := d.DispatchPush(context.Background(), notification.ParsePush(nil))
	if report.Sink != "desktop" || f.sound.calls != 0 {
		t.Errorf("report = %+v, sound calls = %d", report, f.sound.calls)
	}
	if f.primary.msgs[0].Body != notification.DefaultBody {
		t.Errorf("Body = %q, want default body", f.primary.msgs[0].Body)
	}

	denied := newDispatcherFixture()
	if r := denied.dispatcher(false, false).DispatchPush(context.Background(), notification.ParsePush(nil)); !r.Suppressed {
		t.Error("push must be suppressed without permission")
	}
}
