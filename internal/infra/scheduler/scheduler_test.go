package scheduler

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testPoller() *Poller {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return NewPoller(logrus.NewEntry(l))
}

func TestStartPollingRejectsBadSpec(t *testing.T) {
	if _, err := testPoller().StartPolling("bad", "every now and then", func(context.Context) {}); err == nil {
		t.Fatal("expected an error for an invalid spec")
	}
}

func TestPollHandleRunsAndStops(t *testing.T) {
	var runs atomic.Int32
	h, err := testPoller().StartPolling("test", "@every 1s", func(ctx context.Context) {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("job context has no deadline")
		}
		runs.Add(1)
	})
	if err != nil {
		t.Fatalf("StartPolling: %v", err)
	}

	h.RunNow(func(context.Context) { runs.Add(1) })
	deadline := time.Now().Add(5 * time.Second)
	for runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	h.Stop()
	h.Stop()

	stopped := runs.Load()
	if stopped < 2 {
		t.Fatalf("runs = %d, want at least 2", stopped)
	}
	time.Sleep(1500 * time.Millisecond)
	if got := runs.Load(); got != stopped {
		t.Errorf("job ran %d times after Stop", got-stopped)
	}
}
