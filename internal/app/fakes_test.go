package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"medicine_reminder/internal/domain/acknowledgement"
	"medicine_reminder/internal/domain/notification"
	"medicine_reminder/internal/domain/schedule"

	"github.com/sirupsen/logrus"
)

var errBoom = errors.New("boom")

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type fakePermission bool

func (p fakePermission) Granted(context.Context) bool { return bool(p) }

type fakePlayer struct {
	err    error
	panics bool
	calls  int
}

func (p *fakePlayer) Play(context.Context) error {
	p.calls++
	if p.panics {
		panic("audio device vanished")
	}
	return p.err
}

type fakeAlerter struct {
	err   error
	texts []string
}

func (a *fakeAlerter) Alert(_ context.Context, text string) error {
	a.texts = append(a.texts, text)
	return a.err
}

type fakeSink struct {
	name string
	err  error
	msgs []notification.Message
}

func (s *fakeSink) Name() string { return s.name }

func (s *fakeSink) Notify(_ context.Context, msg notification.Message) error {
	s.msgs = append(s.msgs, msg)
	return s.err
}

type fakeViewport bool

func (v fakeViewport) Small() bool { return bool(v) }

type fakeLog struct {
	mu      sync.Mutex
	entries []notification.LogEntry
	err     error
}

func (l *fakeLog) Append(_ context.Context, e notification.LogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.entries = append(l.entries, e)
	return nil
}

func (l *fakeLog) Exists(_ context.Context, id string, slot time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	for _, e := range l.entries {
		if e.ScheduleID == id && e.Slot.Equal(slot) {
			return true, nil
		}
	}
	return false, nil
}

type fakeSource struct {
	schedules []schedule.DosingSchedule
	err       error
}

func (s *fakeSource) List(context.Context) ([]schedule.DosingSchedule, error) {
	return s.schedules, s.err
}

// memQueue is an in-memory QueueStore.
type memQueue struct {
	mu      sync.Mutex
	next    int64
	records []acknowledgement.Record
	err     error
}

func (q *memQueue) Enqueue(_ context.Context, rec *acknowledgement.Record) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.next++
	rec.Key = q.next
	q.records = append(q.records, *rec)
	return nil
}

func (q *memQueue) Drain(context.Context) ([]acknowledgement.Record, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return nil, q.err
	}
	out := make([]acknowledgement.Record, len(q.records))
	copy(out, q.records)
	return out, nil
}

func (q *memQueue) Clear(context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.records = nil
	return q.err
}

func (q *memQueue) Remove(_ context.Context, keys []int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	drop := make(map[int64]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}
	kept := q.records[:0]
	for _, r := range q.records {
		if !drop[r.Key] {
			kept = append(kept, r)
		}
	}
	q.records = kept
	return nil
}

func (q *memQueue) Count(context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.records), q.err
}
