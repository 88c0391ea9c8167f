package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"medicine_reminder/internal/domain/acknowledgement"
)

type memRepository struct {
	stored map[string]acknowledgement.Record
	err    error
}

func (r *memRepository) SaveBatch(_ context.Context, records []acknowledgement.Record) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	if r.stored == nil {
		r.stored = make(map[string]acknowledgement.Record)
	}
	n := 0
	for _, rec := range records {
		if _, ok := r.stored[rec.ID]; ok {
			continue
		}
		r.stored[rec.ID] = rec
		n++
	}
	return n, nil
}

func (r *memRepository) ListSince(_ context.Context, since time.Time, ids []string) ([]acknowledgement.Record, error) {
	if r.err != nil {
		return nil, r.err
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []acknowledgement.Record
	for _, rec := range r.stored {
		if rec.Time.Before(since) || (len(want) > 0 && !want[rec.ScheduleID]) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

func taken(id string) acknowledgement.Record {
	return acknowledgement.Record{ID: id, Time: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), Action: acknowledgement.ActionTaken}
}

func TestReceiveDeduplicatesRetries(t *testing.T) {
	repo := &memRepository{}
	svc := NewSyncReceiverService(repo, testLogger())
	ctx := context.Background()

	n, err := svc.Receive(ctx, []acknowledgement.Record{taken("a"), taken("b"), taken("a")})
	if err != nil || n != 2 {
		t.Fatalf("first batch = %d, %v; want 2, nil", n, err)
	}

	// The client never saw the response and sends the batch again.
	n, err = svc.Receive(ctx, []acknowledgement.Record{taken("a"), taken("b"), taken("c")})
	if err != nil || n != 1 {
		t.Fatalf("retried batch = %d, %v; want 1, nil", n, err)
	}
	if len(repo.stored) != 3 {
		t.Errorf("stored %d records, want 3", len(repo.stored))
	}
}

func TestReceiveRejectsInvalidRecords(t *testing.T) {
	noTime := taken("x")
	noTime.Time = time.Time{}
	wrongAction := taken("y")
	wrongAction.Action = "snooze"

	tests := []struct {
		name string
		rec  acknowledgement.Record
	}{
		{name: "missing id", rec: taken("")},
		{name: "missing time", rec: noTime},
		{name: "not taken", rec: wrongAction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &memRepository{}
			_, err := NewSyncReceiverService(repo, testLogger()).Receive(context.Background(), []acknowledgement.Record{taken("ok"), tt.rec})
			if !errors.Is(err, ErrInvalidBatch) {
				t.Errorf("err = %v, want ErrInvalidBatch", err)
			}
			if len(repo.stored) != 0 {
				t.Error("an invalid batch must store nothing")
			}
		})
	}
}

func TestReceiveEmptyAndStoreFailure(t *testing.T) {
	if n, err := NewSyncReceiverService(&memRepository{err: errBoom}, testLogger()).Receive(context.Background(), nil); n != 0 || err != nil {
		t.Errorf("empty batch = %d, %v", n, err)
	}
	_, err := NewSyncReceiverService(&memRepository{err: errBoom}, testLogger()).Receive(context.Background(), []acknowledgement.Record{taken("a")})
	if !errors.Is(err, errBoom) {
		t.Errorf("err = %v, want wrapped store error", err)
	}
}

func TestReceiveStoreRejectionInvalidatesBatch(t *testing.T) {
	rejected := fmt.Errorf("%w: a: value too long", acknowledgement.ErrInvalidRecord)
	_, err := NewSyncReceiverService(&memRepository{err: rejected}, testLogger()).Receive(context.Background(), []acknowledgement.Record{taken("a")})
	if !errors.Is(err, ErrInvalidBatch) {
		t.Errorf("err = %v, want ErrInvalidBatch", err)
	}
	if !errors.Is(err, acknowledgement.ErrInvalidRecord) {
		t.Errorf("err = %v, want the store error kept", err)
	}
}

func TestHistoryFiltersBySchedule(t *testing.T) {
	repo := &memRepository{}
	svc := NewSyncReceiverService(repo, testLogger())
	a, b := taken("a"), taken("b")
	a.ScheduleID, b.ScheduleID = "aspirin", "vitamin-d"
	if _, err := svc.Receive(context.Background(), []acknowledgement.Record{a, b}); err != nil {
		t.Fatalf("Receive: %v", err)
	}

	got, err := svc.History(context.Background(), time.Time{}, []string{"aspirin"})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("History = %+v, want only aspirin", got)
	}
}
