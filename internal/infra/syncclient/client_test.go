package syncclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"medicine_reminder/internal/domain/acknowledgement"
)

func batch() []acknowledgement.Record {
	return []acknowledgement.Record{
		{Key: 1, ID: "a", Time: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), Action: "taken", ScheduleID: "aspirin"},
		{Key: 2, ID: "b", Time: time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC), Action: "taken"},
	}
}

func TestSendPostsJSONBatch(t *testing.T) {
	var (
		got  []acknowledgement.Record
		auth string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("got %s with content type %q", r.Method, r.Header.Get("Content-Type"))
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	if err := New(srv.URL, "s3cret", time.Second).Send(context.Background(), batch()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[0].ScheduleID != "aspirin" {
		t.Errorf("server received %+v", got)
	}
	if auth != "Bearer s3cret" {
		t.Errorf("Authorization = %q", auth)
	}
}

func TestSendWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h := r.Header.Get("Authorization"); h != "" {
			t.Errorf("unexpected Authorization %q", h)
		}
	}))
	defer srv.Close()

	if err := New(srv.URL, "", time.Second).Send(context.Background(), batch()); err != nil {
		t.Fatalf("Send: %v", err)
	}
}

func TestSendFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database down", http.StatusInternalServerError)
	}))
	err := New(srv.URL, "", time.Second).Send(context.Background(), batch())
	if !errors.Is(err, ErrRejected) {
		t.Errorf("500: err = %v, want ErrRejected", err)
	}
	srv.Close()

	err = New(srv.URL, "", time.Second).Send(context.Background(), batch())
	if err == nil || errors.Is(err, ErrRejected) {
		t.Errorf("closed server: err = %v, want a network error", err)
	}
}

func TestDialProber(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	p, err := NewDialProber(srv.URL+"/api/sync", time.Second)
	if err != nil {
		t.Fatalf("NewDialProber: %v", err)
	}
	if err := p.Probe(context.Background()); err != nil {
		t.Errorf("Probe live server: %v", err)
	}
	srv.Close()
	if err := p.Probe(context.Background()); err == nil {
		t.Error("Probe of a closed server should fail")
	}

	https, err := NewDialProber("https://sync.example.com/api/sync", time.Second)
	if err != nil || https.Addr != "sync.example.com:443" {
		t.Errorf("https prober = %+v, %v", https, err)
	}
	if _, err := NewDialProber("::bad", time.Second); err == nil {
		t.Error("expected error for a bad url")
	}
}
