package app

import (
	"context"
	"sync"
	"testing"
	"time"
)

type scriptedProber struct {
	mu      sync.Mutex
	results []error
}

func (p *scriptedProber) Probe(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.results) == 0 {
		return nil
	}
	err := p.results[0]
	p.results = p.results[1:]
	return err
}

func TestConnectivityWatcherSignalsReconnect(t *testing.T) {
	prober := &scriptedProber{results: []error{errBoom, nil, nil, errBoom, nil}}
	w := NewConnectivityWatcher(prober, 5*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	signals := w.Watch(ctx)

	got := 0
	timeout := time.After(2 * time.Second)
	for got < 2 {
		select {
		case <-signals:
			got++
		case <-timeout:
			t.Fatalf("got %d reconnect signals, want 2", got)
		}
	}
	cancel()
	for range signals {
	}
}
