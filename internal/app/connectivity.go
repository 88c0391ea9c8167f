package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Prober checks whether the sync endpoint is reachable.
type Prober interface {
	Probe(ctx context.Context) error
}

// ConnectivityWatcher turns periodic probes into reconnect signals.
type ConnectivityWatcher struct {
	prober   Prober
	interval time.Duration
	logger   *logrus.Entry
}

func NewConnectivityWatcher(prober Prober, interval time.Duration, logger *logrus.Entry) *ConnectivityWatcher {
	return &ConnectivityWatcher{prober: prober, interval: interval, logger: logger}
}

// Watch probes on every interval and emits a signal whenever the endpoint
// becomes reachable after being unreachable (or on the first successful
// probe). The channel is closed when ctx is done.
func (w *ConnectivityWatcher) Watch(ctx context.Context) <-chan struct{} {
	signals := make(chan struct{}, 1)

	go func() {
		defer close(signals)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		online := false
		for {
			err := w.prober.Probe(ctx)
			switch {
			case err == nil && !online:
				w.logger.Info("Sync endpoint reachable")
				online = true
				select {
				case signals <- struct{}{}:
				default:
				}
			case err != nil && online:
				w.logger.WithError(err).Info("Sync endpoint unreachable, working offline")
				online = false
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return signals
}
