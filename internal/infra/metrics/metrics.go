// Package metrics holds the prometheus collectors of the agent and the sync server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RemindersDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_dispatched_total",
			Help: "Reminders dispatched, by the channel that raised the notification",
		},
		[]string{"channel"},
	)
	AssetRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_cache_requests_total",
			Help: "Intercepted asset requests, by outcome",
		},
		[]string{"result"},
	)
	SyncAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ack_sync_attempts_total",
			Help: "Acknowledgement sync attempts, by outcome",
		},
		[]string{"outcome"},
	)
	AcknowledgementsReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "acknowledgements_received_total",
			Help: "Acknowledgement records stored by the sync server",
		},
	)
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		RemindersDispatched,
		AssetRequests,
		SyncAttempts,
		AcknowledgementsReceived,
		httpRequestsTotal,
		httpRequestDuration,
	)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency per route template.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}
		labels := prometheus.Labels{
			"method": r.Method,
			"path":   path,
			"status": strconv.Itoa(rec.status),
		}
		httpRequestsTotal.With(labels).Inc()
		httpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
