// internal/infra/web/server.go
package web

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"medicine_reminder/internal/app"
	"medicine_reminder/internal/domain/acknowledgement"
	"medicine_reminder/internal/infra/metrics"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type syncResponse struct {
	Received int `json:"received"`
	Stored   int `json:"stored"`
}

type serverHandlers struct {
	receiver app.SyncReceiver
	logger   *logrus.Entry
}

// NewServerRouter serves the sync endpoint. When token is set the /api
// routes require it as a bearer token.
func NewServerRouter(receiver app.SyncReceiver, token string, logger *logrus.Entry) *mux.Router {
	h := &serverHandlers{receiver: receiver, logger: logger}

	r := mux.NewRouter()
	r.Use(metrics.Middleware)
	r.HandleFunc("/healthz", healthz).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	if token != "" {
		api.Use(bearerAuth(token, logger))
	}
	api.HandleFunc("/sync", h.handleSync).Methods(http.MethodPost)
	api.HandleFunc("/acknowledgements", h.handleList).Methods(http.MethodGet)
	return r
}

func (h *serverHandlers) handleSync(w http.ResponseWriter, r *http.Request) {
	var records []acknowledgement.Record
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&records); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "body must be a JSON array of acknowledgements")
		return
	}

	stored, err := h.receiver.Receive(r.Context(), records)
	switch {
	case errors.Is(err, app.ErrInvalidBatch):
		writeError(w, h.logger, http.StatusUnprocessableEntity, err.Error())
	case err != nil:
		writeError(w, h.logger, http.StatusInternalServerError, "batch was not stored")
	default:
		writeJSON(w, h.logger, http.StatusOK, syncResponse{Received: len(records), Stored: stored})
	}
}

func (h *serverHandlers) handleList(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, h.logger, http.StatusBadRequest, "since must be RFC3339")
			return
		}
		since = t
	}

	records, err := h.receiver.History(r.Context(), since, r.URL.Query()["schedule"])
	if err != nil {
		h.logger.WithError(err).Error("Failed to list acknowledgements")
		writeError(w, h.logger, http.StatusInternalServerError, "cannot list acknowledgements")
		return
	}
	if records == nil {
		records = []acknowledgement.Record{}
	}
	writeJSON(w, h.logger, http.StatusOK, records)
}

func bearerAuth(token string, logger *logrus.Entry) mux.MiddlewareFunc {
	want := []byte("Bearer " + token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(strings.TrimSpace(r.Header.Get("Authorization")))
			if subtle.ConstantTimeCompare(got, want) != 1 {
				logger.WithField("remote", r.RemoteAddr).Warn("Rejected request with a bad token")
				writeError(w, logger, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
