// internal/infra/web/agent.go
package web

import (
	"errors"
	"io"
	"net/http"

	"medicine_reminder/internal/app"
	"medicine_reminder/internal/domain/notification"
	"medicine_reminder/internal/infra/metrics"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// AgentDeps are the services behind the agent's HTTP surface. Assets may be
// nil when no asset origin is configured.
type AgentDeps struct {
	Push    app.PushDispatcher
	Actions app.ActionHandler
	Sync    app.SyncTrigger
	Assets  http.Handler
}

type agentHandlers struct {
	deps   AgentDeps
	logger *logrus.Entry
}

// NewAgentRouter serves push delivery, notification actions, the sync tag
// and, for every other path, the asset cache.
func NewAgentRouter(deps AgentDeps, logger *logrus.Entry) *mux.Router {
	h := &agentHandlers{deps: deps, logger: logger}

	r := mux.NewRouter()
	r.Use(metrics.Middleware)
	r.HandleFunc("/push", h.handlePush).Methods(http.MethodPost)
	r.HandleFunc("/actions/{action}", h.handleAction).Methods(http.MethodPost)
	r.HandleFunc("/sync", h.handleSync).Methods(http.MethodPost)
	r.HandleFunc("/healthz", healthz).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	if deps.Assets != nil {
		r.PathPrefix("/").Handler(deps.Assets)
	}
	return r
}

func (h *agentHandlers) handlePush(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "cannot read push payload")
		return
	}
	report := h.deps.Push.DispatchPush(r.Context(), notification.ParsePush(body))
	writeJSON(w, h.logger, http.StatusAccepted, report)
}

func (h *agentHandlers) handleAction(w http.ResponseWriter, r *http.Request) {
	action := mux.Vars(r)["action"]
	scheduleID := r.FormValue("schedule")
	logCtx := h.logger.WithField("action", action).WithField("schedule_id", scheduleID)

	rec, err := h.deps.Actions.Handle(r.Context(), action, scheduleID)
	switch {
	case errors.Is(err, app.ErrUnknownAction):
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
	case err != nil:
		logCtx.WithError(err).Error("Failed to handle action")
		writeError(w, h.logger, http.StatusInternalServerError, "acknowledgement was not stored")
	case rec == nil:
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, h.logger, http.StatusAccepted, rec)
	}
}

func (h *agentHandlers) handleSync(w http.ResponseWriter, r *http.Request) {
	if tag := r.FormValue("tag"); tag != "" && tag != app.SyncTag {
		writeError(w, h.logger, http.StatusBadRequest, "unknown sync tag")
		return
	}
	h.deps.Sync.Trigger()
	w.WriteHeader(http.StatusAccepted)
}
