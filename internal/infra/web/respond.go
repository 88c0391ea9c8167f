// Package web holds the HTTP surfaces of the agent and the sync server.
package web

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, logger *logrus.Entry, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithError(err).Warn("Failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, logger *logrus.Entry, status int, msg string) {
	writeJSON(w, logger, status, errorResponse{Error: msg})
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok"))
}
