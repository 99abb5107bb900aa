// Package httpapi exposes the orchestrator's polling API over HTTP.
package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

func sendJSON(w http.ResponseWriter, logger *zap.Logger, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

func sendError(w http.ResponseWriter, logger *zap.Logger, status int, message string) {
	sendJSON(w, logger, status, errorResponse{Error: message})
}
