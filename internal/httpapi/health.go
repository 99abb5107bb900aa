package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/strategos-ai/orchestrator/internal/health"
	"github.com/strategos-ai/orchestrator/internal/workflow"
)

// HealthHandler serves the health endpoint.
type HealthHandler struct {
	executor *workflow.Executor
	manager  *health.Manager
	logger   *zap.Logger
}

// NewHealthHandler creates the health HTTP handler; manager may be nil
// when no dependency checks are registered.
func NewHealthHandler(executor *workflow.Executor, manager *health.Manager, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{executor: executor, manager: manager, logger: logger}
}

// RegisterRoutes attaches the health endpoint to mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handleHealth)
}

type healthResponse struct {
	Status              string                   `json:"status"`
	ActiveWorkflowCount int                      `json:"active_workflow_count"`
	Checks              map[string]health.Status `json:"checks,omitempty"`
}

func (h *HealthHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:              "ok",
		ActiveWorkflowCount: h.executor.ActiveCount(),
	}
	statusCode := http.StatusOK

	if h.manager != nil {
		checks, healthy := h.manager.Check(r.Context())
		resp.Checks = checks
		if !healthy {
			resp.Status = "degraded"
		}
	}

	sendJSON(w, h.logger, statusCode, resp)
}
