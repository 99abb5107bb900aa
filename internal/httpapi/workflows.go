package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/strategos-ai/orchestrator/internal/workflow"
)

// WorkflowHandler serves submission, polling, and result retrieval.
type WorkflowHandler struct {
	executor *workflow.Executor
	logger   *zap.Logger
}

// NewWorkflowHandler creates the workflow HTTP handler.
func NewWorkflowHandler(executor *workflow.Executor, logger *zap.Logger) *WorkflowHandler {
	return &WorkflowHandler{executor: executor, logger: logger}
}

// RegisterRoutes attaches the workflow endpoints to mux.
func (h *WorkflowHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/workflows", h.handleSubmit)
	mux.HandleFunc("GET /api/v1/workflows/{id}/status", h.handleStatus)
	mux.HandleFunc("GET /api/v1/workflows/{id}/result", h.handleResult)
	mux.HandleFunc("GET /api/v1/workflows/{id}/stream", h.handleStream)
}

type submitRequest struct {
	Company       string `json:"company"`
	Ticker        string `json:"ticker,omitempty"`
	StrategyFocus string `json:"strategy_focus"`
}

type submitResponse struct {
	WorkflowID string `json:"workflow_id"`
}

func (h *WorkflowHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, h.logger, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	id, err := h.executor.Submit(workflow.Request{
		Company:       req.Company,
		Ticker:        req.Ticker,
		StrategyFocus: req.StrategyFocus,
	})
	if err != nil {
		switch {
		case errors.Is(err, workflow.ErrInvalidRequest):
			sendError(w, h.logger, http.StatusBadRequest, err.Error())
		case errors.Is(err, workflow.ErrCapacity):
			sendError(w, h.logger, http.StatusServiceUnavailable, err.Error())
		default:
			h.logger.Error("Submit failed", zap.Error(err))
			sendError(w, h.logger, http.StatusInternalServerError, "submit failed")
		}
		return
	}

	sendJSON(w, h.logger, http.StatusAccepted, submitResponse{WorkflowID: id})
}

type statusResponse struct {
	Status        workflow.Status                 `json:"status"`
	CurrentStage  workflow.Stage                  `json:"current_stage"`
	RevisionCount int                             `json:"revision_count"`
	QualityScore  int                             `json:"quality_score"`
	ActivityLog   []workflow.ActivityEntry        `json:"activity_log"`
	BasketStatus  map[string]workflow.BasketState `json:"basket_status"`
	ProviderUsed  string                          `json:"provider_used,omitempty"`
	ErrorDetail   string                          `json:"error_detail,omitempty"`
}

func (h *WorkflowHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	snap, err := h.executor.GetStatus(id)
	if err != nil {
		if errors.Is(err, workflow.ErrNotFound) {
			sendError(w, h.logger, http.StatusNotFound, "workflow not found")
			return
		}
		h.logger.Error("Status lookup failed", zap.String("workflow_id", id), zap.Error(err))
		sendError(w, h.logger, http.StatusInternalServerError, "status lookup failed")
		return
	}

	sendJSON(w, h.logger, http.StatusOK, statusResponse{
		Status:        snap.Status,
		CurrentStage:  snap.CurrentStage,
		RevisionCount: snap.RevisionCount,
		QualityScore:  snap.QualityScore,
		ActivityLog:   snap.ActivityLog,
		BasketStatus:  snap.BasketStatus,
		ProviderUsed:  snap.ProviderUsed,
		ErrorDetail:   snap.ErrorDetail,
	})
}

func (h *WorkflowHandler) handleResult(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	res, err := h.executor.GetResult(id)
	if err != nil {
		switch {
		case errors.Is(err, workflow.ErrNotFound):
			sendError(w, h.logger, http.StatusNotFound, "workflow not found")
		case errors.Is(err, workflow.ErrNotCompleted):
			snap, snapErr := h.executor.GetStatus(id)
			if snapErr == nil && snap.Status == workflow.StatusError {
				sendError(w, h.logger, http.StatusConflict, "workflow errored: "+snap.ErrorDetail)
				return
			}
			sendError(w, h.logger, http.StatusConflict, "workflow not completed")
		default:
			h.logger.Error("Result lookup failed", zap.String("workflow_id", id), zap.Error(err))
			sendError(w, h.logger, http.StatusInternalServerError, "result lookup failed")
		}
		return
	}

	sendJSON(w, h.logger, http.StatusOK, res)
}
