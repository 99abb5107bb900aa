// Package workflow owns the registry and executor for analysis workflows.
//
// A workflow is one end-to-end analysis run identified by a unique id.
// Its state is mutated only by the single pipeline goroutine that owns
// the id; callers observe progress through snapshot reads.
package workflow

import (
	"errors"
	"time"

	"github.com/strategos-ai/orchestrator/internal/report"
)

// Status is the lifecycle state of a workflow.
type Status string

const (
	StatusStarting  Status = "starting"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Terminal reports whether no further transitions can occur.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Stage identifies the pipeline stage a workflow is currently in.
type Stage string

const (
	StageInput      Stage = "input"
	StageCacheCheck Stage = "cache_check"
	StageResearch   Stage = "research"
	StageDraft      Stage = "draft"
	StageEvaluate   Stage = "evaluate"
	StageRevise     Stage = "revise"
	StageOutput     Stage = "output"
)

// BasketState is the observable status of one research basket.
type BasketState string

const (
	BasketIdle      BasketState = "idle"
	BasketExecuting BasketState = "executing"
	BasketCompleted BasketState = "completed"
	BasketFailed    BasketState = "failed"
)

// Request describes one analysis submission. Immutable once submitted.
type Request struct {
	Company       string `json:"company"`
	Ticker        string `json:"ticker,omitempty"`
	StrategyFocus string `json:"strategy_focus"`
}

// ActivityEntry is one append-only progress event. Seq is the 1-based
// position in the workflow's log, strictly increasing per workflow.
type ActivityEntry struct {
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Stage     Stage     `json:"stage"`
	Message   string    `json:"message"`
}

// Result is the final artifact of a completed workflow.
type Result struct {
	Company       string      `json:"company"`
	Ticker        string      `json:"ticker,omitempty"`
	StrategyFocus string      `json:"strategy_focus"`
	Report        string      `json:"report"`
	SWOT          report.SWOT `json:"swot"`
	QualityScore  int         `json:"quality_score"`
	RevisionCount int         `json:"revision_count"`
	ReportLength  int         `json:"report_length"`
	Critique      string      `json:"critique"`
	ProviderUsed  string      `json:"provider_used"`
	CacheHit      bool        `json:"cache_hit"`
	GeneratedAt   time.Time   `json:"generated_at"`
}

// Snapshot is a consistent point-in-time copy of workflow state.
type Snapshot struct {
	ID            string                 `json:"workflow_id"`
	Request       Request                `json:"request"`
	Status        Status                 `json:"status"`
	CurrentStage  Stage                  `json:"current_stage"`
	RevisionCount int                    `json:"revision_count"`
	QualityScore  int                    `json:"quality_score"`
	ProviderUsed  string                 `json:"provider_used,omitempty"`
	BasketStatus  map[string]BasketState `json:"basket_status"`
	ActivityLog   []ActivityEntry        `json:"activity_log"`
	ErrorDetail   string                 `json:"error_detail,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

var (
	// ErrNotFound indicates an unknown workflow id.
	ErrNotFound = errors.New("workflow not found")
	// ErrNotCompleted indicates a result request before the workflow completed.
	ErrNotCompleted = errors.New("workflow not completed")
	// ErrInvalidRequest indicates a malformed submission.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrCapacity indicates the registry is full of running workflows.
	ErrCapacity = errors.New("registry at capacity")
)
