package workflow

import (
	"time"

	"github.com/strategos-ai/orchestrator/internal/metrics"
)

// Handle is the write surface the pipeline uses for the one workflow it
// owns. Every method takes the registry lock, so snapshot readers never
// observe a partially applied update. Writes after a terminal
// transition are ignored.
type Handle struct {
	registry *Registry
	id       string
}

// ID returns the workflow id this handle is bound to.
func (h *Handle) ID() string { return h.id }

// Request returns the immutable submission this workflow was created for.
func (h *Handle) Request() Request {
	h.registry.mu.RLock()
	defer h.registry.mu.RUnlock()
	return h.registry.workflows[h.id].request
}

func (h *Handle) mutate(fn func(st *state)) {
	h.registry.mu.Lock()
	defer h.registry.mu.Unlock()
	st, ok := h.registry.workflows[h.id]
	if !ok || st.status.Terminal() {
		return
	}
	fn(st)
	st.updatedAt = time.Now()
}

// Transition moves the workflow to a new stage, marks it running, and
// logs the transition message.
func (h *Handle) Transition(stage Stage, message string) {
	h.mutate(func(st *state) {
		st.stage = stage
		if st.status == StatusStarting {
			st.status = StatusRunning
		}
		h.registry.appendLocked(st, ActivityEntry{
			Timestamp: time.Now(),
			Stage:     stage,
			Message:   message,
		})
	})
}

// Log appends an activity entry at the current stage.
func (h *Handle) Log(message string) {
	h.mutate(func(st *state) {
		h.registry.appendLocked(st, ActivityEntry{
			Timestamp: time.Now(),
			Stage:     st.stage,
			Message:   message,
		})
	})
}

// SetBasket records the observable state of one research basket.
func (h *Handle) SetBasket(name string, bs BasketState) {
	h.mutate(func(st *state) {
		st.basketStatus[name] = bs
	})
}

// SetDraft replaces the working draft artifact.
func (h *Handle) SetDraft(content string) {
	h.mutate(func(st *state) {
		st.draftContent = content
	})
}

// SetProvider records which provider produced the last accepted output.
func (h *Handle) SetProvider(name string) {
	h.mutate(func(st *state) {
		st.providerUsed = name
	})
}

// SetScore records an evaluate stage outcome.
func (h *Handle) SetScore(score int) {
	h.mutate(func(st *state) {
		st.qualityScore = score
	})
}

// IncrementRevision bumps the revision counter and returns the new value.
func (h *Handle) IncrementRevision() int {
	var n int
	h.mutate(func(st *state) {
		st.revisionCount++
		n = st.revisionCount
	})
	return n
}

// RevisionCount returns the current revision counter.
func (h *Handle) RevisionCount() int {
	h.registry.mu.RLock()
	defer h.registry.mu.RUnlock()
	st, ok := h.registry.workflows[h.id]
	if !ok {
		return 0
	}
	return st.revisionCount
}

// Complete transitions the workflow to its terminal completed state and
// stores the final artifact.
func (h *Handle) Complete(res Result) {
	h.registry.mu.Lock()
	defer h.registry.mu.Unlock()
	st, ok := h.registry.workflows[h.id]
	if !ok || st.status.Terminal() {
		return
	}
	st.stage = StageOutput
	st.status = StatusCompleted
	st.result = &res
	st.qualityScore = res.QualityScore
	st.providerUsed = res.ProviderUsed
	h.registry.appendLocked(st, ActivityEntry{
		Timestamp: time.Now(),
		Stage:     StageOutput,
		Message:   "Analysis completed",
	})
	h.registry.closeWatchersLocked(h.id)
	metrics.WorkflowsCompleted.WithLabelValues(string(StatusCompleted)).Inc()
	metrics.WorkflowRevisions.Observe(float64(res.RevisionCount))
	metrics.QualityScore.Observe(float64(res.QualityScore))
}

// Fail transitions the workflow to its terminal error state. The
// terminal error entry is the last log entry ever appended.
func (h *Handle) Fail(stage Stage, detail string) {
	h.registry.mu.Lock()
	defer h.registry.mu.Unlock()
	st, ok := h.registry.workflows[h.id]
	if !ok || st.status.Terminal() {
		return
	}
	st.stage = stage
	st.status = StatusError
	st.errorDetail = detail
	h.registry.appendLocked(st, ActivityEntry{
		Timestamp: time.Now(),
		Stage:     stage,
		Message:   detail,
	})
	h.registry.closeWatchersLocked(h.id)
	metrics.WorkflowsCompleted.WithLabelValues(string(StatusError)).Inc()
}
