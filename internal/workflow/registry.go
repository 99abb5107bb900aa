package workflow

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/strategos-ai/orchestrator/internal/metrics"
)

// DefaultMaxWorkflows bounds registry memory when no limit is configured.
const DefaultMaxWorkflows = 1000

// state is the mutable record for one workflow. All access goes through
// the registry mutex; the owning pipeline goroutine is the only writer.
type state struct {
	id            string
	request       Request
	status        Status
	stage         Stage
	revisionCount int
	qualityScore  int
	providerUsed  string
	draftContent  string
	basketStatus  map[string]BasketState
	activityLog   []ActivityEntry
	errorDetail   string
	result        *Result
	createdAt     time.Time
	updatedAt     time.Time
}

// Registry is the shared map of workflow states. It is the only
// structure reachable from multiple goroutines; stage code mutates
// state exclusively through a Handle bound to one id.
type Registry struct {
	mu           sync.RWMutex
	workflows    map[string]*state
	watchers     map[string][]chan ActivityEntry
	basketNames  []string
	maxWorkflows int
	logger       *zap.Logger
}

// NewRegistry creates a registry bounded to maxWorkflows entries.
// basketNames seeds every new workflow's basket_status map to idle.
func NewRegistry(maxWorkflows int, basketNames []string, logger *zap.Logger) *Registry {
	if maxWorkflows <= 0 {
		maxWorkflows = DefaultMaxWorkflows
	}
	return &Registry{
		workflows:    make(map[string]*state),
		watchers:     make(map[string][]chan ActivityEntry),
		basketNames:  basketNames,
		maxWorkflows: maxWorkflows,
		logger:       logger,
	}
}

// register creates a new workflow record and returns its write handle.
func (r *Registry) register(req Request) (string, *Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.workflows) >= r.maxWorkflows {
		if !r.evictOldestTerminalLocked() {
			return "", nil, ErrCapacity
		}
	}

	id := uuid.New().String()
	now := time.Now()
	baskets := make(map[string]BasketState, len(r.basketNames))
	for _, name := range r.basketNames {
		baskets[name] = BasketIdle
	}
	r.workflows[id] = &state{
		id:           id,
		request:      req,
		status:       StatusStarting,
		stage:        StageInput,
		basketStatus: baskets,
		createdAt:    now,
		updatedAt:    now,
	}
	metrics.RegistrySize.Set(float64(len(r.workflows)))

	return id, &Handle{registry: r, id: id}, nil
}

// evictOldestTerminalLocked removes the oldest completed or errored
// workflow. Running workflows are never evicted.
func (r *Registry) evictOldestTerminalLocked() bool {
	var victim *state
	for _, st := range r.workflows {
		if !st.status.Terminal() {
			continue
		}
		if victim == nil || st.updatedAt.Before(victim.updatedAt) {
			victim = st
		}
	}
	if victim == nil {
		return false
	}
	delete(r.workflows, victim.id)
	metrics.RegistryEvictions.Inc()
	r.logger.Debug("Evicted terminal workflow",
		zap.String("workflow_id", victim.id),
		zap.String("status", string(victim.status)),
	)
	return true
}

// Snapshot returns a consistent copy of one workflow's state.
func (r *Registry) Snapshot(id string) (Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.workflows[id]
	if !ok {
		return Snapshot{}, ErrNotFound
	}

	baskets := make(map[string]BasketState, len(st.basketStatus))
	for k, v := range st.basketStatus {
		baskets[k] = v
	}
	log := make([]ActivityEntry, len(st.activityLog))
	copy(log, st.activityLog)

	return Snapshot{
		ID:            st.id,
		Request:       st.request,
		Status:        st.status,
		CurrentStage:  st.stage,
		RevisionCount: st.revisionCount,
		QualityScore:  st.qualityScore,
		ProviderUsed:  st.providerUsed,
		BasketStatus:  baskets,
		ActivityLog:   log,
		ErrorDetail:   st.errorDetail,
		CreatedAt:     st.createdAt,
		UpdatedAt:     st.updatedAt,
	}, nil
}

// Result returns the final artifact of a completed workflow.
func (r *Registry) Result(id string) (Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.workflows[id]
	if !ok {
		return Result{}, ErrNotFound
	}
	if st.status != StatusCompleted || st.result == nil {
		return Result{}, ErrNotCompleted
	}
	return *st.result, nil
}

// ActiveCount returns the number of non-terminal workflows.
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, st := range r.workflows {
		if !st.status.Terminal() {
			n++
		}
	}
	return n
}

// Len returns the number of retained workflows, terminal included.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workflows)
}

// Watch subscribes to a workflow's activity feed. The returned channel
// receives every entry appended after the call and is closed when the
// workflow reaches a terminal state. The caller must invoke cancel.
func (r *Registry) Watch(id string, buffer int) (<-chan ActivityEntry, func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.workflows[id]
	if !ok {
		return nil, nil, ErrNotFound
	}

	ch := make(chan ActivityEntry, buffer)
	if st.status.Terminal() {
		close(ch)
		return ch, func() {}, nil
	}
	r.watchers[id] = append(r.watchers[id], ch)

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		subs := r.watchers[id]
		for i, sub := range subs {
			if sub == ch {
				r.watchers[id] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
	return ch, cancel, nil
}

// appendLocked appends a log entry and fans it out to watchers. Slow
// watchers drop entries rather than block the pipeline.
func (r *Registry) appendLocked(st *state, entry ActivityEntry) {
	entry.Seq = uint64(len(st.activityLog) + 1)
	st.activityLog = append(st.activityLog, entry)
	st.updatedAt = entry.Timestamp
	for _, ch := range r.watchers[st.id] {
		select {
		case ch <- entry:
		default:
		}
	}
}

// closeWatchersLocked ends all subscriptions for a terminal workflow.
func (r *Registry) closeWatchersLocked(id string) {
	for _, ch := range r.watchers[id] {
		close(ch)
	}
	delete(r.watchers, id)
}
