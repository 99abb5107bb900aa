package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/strategos-ai/orchestrator/internal/metrics"
)

// Runner executes the stage pipeline for one workflow. It must drive
// the handle to a terminal state before returning.
type Runner interface {
	Run(ctx context.Context, req Request, h *Handle)
}

// Executor assigns workflow ids and runs the stage pipeline
// asynchronously, one goroutine per id. Each id owns exactly one
// execution; distinct ids run concurrently without coordination.
type Executor struct {
	registry *Registry
	runner   Runner
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewExecutor creates an executor over the given registry and runner.
func NewExecutor(registry *Registry, runner Runner, logger *zap.Logger) *Executor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Executor{
		registry: registry,
		runner:   runner,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Submit validates the request, registers a workflow, and starts its
// pipeline. It returns the workflow id immediately.
func (e *Executor) Submit(req Request) (string, error) {
	req.Company = strings.TrimSpace(req.Company)
	if req.Company == "" {
		return "", fmt.Errorf("%w: company is required", ErrInvalidRequest)
	}

	id, handle, err := e.registry.register(req)
	if err != nil {
		return "", err
	}

	metrics.WorkflowsStarted.Inc()
	metrics.ActiveWorkflows.Inc()
	e.logger.Info("Workflow submitted",
		zap.String("workflow_id", id),
		zap.String("company", req.Company),
		zap.String("strategy_focus", req.StrategyFocus),
	)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer metrics.ActiveWorkflows.Dec()
		start := time.Now()

		defer func() {
			if rec := recover(); rec != nil {
				e.logger.Error("Pipeline panicked",
					zap.String("workflow_id", id),
					zap.Any("panic", rec),
				)
				handle.Fail(StageOutput, fmt.Sprintf("internal error: %v", rec))
			}
			metrics.WorkflowDuration.Observe(time.Since(start).Seconds())
		}()

		e.runner.Run(e.ctx, req, handle)
	}()

	return id, nil
}

// GetStatus returns a consistent snapshot of one workflow's state.
func (e *Executor) GetStatus(id string) (Snapshot, error) {
	return e.registry.Snapshot(id)
}

// GetResult returns the final artifact once the workflow completed.
func (e *Executor) GetResult(id string) (Result, error) {
	return e.registry.Result(id)
}

// Watch subscribes to a workflow's activity feed.
func (e *Executor) Watch(id string, buffer int) (<-chan ActivityEntry, func(), error) {
	return e.registry.Watch(id, buffer)
}

// ActiveCount returns the number of in-flight workflows.
func (e *Executor) ActiveCount() int {
	return e.registry.ActiveCount()
}

// Shutdown cancels all in-flight pipelines and waits for them to settle
// or for ctx to expire. Abandoned workflows are otherwise left to run
// to completion; cancellation is a lifecycle concern, not a polling one.
func (e *Executor) Shutdown(ctx context.Context) error {
	e.cancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
