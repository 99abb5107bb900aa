package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"
)

// stubRunner drives the handle through a scripted terminal outcome.
type stubRunner struct {
	fail  bool
	steps int
	delay time.Duration
}

func (r *stubRunner) Run(ctx context.Context, req Request, h *Handle) {
	h.Transition(StageResearch, "Starting analysis for "+req.Company)
	for i := 0; i < r.steps; i++ {
		if r.delay > 0 {
			select {
			case <-time.After(r.delay):
			case <-ctx.Done():
				h.Fail(StageResearch, "canceled: "+ctx.Err().Error())
				return
			}
		}
		h.Log(fmt.Sprintf("%s step %d", req.Company, i))
	}
	if r.fail {
		h.Fail(StageDraft, "draft failed: all providers exhausted")
		return
	}
	h.Complete(Result{Company: req.Company, QualityScore: 8})
}

func waitTerminal(t *testing.T, e *Executor, id string) Snapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snap, err := e.GetStatus(id)
		if err != nil {
			t.Fatalf("GetStatus failed: %v", err)
		}
		if snap.Status.Terminal() {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("workflow %s never reached a terminal state", id)
	return Snapshot{}
}

func newTestExecutor(runner Runner) *Executor {
	registry := NewRegistry(100, testBaskets, zap.NewNop())
	return NewExecutor(registry, runner, zap.NewNop())
}

func TestExecutorRejectsEmptyCompany(t *testing.T) {
	e := newTestExecutor(&stubRunner{})

	if _, err := e.Submit(Request{Company: "   "}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("got %v, want ErrInvalidRequest", err)
	}
}

func TestExecutorSubmitReturnsImmediately(t *testing.T) {
	e := newTestExecutor(&stubRunner{steps: 3, delay: 20 * time.Millisecond})

	start := time.Now()
	id, err := e.Submit(Request{Company: "Acme Corp", StrategyFocus: "cost_leadership"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Millisecond {
		t.Errorf("Submit blocked for %v", elapsed)
	}

	snap := waitTerminal(t, e, id)
	if snap.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", snap.Status)
	}
	if err := e.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
}

func TestExecutorErroredWorkflowHasNoResult(t *testing.T) {
	e := newTestExecutor(&stubRunner{fail: true})

	id, err := e.Submit(Request{Company: "Acme Corp"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	snap := waitTerminal(t, e, id)
	if snap.Status != StatusError {
		t.Fatalf("status = %s, want error", snap.Status)
	}
	if snap.ErrorDetail == "" {
		t.Error("errored workflow carries no error_detail")
	}
	if _, err := e.GetResult(id); !errors.Is(err, ErrNotCompleted) {
		t.Errorf("got %v, want ErrNotCompleted", err)
	}
	_ = e.Shutdown(context.Background())
}

func TestExecutorConcurrentWorkflowsAreIndependent(t *testing.T) {
	defer goleak.VerifyNone(t)

	ok := &stubRunner{steps: 5, delay: time.Millisecond}
	e := newTestExecutor(ok)

	idA, err := e.Submit(Request{Company: "Alpha Inc"})
	if err != nil {
		t.Fatalf("Submit Alpha: %v", err)
	}
	idB, err := e.Submit(Request{Company: "Beta LLC"})
	if err != nil {
		t.Fatalf("Submit Beta: %v", err)
	}

	snapA := waitTerminal(t, e, idA)
	snapB := waitTerminal(t, e, idB)

	if snapA.Status != StatusCompleted || snapB.Status != StatusCompleted {
		t.Fatalf("statuses (%s, %s), want both completed", snapA.Status, snapB.Status)
	}

	// Each log is strictly append-ordered and mentions only its own
	// company; no interleaving across workflow ids.
	for _, tc := range []struct {
		snap    Snapshot
		company string
		other   string
	}{
		{snapA, "Alpha Inc", "Beta LLC"},
		{snapB, "Beta LLC", "Alpha Inc"},
	} {
		for i, entry := range tc.snap.ActivityLog {
			if entry.Seq != uint64(i+1) {
				t.Errorf("%s log entry %d has seq %d", tc.company, i, entry.Seq)
			}
			if strings.Contains(entry.Message, tc.other) {
				t.Errorf("%s log contains entry for %s: %q", tc.company, tc.other, entry.Message)
			}
		}
	}

	if err := e.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
}

func TestExecutorIndependentCompletionWhenOneErrors(t *testing.T) {
	registry := NewRegistry(100, testBaskets, zap.NewNop())
	e := NewExecutor(registry, &companyKeyedRunner{failCompany: "Bad Corp"}, zap.NewNop())

	idGood, _ := e.Submit(Request{Company: "Good Corp"})
	idBad, _ := e.Submit(Request{Company: "Bad Corp"})

	good := waitTerminal(t, e, idGood)
	bad := waitTerminal(t, e, idBad)

	if good.Status != StatusCompleted {
		t.Errorf("good workflow status = %s, want completed", good.Status)
	}
	if bad.Status != StatusError {
		t.Errorf("bad workflow status = %s, want error", bad.Status)
	}
	_ = e.Shutdown(context.Background())
}

func TestExecutorShutdownCancelsInFlight(t *testing.T) {
	e := newTestExecutor(&stubRunner{steps: 1000, delay: 10 * time.Millisecond})

	id, err := e.Submit(Request{Company: "Acme Corp"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown did not settle: %v", err)
	}

	snap, err := e.GetStatus(id)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if !snap.Status.Terminal() {
		t.Errorf("status after shutdown = %s, want terminal", snap.Status)
	}
}

// companyKeyedRunner fails one company by name and completes the rest.
type companyKeyedRunner struct {
	failCompany string
}

func (r *companyKeyedRunner) Run(_ context.Context, req Request, h *Handle) {
	h.Transition(StageDraft, "drafting")
	if req.Company == r.failCompany {
		h.Fail(StageDraft, "draft failed: all providers exhausted")
		return
	}
	h.Complete(Result{Company: req.Company, QualityScore: 8})
}
