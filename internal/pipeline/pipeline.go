// Package pipeline drives the quality-gated stage machine for one
// analysis workflow: cache check, research fan-out, draft, and the
// bounded evaluate/revise loop.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/strategos-ai/orchestrator/internal/cache"
	"github.com/strategos-ai/orchestrator/internal/metrics"
	"github.com/strategos-ai/orchestrator/internal/providers"
	"github.com/strategos-ai/orchestrator/internal/report"
	"github.com/strategos-ai/orchestrator/internal/research"
	"github.com/strategos-ai/orchestrator/internal/workflow"
)

const (
	// DefaultQualityThreshold is the evaluate score at which the loop
	// exits without further revision.
	DefaultQualityThreshold = 7
	// DefaultMaxRevisions caps the revise loop, guaranteeing
	// termination regardless of evaluate scores.
	DefaultMaxRevisions = 3
)

// Tuning holds the loop-exit knobs. Both may be updated at runtime via
// config hot reload; in-flight workflows pick the new values up on
// their next evaluate pass.
type Tuning struct {
	QualityThreshold int
	MaxRevisions     int
}

// Pipeline wires the cache, aggregator, and cascade into the stage
// machine. One Pipeline serves all workflows; per-workflow state lives
// behind the handle.
type Pipeline struct {
	cache      cache.Store
	aggregator *research.Aggregator
	cascade    *providers.Cascade
	focus      *FocusLibrary
	logger     *zap.Logger

	mu     sync.RWMutex
	tuning Tuning
}

// New creates a pipeline. Out-of-range tuning fields fall back to
// defaults; MaxRevisions zero is valid and accepts the first draft.
func New(store cache.Store, aggregator *research.Aggregator, cascade *providers.Cascade, focus *FocusLibrary, tuning Tuning, logger *zap.Logger) *Pipeline {
	if tuning.QualityThreshold < 1 || tuning.QualityThreshold > 10 {
		tuning.QualityThreshold = DefaultQualityThreshold
	}
	if tuning.MaxRevisions < 0 {
		tuning.MaxRevisions = DefaultMaxRevisions
	}
	return &Pipeline{
		cache:      store,
		aggregator: aggregator,
		cascade:    cascade,
		focus:      focus,
		tuning:     tuning,
		logger:     logger,
	}
}

// UpdateTuning replaces the loop-exit knobs. Invalid values are ignored
// field by field.
func (p *Pipeline) UpdateTuning(t Tuning) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t.QualityThreshold >= 1 && t.QualityThreshold <= 10 {
		p.tuning.QualityThreshold = t.QualityThreshold
	}
	if t.MaxRevisions >= 0 {
		p.tuning.MaxRevisions = t.MaxRevisions
	}
}

func (p *Pipeline) currentTuning() Tuning {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tuning
}

// Run executes the stage machine for one workflow and always leaves
// the handle in a terminal state.
func (p *Pipeline) Run(ctx context.Context, req workflow.Request, h *workflow.Handle) {
	logger := p.logger.With(zap.String("workflow_id", h.ID()), zap.String("company", req.Company))

	subject := req.Company
	if req.Ticker != "" {
		subject = fmt.Sprintf("%s (%s)", req.Company, req.Ticker)
	}
	h.Transition(workflow.StageInput, "Starting analysis for "+subject)

	// Cache check: a hit skips research, draft, evaluate, and revise
	// entirely and leaves basket_status untouched.
	h.Transition(workflow.StageCacheCheck, "Checking for a prior matching analysis")
	key := cache.Fingerprint(req.Company, req.StrategyFocus)
	entry, found, err := p.cache.Lookup(ctx, key)
	if err != nil {
		logger.Warn("Cache lookup failed, continuing as miss", zap.Error(err))
	}
	if found {
		metrics.CacheHits.Inc()
		logger.Info("Cache hit, skipping pipeline")
		h.Log("Cache hit: returning stored analysis")
		res := entry.Result
		res.CacheHit = true
		h.SetProvider(res.ProviderUsed)
		h.Complete(res)
		return
	}
	metrics.CacheMisses.Inc()

	// Research: partial basket failures degrade gracefully, only total
	// failure is fatal here.
	h.Transition(workflow.StageResearch, fmt.Sprintf("Dispatching %d research baskets", len(research.BasketNames())))
	bundle, err := p.aggregator.Fetch(ctx, research.Company{Name: req.Company, Ticker: req.Ticker}, h.SetBasket)
	if err != nil {
		logger.Error("Research failed", zap.Error(err))
		h.Fail(workflow.StageResearch, "research failed: "+err.Error())
		return
	}
	if bundle.Complete() {
		h.Log("Research completed, all baskets returned data")
	} else {
		h.Log(fmt.Sprintf("Research completed with partial data (%d of %d baskets)",
			len(bundle.Baskets), len(research.BasketNames())))
	}

	focusContext := p.focus.Describe(req.StrategyFocus)

	// Draft: cascade exhaustion is fatal to the workflow.
	h.Transition(workflow.StageDraft, "Drafting initial analysis")
	draft, providerUsed, err := p.cascade.Generate(ctx, providers.GenerateRequest{
		Purpose: "draft",
		Prompt:  draftPrompt(req.Company, focusContext, bundle),
	})
	if err != nil {
		logger.Error("Draft failed", zap.Error(err))
		h.Fail(workflow.StageDraft, "draft failed: "+err.Error())
		return
	}
	h.SetDraft(draft)
	h.SetProvider(providerUsed)
	h.Log("Draft produced by " + providerUsed)

	// Evaluate/revise loop, bounded by MaxRevisions.
	var score int
	var critique string
	revisions := 0
	for {
		tuning := p.currentTuning()

		h.Transition(workflow.StageEvaluate, "Evaluating draft quality")
		response, _, err := p.cascade.Generate(ctx, providers.GenerateRequest{
			Purpose: "evaluate",
			Prompt:  evaluatePrompt(draft, focusContext),
		})
		if err != nil {
			logger.Error("Evaluate failed", zap.Error(err))
			h.Fail(workflow.StageEvaluate, "evaluate failed: "+err.Error())
			return
		}
		ev := parseEvaluation(response)
		score, critique = ev.Score, ev.Reasoning
		h.SetScore(score)
		h.Log(fmt.Sprintf("Scored %d/10", score))
		logger.Info("Draft evaluated",
			zap.Int("score", score),
			zap.Int("revisions", revisions),
		)

		if score >= tuning.QualityThreshold {
			break
		}
		if revisions >= tuning.MaxRevisions {
			h.Log(fmt.Sprintf("Revision cap reached (%d), accepting draft at %d/10", tuning.MaxRevisions, score))
			break
		}

		h.Transition(workflow.StageRevise, fmt.Sprintf("Revising draft (revision %d)", revisions+1))
		revised, reviseProvider, err := p.cascade.Generate(ctx, providers.GenerateRequest{
			Purpose: "revise",
			Prompt:  revisePrompt(draft, critique, focusContext),
		})
		if err != nil {
			logger.Error("Revise failed", zap.Error(err))
			h.Fail(workflow.StageRevise, "revise failed: "+err.Error())
			return
		}
		draft = revised
		providerUsed = reviseProvider
		h.SetDraft(draft)
		h.SetProvider(providerUsed)
		revisions = h.IncrementRevision()
	}

	// Output: store the artifact, then complete.
	now := time.Now()
	res := workflow.Result{
		Company:       req.Company,
		Ticker:        req.Ticker,
		StrategyFocus: req.StrategyFocus,
		Report:        draft,
		SWOT:          report.ParseSWOT(draft),
		QualityScore:  score,
		RevisionCount: revisions,
		ReportLength:  len(draft),
		Critique:      critique,
		ProviderUsed:  providerUsed,
		CacheHit:      false,
		GeneratedAt:   now,
	}
	if err := p.cache.Put(ctx, key, cache.Entry{Result: res, StoredAt: now}); err != nil {
		logger.Warn("Failed to store result in cache", zap.Error(err))
	}
	h.Complete(res)
	logger.Info("Workflow completed",
		zap.Int("score", score),
		zap.Int("revisions", revisions),
		zap.String("provider", providerUsed),
	)
}
