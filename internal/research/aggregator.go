package research

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/strategos-ai/orchestrator/internal/metrics"
	"github.com/strategos-ai/orchestrator/internal/workflow"
)

// StatusFunc receives per-basket state transitions as they happen so a
// workflow's observable progress tracks real-time adapter state.
type StatusFunc func(basket string, state workflow.BasketState)

// Aggregator dispatches one research request to every basket
// concurrently, isolating per-basket timeouts and failures.
type Aggregator struct {
	baskets []Basket
	timeout time.Duration
	logger  *zap.Logger
}

// NewAggregator creates an aggregator over the given baskets with a
// per-basket timeout.
func NewAggregator(baskets []Basket, timeout time.Duration, logger *zap.Logger) *Aggregator {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Aggregator{baskets: baskets, timeout: timeout, logger: logger}
}

// Fetch fans out to all baskets and collects partial results. A basket
// failure or timeout marks that basket failed and omits it from the
// bundle; only total failure returns ErrAllBasketsFailed. Basket
// completion order never affects bundle content.
func (a *Aggregator) Fetch(ctx context.Context, company Company, status StatusFunc) (Bundle, error) {
	bundle := Bundle{
		Company: company,
		Baskets: make(map[string]json.RawMessage, len(a.baskets)),
		Failed:  make(map[string]string),
	}
	if status == nil {
		status = func(string, workflow.BasketState) {}
	}

	var mu sync.Mutex
	var g errgroup.Group

	for _, basket := range a.baskets {
		status(basket.Name(), workflow.BasketExecuting)
		g.Go(func() error {
			name := basket.Name()
			start := time.Now()

			fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
			data, err := basket.Fetch(fetchCtx, company)
			cancel()

			metrics.BasketLatency.WithLabelValues(name).Observe(time.Since(start).Seconds())

			if err != nil {
				a.logger.Warn("Basket fetch failed",
					zap.String("basket", name),
					zap.String("company", company.Name),
					zap.Error(err),
				)
				metrics.BasketFetches.WithLabelValues(name, "failed").Inc()
				mu.Lock()
				bundle.Failed[name] = err.Error()
				mu.Unlock()
				status(name, workflow.BasketFailed)
				return nil
			}

			metrics.BasketFetches.WithLabelValues(name, "completed").Inc()
			mu.Lock()
			bundle.Baskets[name] = data
			mu.Unlock()
			status(name, workflow.BasketCompleted)
			return nil
		})
	}

	// Basket errors are absorbed above; Wait only synchronizes.
	_ = g.Wait()

	if len(bundle.Baskets) == 0 {
		return bundle, fmt.Errorf("%w: %d baskets attempted", ErrAllBasketsFailed, len(a.baskets))
	}
	return bundle, nil
}
