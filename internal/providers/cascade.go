package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/strategos-ai/orchestrator/internal/metrics"
)

// CascadeConfig tunes per-attempt behavior.
type CascadeConfig struct {
	// CallTimeout bounds each individual provider attempt.
	CallTimeout time.Duration
	// RatePerMinute caps attempts per provider; zero disables limiting.
	RatePerMinute int
	// BreakerThreshold is consecutive failures before a provider's
	// circuit opens; zero uses the breaker default.
	BreakerThreshold int
	// BreakerCooldown is how long an open circuit rejects calls.
	BreakerCooldown time.Duration
}

// Cascade tries providers strictly in priority order until one
// succeeds. A provider failure advances immediately to the next
// provider without retrying the same one; success is atomic.
type Cascade struct {
	providers []Provider
	limiters  map[string]*rate.Limiter
	breakers  map[string]*breaker
	config    CascadeConfig
	logger    *zap.Logger
}

// NewCascade builds a cascade over providers in the given priority
// order. The list must be non-empty.
func NewCascade(ordered []Provider, config CascadeConfig, logger *zap.Logger) (*Cascade, error) {
	if len(ordered) == 0 {
		return nil, errors.New("cascade requires at least one provider")
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = 60 * time.Second
	}

	limiters := make(map[string]*rate.Limiter, len(ordered))
	breakers := make(map[string]*breaker, len(ordered))
	for _, p := range ordered {
		if config.RatePerMinute > 0 {
			limiters[p.Name()] = rate.NewLimiter(rate.Limit(float64(config.RatePerMinute)/60.0), config.RatePerMinute)
		}
		breakers[p.Name()] = newBreaker(config.BreakerThreshold, config.BreakerCooldown)
	}

	return &Cascade{
		providers: ordered,
		limiters:  limiters,
		breakers:  breakers,
		config:    config,
		logger:    logger,
	}, nil
}

// Generate runs the cascade for one call and returns the accepted
// output together with the name of the provider that produced it. When
// every provider fails the error wraps ErrExhausted and lists the
// per-provider causes.
func (c *Cascade) Generate(ctx context.Context, req GenerateRequest) (string, string, error) {
	var causes []string

	for _, p := range c.providers {
		name := p.Name()

		if br := c.breakers[name]; br != nil {
			if err := br.allow(); err != nil {
				c.logger.Debug("Skipping provider with open circuit",
					zap.String("provider", name),
					zap.String("purpose", req.Purpose),
				)
				metrics.ProviderFailures.WithLabelValues(name, "breaker_open").Inc()
				causes = append(causes, fmt.Sprintf("%s: %v", name, err))
				continue
			}
		}
		if lim := c.limiters[name]; lim != nil && !lim.Allow() {
			metrics.ProviderFailures.WithLabelValues(name, "rate_limited").Inc()
			causes = append(causes, fmt.Sprintf("%s: %v", name, ErrRateLimited))
			continue
		}

		metrics.ProviderAttempts.WithLabelValues(name).Inc()
		start := time.Now()

		callCtx, cancel := context.WithTimeout(ctx, c.config.CallTimeout)
		content, err := p.Generate(callCtx, req)
		cancel()

		if err != nil {
			c.breakers[name].recordFailure()
			metrics.ProviderFailures.WithLabelValues(name, failureReason(err)).Inc()
			c.logger.Warn("Provider attempt failed",
				zap.String("provider", name),
				zap.String("purpose", req.Purpose),
				zap.Error(err),
			)
			causes = append(causes, fmt.Sprintf("%s: %v", name, err))

			// A dead parent context cannot succeed on any provider.
			if ctx.Err() != nil {
				break
			}
			continue
		}

		c.breakers[name].recordSuccess()
		metrics.ProviderLatency.WithLabelValues(name).Observe(time.Since(start).Seconds())
		c.logger.Debug("Provider attempt succeeded",
			zap.String("provider", name),
			zap.String("purpose", req.Purpose),
			zap.Duration("elapsed", time.Since(start)),
		)
		return content, name, nil
	}

	metrics.ProviderExhaustions.Inc()
	return "", "", fmt.Errorf("%w for %s: %s", ErrExhausted, req.Purpose, strings.Join(causes, "; "))
}

// Names returns the configured priority order.
func (c *Cascade) Names() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	default:
		return "error"
	}
}
