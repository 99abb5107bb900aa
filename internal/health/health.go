// Package health aggregates dependency checks for the health endpoint.
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Checker verifies one dependency.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc struct {
	CheckerName string
	Fn          func(ctx context.Context) error
}

func (c CheckerFunc) Name() string                    { return c.CheckerName }
func (c CheckerFunc) Check(ctx context.Context) error { return c.Fn(ctx) }

// Status summarizes one dependency's health.
type Status struct {
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// Manager runs registered checkers with a shared timeout.
type Manager struct {
	mu       sync.RWMutex
	checkers []Checker
	timeout  time.Duration
	logger   *zap.Logger
}

// NewManager creates a manager; checks share a per-call timeout.
func NewManager(timeout time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Manager{timeout: timeout, logger: logger}
}

// Register adds a checker.
func (m *Manager) Register(c Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, c)
}

// Check runs all checkers and reports per-dependency status plus an
// overall healthy flag.
func (m *Manager) Check(ctx context.Context) (map[string]Status, bool) {
	m.mu.RLock()
	checkers := make([]Checker, len(m.checkers))
	copy(checkers, m.checkers)
	m.mu.RUnlock()

	results := make(map[string]Status, len(checkers))
	healthy := true
	for _, c := range checkers {
		checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
		err := c.Check(checkCtx)
		cancel()

		if err != nil {
			healthy = false
			results[c.Name()] = Status{Healthy: false, Error: err.Error()}
			m.logger.Warn("Health check failed",
				zap.String("checker", c.Name()),
				zap.Error(err),
			)
			continue
		}
		results[c.Name()] = Status{Healthy: true}
	}
	return results, healthy
}
