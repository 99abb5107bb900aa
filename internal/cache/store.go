package cache

import (
	"context"
	"time"

	"github.com/strategos-ai/orchestrator/internal/workflow"
)

// Entry is one cached completed analysis.
type Entry struct {
	Result   workflow.Result `json:"result"`
	StoredAt time.Time       `json:"stored_at"`
}

// Store is the fingerprint cache contract. A lookup miss is a normal
// outcome, not an error; the error return covers backend failures only
// and callers are expected to treat those as misses too.
type Store interface {
	Lookup(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, key string, entry Entry) error
}
