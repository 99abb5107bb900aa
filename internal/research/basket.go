// Package research fans a company research request out to independent
// data-source baskets and collects whatever succeeded.
package research

import (
	"context"
	"encoding/json"
	"errors"
)

// The fixed basket set. Each basket is an independent adapter; the
// aggregator never requires all of them to succeed.
const (
	BasketFinancials = "financials"
	BasketValuation  = "valuation"
	BasketVolatility = "volatility"
	BasketMacro      = "macro"
	BasketNews       = "news"
	BasketSentiment  = "sentiment"
)

// BasketNames lists the baskets in display order.
func BasketNames() []string {
	return []string{
		BasketFinancials,
		BasketValuation,
		BasketVolatility,
		BasketMacro,
		BasketNews,
		BasketSentiment,
	}
}

// Company identifies the research subject.
type Company struct {
	Name   string
	Ticker string
}

// Basket is one independent data-source adapter.
type Basket interface {
	Name() string
	Fetch(ctx context.Context, company Company) (json.RawMessage, error)
}

// Bundle is the aggregated research output. Baskets holds the raw
// payload of every basket that succeeded; Failed maps each failed
// basket to its error string. Partial bundles are valid input
// downstream.
type Bundle struct {
	Company Company
	Baskets map[string]json.RawMessage
	Failed  map[string]string
}

// Complete reports whether every basket contributed.
func (b Bundle) Complete() bool { return len(b.Failed) == 0 }

// ErrAllBasketsFailed is returned only when no basket contributed any
// data; one surviving basket keeps the research stage alive.
var ErrAllBasketsFailed = errors.New("all research baskets failed")
