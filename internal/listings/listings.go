// Package listings serves US stock listings search for the submission
// form's ticker lookup.
package listings

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// Listing is one exchange-listed security.
type Listing struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
}

// Match is a ranked search hit. MatchType orders results: exact symbol
// beats symbol prefix beats symbol substring beats name prefix beats
// name substring.
type Match struct {
	Listing
	MatchType string `json:"match_type"`
}

var matchRank = map[string]int{
	"exact_symbol":    0,
	"symbol_prefix":   1,
	"symbol_contains": 2,
	"name_prefix":     3,
	"name_contains":   4,
}

// Index holds loaded listings and answers searches. Safe for
// concurrent use; the listing set is immutable after load.
type Index struct {
	mu       sync.RWMutex
	listings []Listing
}

// Load reads a JSON snapshot of listings from path.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read listings %s: %w", path, err)
	}
	var listings []Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		return nil, fmt.Errorf("parse listings %s: %w", path, err)
	}
	return &Index{listings: listings}, nil
}

// NewIndex wraps an in-memory listing set, mainly for tests.
func NewIndex(listings []Listing) *Index {
	return &Index{listings: listings}
}

// Len returns the number of loaded listings.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.listings)
}

// Search returns up to max listings matching query, best matches
// first. Matching is case-insensitive.
func (ix *Index) Search(query string, max int) []Match {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	upper := strings.ToUpper(query)
	lower := strings.ToLower(query)

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var matches []Match
	for _, l := range ix.listings {
		symbol := strings.ToUpper(l.Symbol)
		name := strings.ToLower(l.Name)

		var mt string
		switch {
		case symbol == upper:
			mt = "exact_symbol"
		case strings.HasPrefix(symbol, upper):
			mt = "symbol_prefix"
		case strings.Contains(symbol, upper):
			mt = "symbol_contains"
		case strings.HasPrefix(name, lower):
			mt = "name_prefix"
		case strings.Contains(name, lower):
			mt = "name_contains"
		default:
			continue
		}
		matches = append(matches, Match{Listing: l, MatchType: mt})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matchRank[matches[i].MatchType] < matchRank[matches[j].MatchType]
	})
	if max > 0 && len(matches) > max {
		matches = matches[:max]
	}
	return matches
}
