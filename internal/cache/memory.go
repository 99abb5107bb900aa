package cache

import (
	"context"
	"sync"
	"time"

	"github.com/strategos-ai/orchestrator/internal/metrics"
)

// DefaultMaxEntries bounds the in-memory store when no limit is set.
const DefaultMaxEntries = 512

// MemoryStore is a mutex-guarded in-process store with an access-time
// LRU bound and optional TTL. A TTL of zero means entries live for the
// process lifetime.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    map[string]Entry
	lastAccess map[string]time.Time
	maxEntries int
	ttl        time.Duration
}

// NewMemoryStore creates a memory store holding at most maxEntries
// entries, each expiring after ttl (zero disables expiry).
func NewMemoryStore(maxEntries int, ttl time.Duration) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryStore{
		entries:    make(map[string]Entry),
		lastAccess: make(map[string]time.Time),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

// Lookup returns the cached entry for key, if present and unexpired.
func (s *MemoryStore) Lookup(_ context.Context, key string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return Entry{}, false, nil
	}
	if s.ttl > 0 && time.Since(entry.StoredAt) > s.ttl {
		delete(s.entries, key)
		delete(s.lastAccess, key)
		metrics.CacheSize.Set(float64(len(s.entries)))
		return Entry{}, false, nil
	}
	s.lastAccess[key] = time.Now()
	return entry, true, nil
}

// Put stores an entry, evicting the least recently used one when full.
func (s *MemoryStore) Put(_ context.Context, key string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; !exists && len(s.entries) >= s.maxEntries {
		s.evictLocked()
	}
	s.entries[key] = entry
	s.lastAccess[key] = time.Now()
	metrics.CacheSize.Set(float64(len(s.entries)))
	return nil
}

// Len returns the number of retained entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) evictLocked() {
	var oldestKey string
	var oldestTime time.Time
	for key, at := range s.lastAccess {
		if oldestKey == "" || at.Before(oldestTime) {
			oldestKey = key
			oldestTime = at
		}
	}
	if oldestKey != "" {
		delete(s.entries, oldestKey)
		delete(s.lastAccess, oldestKey)
		metrics.CacheEvictions.Inc()
	}
}
