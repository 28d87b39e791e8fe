package scanner

import (
	"sync"
	"time"

	"github.com/viettran295/vTrade/internal/types"
)

type cacheEntry struct {
	series    *types.Series
	lastFetch time.Time
}

// ScanCache holds the most recent fetch per symbol for the lifetime of
// the scanner. Entries go stale after the query interval and are
// replaced on the next scan; nothing is ever evicted. Writes are
// per-symbol, but the map itself is hit by concurrent fetch tasks, so
// access is mutex-guarded.
type ScanCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewScanCache creates an empty cache.
func NewScanCache() *ScanCache {
	return &ScanCache{entries: make(map[string]cacheEntry)}
}

// Get returns the cached series for a symbol.
func (c *ScanCache) Get(symbol string) (*types.Series, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[symbol]
	if !ok {
		return nil, false
	}

	return entry.series, true
}

// Put stores a freshly fetched series.
func (c *ScanCache) Put(symbol string, series *types.Series, fetchedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[symbol] = cacheEntry{series: series, lastFetch: fetchedAt}
}

// NeedsRefresh reports whether the symbol has no entry or its entry is
// older than the interval.
func (c *ScanCache) NeedsRefresh(symbol string, now time.Time, interval time.Duration) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[symbol]
	if !ok {
		return true
	}

	return now.Sub(entry.lastFetch) >= interval
}

// Len returns the number of cached symbols.
func (c *ScanCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
