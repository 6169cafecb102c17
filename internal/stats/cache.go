package stats

import "sync"

// Cache is the process-wide slot for derived statistics. It is an explicitly
// owned object injected into both the sync orchestrator (which invalidates it)
// and the statistics engine (which fills it), so invalidation is a testable
// contract rather than ambient state.
//
// A recompute racing a concurrent invalidation may store a result that is
// immediately invalidated again; the next read simply recomputes. That is
// accepted, there is no intermediate inconsistent state.
type Cache struct {
	mu     sync.Mutex
	global *LaunchStats
	yearly []YearlyStats
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Invalidate drops every cached entry. The next read recomputes from the store.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.global = nil
	c.yearly = nil
}

func (c *Cache) getGlobal() (*LaunchStats, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.global == nil {
		return nil, false
	}
	s := *c.global
	return &s, true
}

func (c *Cache) setGlobal(s *LaunchStats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := *s
	c.global = &copied
}

func (c *Cache) getYearly() ([]YearlyStats, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.yearly == nil {
		return nil, false
	}
	out := make([]YearlyStats, len(c.yearly))
	copy(out, c.yearly)
	return out, true
}

func (c *Cache) setYearly(ys []YearlyStats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := make([]YearlyStats, len(ys))
	copy(copied, ys)
	c.yearly = copied
}
