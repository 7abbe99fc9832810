package youtube

import (
	"sync"
	"time"

	"github.com/ewilliams-labs/chartwatch/internal/core/domain"
)

// memoCache memoizes lookups by video ID for a bounded staleness window, so
// repeated renders within a session do not hit the API again.
type memoCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoEntry
	now     func() time.Time
}

type memoEntry struct {
	obs     domain.Observation
	savedAt time.Time
}

func newMemoCache(ttl time.Duration) *memoCache {
	return &memoCache{
		ttl:     ttl,
		entries: make(map[string]memoEntry),
		now:     time.Now,
	}
}

func (c *memoCache) get(videoID string) (domain.Observation, bool) {
	if c == nil {
		return domain.Observation{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[videoID]
	if !ok || c.now().Sub(e.savedAt) > c.ttl {
		delete(c.entries, videoID)
		return domain.Observation{}, false
	}
	return e.obs, true
}

func (c *memoCache) put(videoID string, obs domain.Observation) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[videoID] = memoEntry{obs: obs, savedAt: c.now()}
}
