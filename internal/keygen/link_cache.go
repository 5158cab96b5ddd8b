// internal/keygen/link_cache.go
package keygen

import (
	"sync"
	"time"
)

const linkCacheSweepThreshold = 1024

// LinkKey identifies a cached download link.
type LinkKey struct {
	LicenseID string
	AssetID   string
	Filename  string
}

// LinkCache keeps issued download links until their expiry. Writes for the
// same key replace the entry whole; the last completed write wins.
type LinkCache struct {
	mu      sync.RWMutex
	entries map[LinkKey]DownloadLink
	now     func() time.Time
}

func NewLinkCache(now func() time.Time) *LinkCache {
	if now == nil {
		now = time.Now
	}
	return &LinkCache{
		entries: make(map[LinkKey]DownloadLink),
		now:     now,
	}
}

// Get returns the link for key while its expiry is still in the future.
func (c *LinkCache) Get(key LinkKey) (DownloadLink, bool) {
	c.mu.RLock()
	link, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !c.now().Before(link.ExpiresAt) {
		linkCacheLookups.WithLabelValues("miss").Inc()
		return DownloadLink{}, false
	}
	linkCacheLookups.WithLabelValues("hit").Inc()
	return link, true
}

func (c *LinkCache) Put(key LinkKey, link DownloadLink) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = link
	if len(c.entries) > linkCacheSweepThreshold {
		c.sweepLocked()
	}
}

// Sweep drops expired entries and returns how many were removed.
func (c *LinkCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweepLocked()
}

func (c *LinkCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *LinkCache) sweepLocked() int {
	now := c.now()
	removed := 0
	for key, link := range c.entries {
		if !now.Before(link.ExpiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}
