package keygen

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLinkCacheExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewLinkCache(func() time.Time { return now })
	key := LinkKey{LicenseID: "L1", AssetID: "A1"}

	cache.Put(key, DownloadLink{URL: "https://a", ExpiresAt: now.Add(time.Minute)})

	link, ok := cache.Get(key)
	assert.True(t, ok)
	assert.Equal(t, "https://a", link.URL)

	now = now.Add(time.Minute)
	_, ok = cache.Get(key)
	assert.False(t, ok, "a link is stale at its expiry instant")

	assert.Equal(t, 1, cache.Sweep())
	assert.Equal(t, 0, cache.Len())
}

func TestLinkCacheLastWriteWins(t *testing.T) {
	now := time.Now()
	cache := NewLinkCache(func() time.Time { return now })
	key := LinkKey{LicenseID: "L1", AssetID: "A1"}

	cache.Put(key, DownloadLink{URL: "https://old", ExpiresAt: now.Add(time.Hour)})
	cache.Put(key, DownloadLink{URL: "https://new", ExpiresAt: now.Add(time.Hour)})

	link, ok := cache.Get(key)
	assert.True(t, ok)
	assert.Equal(t, "https://new", link.URL)
}

func TestLinkCacheConcurrentAccess(t *testing.T) {
	cache := NewLinkCache(nil)
	expires := time.Now().Add(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := LinkKey{LicenseID: "L1", AssetID: fmt.Sprintf("A%d", i%4)}
			for j := 0; j < 100; j++ {
				cache.Put(key, DownloadLink{URL: fmt.Sprintf("https://%d/%d", i, j), ExpiresAt: expires})
				_, _ = cache.Get(key)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 4, cache.Len())
}

func TestLinkCacheSweepsWhenLarge(t *testing.T) {
	now := time.Now()
	cache := NewLinkCache(func() time.Time { return now })

	for i := 0; i < linkCacheSweepThreshold; i++ {
		cache.Put(LinkKey{AssetID: fmt.Sprintf("old-%d", i)}, DownloadLink{ExpiresAt: now.Add(-time.Second)})
	}
	cache.Put(LinkKey{AssetID: "fresh"}, DownloadLink{ExpiresAt: now.Add(time.Hour)})

	assert.Equal(t, 1, cache.Len())
}
