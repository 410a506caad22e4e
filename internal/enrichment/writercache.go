package enrichment

import (
	"sync"
	"time"
)

// writerKey identifies a writer by the credentials the kernel attached.
// The uid keeps a recycled pid from inheriting another user's container.
type writerKey struct {
	uid uint32
	pid uint32
}

type writerCache struct {
	mu         sync.Mutex
	entries    map[writerKey]writerCacheEntry
	lifetime   time.Duration
	maxEntries int
	now        func() time.Time
}

type writerCacheEntry struct {
	containerID string
	expiresAt   time.Time
}

func newWriterCache(lifetime time.Duration, maxEntries int) *writerCache {
	return &writerCache{
		entries:    make(map[writerKey]writerCacheEntry),
		lifetime:   lifetime,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns the cached container id of key. An empty id with ok set means
// the writer is known to run outside any container.
func (c *writerCache) Get(key writerKey) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return "", false
	}
	return entry.containerID, true
}

func (c *writerCache) Set(key writerKey, containerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}
	c.entries[key] = writerCacheEntry{
		containerID: containerID,
		expiresAt:   c.now().Add(c.lifetime),
	}
}

// evictLocked drops expired entries, or all entries if the cache is still full.
func (c *writerCache) evictLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	if len(c.entries) >= c.maxEntries {
		clear(c.entries)
	}
}

func (c *writerCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
