package gemini

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// responseCache memoizes CLI responses by prompt digest for a bounded
// window, so repeated identical turns don't pay for a second invocation.
type responseCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	response string
	expires  time.Time
}

func newResponseCache(ttl time.Duration) *responseCache {
	return &responseCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func promptDigest(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

func (c *responseCache) get(prompt string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[promptDigest(prompt)]
	if !ok || c.now().After(entry.expires) {
		return "", false
	}
	return entry.response, true
}

func (c *responseCache) put(prompt, response string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	// Opportunistic pruning keeps the map from growing unbounded.
	for digest, entry := range c.entries {
		if now.After(entry.expires) {
			delete(c.entries, digest)
		}
	}
	c.entries[promptDigest(prompt)] = cacheEntry{
		response: response,
		expires:  now.Add(c.ttl),
	}
}
