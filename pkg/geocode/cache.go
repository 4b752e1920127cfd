package geocode

import (
	"context"
	"strings"
	"sync"
	"time"
)

// cacheEntry holds a resolved result and its expiry.
type cacheEntry struct {
	result    *Result
	expiresAt time.Time
}

// CachedClient memoizes lookups in memory. Repeated records from the
// same town resolve without another API round trip.
type CachedClient struct {
	inner Client
	ttl   time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCachedClient wraps a client with an in-memory TTL cache.
func NewCachedClient(inner Client, ttl time.Duration) *CachedClient {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedClient{
		inner:   inner,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (c *CachedClient) Locate(ctx context.Context, name, location string) (*Result, error) {
	key := strings.ToLower(strings.TrimSpace(name)) + "|" + strings.ToLower(strings.TrimSpace(location))

	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.result, nil
	}

	result, err := c.inner.Locate(ctx, name, location)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{result: result, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
	return result, nil
}
