package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gw-price-converter/internal/models"
)

// MemoryCache is the process-wide rate cache. Entries live until restart.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]models.RateEntry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]models.RateEntry),
	}
}

func (c *MemoryCache) Get(_ context.Context, base, target string) (models.RateEntry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[pairKey(base, target)]
	return entry, ok, nil
}

func (c *MemoryCache) Put(_ context.Context, base, target string, rate float64, now time.Time) error {
	const op = "cache.MemoryCache.Put"

	if rate <= 0 {
		return fmt.Errorf("%s: rate must be positive, got %v", op, rate)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[pairKey(base, target)] = models.RateEntry{Rate: rate, FetchedAt: now}
	return nil
}

// Len returns the number of cached pairs.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
