package cache

import (
	"context"
	"time"

	"gw-price-converter/internal/models"
)

// RateCache stores the last fetched rate per (base, target) pair.
// Freshness is decided by the caller through IsFresh.
type RateCache interface {
	Get(ctx context.Context, base, target string) (models.RateEntry, bool, error)
	Put(ctx context.Context, base, target string, rate float64, now time.Time) error
}

// IsFresh reports whether entry is younger than ttl at now.
func IsFresh(entry models.RateEntry, now time.Time, ttl time.Duration) bool {
	return now.Sub(entry.FetchedAt) < ttl
}

func pairKey(base, target string) string {
	return base + ":" + target
}
