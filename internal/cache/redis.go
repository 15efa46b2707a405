package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"gw-price-converter/internal/models"
)

// RedisCache shares rate entries between converter instances.
// Keys never expire in Redis; staleness is still judged with IsFresh.
type RedisCache struct {
	client redis.Cmdable
	prefix string
	log    *slog.Logger
}

type redisEntry struct {
	Rate        float64 `json:"rate"`
	FetchedAtMs int64   `json:"fetched_at_ms"`
}

func NewRedisCache(client redis.Cmdable, prefix string, log *slog.Logger) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, log: log}
}

// NewRedisClient opens a client and pings it once.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	const op = "cache.NewRedisClient"

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return client, nil
}

func (c *RedisCache) key(base, target string) string {
	return c.prefix + pairKey(base, target)
}

func (c *RedisCache) Get(ctx context.Context, base, target string) (models.RateEntry, bool, error) {
	const op = "cache.RedisCache.Get"

	val, err := c.client.Get(ctx, c.key(base, target)).Result()
	if errors.Is(err, redis.Nil) {
		return models.RateEntry{}, false, nil
	}
	if err != nil {
		c.log.Error("redis cache get error", slog.String("op", op), slog.String("error", err.Error()))
		return models.RateEntry{}, false, fmt.Errorf("%s: %w", op, err)
	}

	var e redisEntry
	if err := json.Unmarshal([]byte(val), &e); err != nil {
		return models.RateEntry{}, false, fmt.Errorf("%s: decode: %w", op, err)
	}
	if e.Rate <= 0 {
		return models.RateEntry{}, false, nil
	}

	return models.RateEntry{Rate: e.Rate, FetchedAt: time.UnixMilli(e.FetchedAtMs)}, true, nil
}

func (c *RedisCache) Put(ctx context.Context, base, target string, rate float64, now time.Time) error {
	const op = "cache.RedisCache.Put"

	if rate <= 0 {
		return fmt.Errorf("%s: rate must be positive, got %v", op, rate)
	}

	data, err := json.Marshal(redisEntry{Rate: rate, FetchedAtMs: now.UnixMilli()})
	if err != nil {
		return fmt.Errorf("%s: encode: %w", op, err)
	}

	if err := c.client.Set(ctx, c.key(base, target), data, 0).Err(); err != nil {
		c.log.Error("redis cache set error", slog.String("op", op), slog.String("error", err.Error()))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
