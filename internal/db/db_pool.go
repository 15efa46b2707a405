package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolConfig sizes the pool used to read the fallback rate overrides.
type PoolConfig struct {
	MaxConns        int
	ConnectTimeout  time.Duration
	RetryAttempts   int
	RetryDelay      time.Duration
	ApplicationName string
}

func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxConns:        4,
		ConnectTimeout:  5 * time.Second,
		RetryAttempts:   3,
		RetryDelay:      500 * time.Millisecond,
		ApplicationName: "gw-price-converter",
	}
}

func NewPool(ctx context.Context, dsn string, cfg PoolConfig, log *slog.Logger) (*pgxpool.Pool, error) {
	const op = "db.NewPool"

	conf, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: не удалось распарсить DSN: %w", op, err)
	}

	conf.MaxConns = int32(cfg.MaxConns)
	conf.MaxConnIdleTime = 5 * time.Minute
	if cfg.ApplicationName != "" {
		conf.ConnConfig.RuntimeParams["application_name"] = cfg.ApplicationName
	}
	conf.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	for attempt := 0; attempt < cfg.RetryAttempts; attempt++ {
		var pool *pgxpool.Pool
		pool, err = pgxpool.NewWithConfig(ctx, conf)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				log.Info("подключение к базе данных успешно", slog.Int("attempt", attempt+1))
				return pool, nil
			}
			pool.Close()
		}

		log.Warn("не удалось подключиться к базе данных",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", cfg.RetryAttempts),
			slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(retryDelay(cfg.RetryDelay, attempt)):
		}
	}

	return nil, fmt.Errorf("%s: не удалось подключиться после %d попыток: %w", op, cfg.RetryAttempts, err)
}

// retryDelay doubles base on every attempt.
func retryDelay(base time.Duration, attempt int) time.Duration {
	return base * time.Duration(1<<attempt)
}
