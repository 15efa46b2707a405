package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"gw-price-converter/internal/storage"
)

// Querier is the subset of pgxpool.Pool used by the repositories.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type FallbackRepository interface {
	ListRates(ctx context.Context) (map[string]float64, error)
}

type PgFallbackRepository struct {
	db Querier
}

func NewFallbackRepository(db Querier) FallbackRepository {
	return &PgFallbackRepository{db: db}
}

func (r *PgFallbackRepository) ListRates(ctx context.Context) (map[string]float64, error) {
	const op = "storage.ListFallbackRates"

	rows, err := r.db.Query(ctx, storage.ListFallbackRatesQuery)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	rates := make(map[string]float64)
	for rows.Next() {
		var (
			currency string
			rate     float64
		)
		if err := rows.Scan(&currency, &rate); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		rates[strings.ToUpper(strings.TrimSpace(currency))] = rate
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return rates, nil
}
