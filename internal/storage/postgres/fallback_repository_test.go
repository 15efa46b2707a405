package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gw-price-converter/internal/storage"
)

func TestPgFallbackRepository_ListRates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"currency", "rate"}).
		AddRow("amd", 387.1).
		AddRow("RUB ", 91.2)
	mock.ExpectQuery(regexp.QuoteMeta(storage.ListFallbackRatesQuery)).WillReturnRows(rows)

	repo := NewFallbackRepository(mock)
	rates, err := repo.ListRates(context.Background())

	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"AMD": 387.1, "RUB": 91.2}, rates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgFallbackRepository_ListRates_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(storage.ListFallbackRatesQuery)).WillReturnError(errors.New("relation does not exist"))

	repo := NewFallbackRepository(mock)
	rates, err := repo.ListRates(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "storage.ListFallbackRates")
	assert.Nil(t, rates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgFallbackRepository_ListRates_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(storage.ListFallbackRatesQuery)).
		WillReturnRows(pgxmock.NewRows([]string{"currency", "rate"}))

	repo := NewFallbackRepository(mock)
	rates, err := repo.ListRates(context.Background())

	require.NoError(t, err)
	assert.Empty(t, rates)
}
