package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gw-price-converter/internal/cache"
	"gw-price-converter/internal/custom_err"
	"gw-price-converter/internal/fallback"
	"gw-price-converter/internal/format"
	"gw-price-converter/internal/models"
	"gw-price-converter/internal/provider"
	"gw-price-converter/internal/service"
)

type MockConverter struct {
	mock.Mock
}

func (m *MockConverter) Convert(ctx context.Context, amount float64, base string, targets []string) (*models.ConversionResponse, error) {
	args := m.Called(ctx, amount, base, targets)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ConversionResponse), args.Error(1)
}

func newTestRouter(conv service.Converter) *chi.Mux {
	r := chi.NewRouter()
	RegisterRoutes(r, NewConversionHandler(conv, "USD", []string{"RUB", "AMD"}))
	return r
}

func decodeError(t *testing.T, body io.Reader) string {
	t.Helper()
	var resp map[string]string
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp["error"]
}

func TestConversionHandler_Convert_Defaults(t *testing.T) {
	conv := new(MockConverter)
	expected := &models.ConversionResponse{Success: true, Original: models.ConversionResult{Amount: 250000, Currency: "USD"}}
	conv.On("Convert", mock.Anything, 250000.0, "USD", []string{"RUB", "AMD"}).Return(expected, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/currency/convert?amount=250000", nil)
	req.Header.Set("Origin", "https://realty.example.am")
	rec := httptest.NewRecorder()
	newTestRouter(conv).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var got models.ConversionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, *expected, got)
	conv.AssertExpectations(t)
}

func TestConversionHandler_Convert_ExplicitParams(t *testing.T) {
	conv := new(MockConverter)
	conv.On("Convert", mock.Anything, 99.5, "eur", []string{"gbp", "GEL"}).
		Return(&models.ConversionResponse{Success: true}, nil).Once()

	rec := httptest.NewRecorder()
	newTestRouter(conv).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/currency/convert?amount=99.5&from=eur&to=gbp,%20GEL,", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	conv.AssertExpectations(t)
}

func TestConversionHandler_Convert_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		convErr error
		wantMsg string
	}{
		{name: "missing amount", url: "/currency/convert", wantMsg: "amount is required"},
		{name: "not a number", url: "/currency/convert?amount=abc", wantMsg: "amount must be a number"},
		{name: "nan", url: "/currency/convert?amount=NaN", wantMsg: "amount must be a number"},
		{name: "zero amount", url: "/currency/convert?amount=0", convErr: custom_err.ErrInvalidAmount, wantMsg: "amount must be greater than zero"},
		{name: "negative amount", url: "/currency/convert?amount=-5", convErr: custom_err.ErrInvalidAmount, wantMsg: "amount must be greater than zero"},
		{name: "bad currency", url: "/currency/convert?amount=1&from=DOLLARS", convErr: custom_err.ErrInvalidCurrency, wantMsg: "invalid currency code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := new(MockConverter)
			if tt.convErr != nil {
				conv.On("Convert", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(nil, tt.convErr).Once()
			}

			rec := httptest.NewRecorder()
			newTestRouter(conv).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantMsg, decodeError(t, rec.Body))
			conv.AssertExpectations(t)
		})
	}
}

func TestConversionHandler_Convert_InternalError(t *testing.T) {
	conv := new(MockConverter)
	conv.On("Convert", mock.Anything, 100.0, "USD", []string{"RUB", "AMD"}).
		Return(nil, errors.New("formatter broke")).Once()

	rec := httptest.NewRecorder()
	newTestRouter(conv).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/currency/convert?amount=100", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to convert currency", decodeError(t, rec.Body))
}

func TestConversionHandler_Preflight(t *testing.T) {
	conv := new(MockConverter)

	for _, path := range []string{"/currency/convert", "/api/currency/convert"} {
		rec := httptest.NewRecorder()
		newTestRouter(conv).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, path, nil))

		assert.Equal(t, http.StatusNoContent, rec.Code, path)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"), path)
	}
	conv.AssertNotCalled(t, "Convert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(new(MockConverter)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestConversionEndpoint_EndToEnd(t *testing.T) {
	var primaryCalls, backupCalls atomic.Int32

	primarySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		primaryCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"date":"2024-03-06","usd":{"rub":79.76,"amd":383.33}}`)
	}))
	defer primarySrv.Close()

	backupSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backupCalls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer backupSrv.Close()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	svc := service.NewConversionService(
		provider.NewPrimaryProvider(primarySrv.URL, time.Second, log),
		provider.NewBackupProvider(backupSrv.URL, time.Second, log),
		cache.NewMemoryCache(),
		fallback.NewDefaultTable(),
		format.NewFormatter(),
		nil,
		service.ConversionOptions{CacheTTL: 30 * time.Minute, Now: func() time.Time { return now }},
		log,
	)

	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/currency/convert?amount=100&from=USD&to=RUB,AMD", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.ConversionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.Equal(t, models.SourcePrimary, resp.Source)
	assert.Equal(t, "$100", resp.Original.FormattedAmount)

	require.Len(t, resp.Conversions, 2)
	assert.Equal(t, "RUB", resp.Conversions[0].Currency)
	assert.InDelta(t, 7976, resp.Conversions[0].Amount, 1e-6)
	assert.Equal(t, 79.76, *resp.Conversions[0].Rate)
	assert.Equal(t, "AMD", resp.Conversions[1].Currency)
	assert.InDelta(t, 38333, resp.Conversions[1].Amount, 1e-6)
	assert.Equal(t, 383.33, *resp.Conversions[1].Rate)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/currency/convert?amount=100&from=USD&to=RUB,AMD", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var cached models.ConversionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cached))
	assert.True(t, cached.Cached)
	assert.Equal(t, resp.Conversions, cached.Conversions)

	assert.Equal(t, int32(1), primaryCalls.Load())
	assert.Equal(t, int32(0), backupCalls.Load())
}
