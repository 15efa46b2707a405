package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"gw-price-converter/internal/models"
)

type MockRateProvider struct {
	mock.Mock
	name string
}

func newMockProvider(name string) *MockRateProvider {
	return &MockRateProvider{name: name}
}

func (m *MockRateProvider) Name() string {
	return m.name
}

func (m *MockRateProvider) FetchRates(ctx context.Context, base string, targets []string) (map[string]float64, error) {
	args := m.Called(ctx, base, targets)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]float64), args.Error(1)
}

type MockRateCache struct {
	mock.Mock
}

func (m *MockRateCache) Get(ctx context.Context, base, target string) (models.RateEntry, bool, error) {
	args := m.Called(ctx, base, target)
	return args.Get(0).(models.RateEntry), args.Bool(1), args.Error(2)
}

func (m *MockRateCache) Put(ctx context.Context, base, target string, rate float64, now time.Time) error {
	args := m.Called(ctx, base, target, rate, now)
	return args.Error(0)
}

type MockKafkaProducer struct {
	mock.Mock
}

func (m *MockKafkaProducer) SendRatesEvent(ctx context.Context, event models.RatesEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockKafkaProducer) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockFormatter struct {
	mock.Mock
}

func (m *MockFormatter) Format(amount float64, currency string) (string, error) {
	args := m.Called(amount, currency)
	return args.String(0), args.Error(1)
}
