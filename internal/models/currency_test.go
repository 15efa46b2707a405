package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gw-price-converter/internal/custom_err"
)

func TestNormalizeCurrency(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "upper", in: "USD", want: "USD"},
		{name: "lower with spaces", in: " amd ", want: "AMD"},
		{name: "mixed", in: "rUb", want: "RUB"},
		{name: "empty", in: "", wantErr: true},
		{name: "too long", in: "USDT", wantErr: true},
		{name: "digits", in: "U5D", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeCurrency(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, custom_err.ErrInvalidCurrency)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeCurrencies_DropsRepeats(t *testing.T) {
	got, err := NormalizeCurrencies([]string{"rub", "AMD", "RUB", "eur"})
	require.NoError(t, err)
	assert.Equal(t, []string{"RUB", "AMD", "EUR"}, got)
}

func TestParseCurrencyList(t *testing.T) {
	assert.Equal(t, []string{"RUB", "AMD"}, ParseCurrencyList("RUB,AMD"))
	assert.Equal(t, []string{"rub", "eur"}, ParseCurrencyList(" rub, ,eur,"))
	assert.Nil(t, ParseCurrencyList(""))
}

func TestConversionResponse_Find(t *testing.T) {
	resp := &ConversionResponse{Conversions: []ConversionResult{{Currency: "RUB", Amount: 1}, {Currency: "AMD", Amount: 2}}}

	c, ok := resp.Find("AMD")
	assert.True(t, ok)
	assert.Equal(t, 2.0, c.Amount)

	_, ok = resp.Find("EUR")
	assert.False(t, ok)
}
