package models

import "time"

// RateSource откуда взяты курсы для ответа
type RateSource string

const (
	SourceCache    RateSource = "cache"
	SourcePrimary  RateSource = "primary"
	SourceBackup   RateSource = "backup"
	SourceFallback RateSource = "fallback"
)

// RateEntry закэшированный курс пары base/target
type RateEntry struct {
	Rate      float64   `json:"rate"`
	FetchedAt time.Time `json:"fetched_at"`
}

func (e RateEntry) FetchedAtMillis() int64 {
	return e.FetchedAt.UnixMilli()
}

// ConversionResult сумма в одной валюте
type ConversionResult struct {
	Amount          float64  `json:"amount"`
	Currency        string   `json:"currency"`
	FormattedAmount string   `json:"formattedAmount"`
	Rate            *float64 `json:"rate,omitempty"`
	// Resolved is only set (to false) for targets no source could price.
	Resolved *bool `json:"resolved,omitempty"`
}

// ConversionResponse ответ на запрос конвертации
type ConversionResponse struct {
	Success     bool               `json:"success"`
	Original    ConversionResult   `json:"original"`
	Conversions []ConversionResult `json:"conversions"`
	Timestamp   int64              `json:"timestamp"`
	Cached      bool               `json:"cached"`
	Source      RateSource         `json:"source,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// Find returns the conversion for currency, if present.
func (r *ConversionResponse) Find(currency string) (ConversionResult, bool) {
	for _, c := range r.Conversions {
		if c.Currency == currency {
			return c, true
		}
	}
	return ConversionResult{}, false
}
