package fallback

import "strings"

// DefaultRates are last-known-good USD based rates, used only when every
// live provider failed.
var DefaultRates = map[string]float64{
	"USD": 1,
	"RUB": 79.76,
	"AMD": 383.33,
	"EUR": 0.92,
	"GBP": 0.79,
	"GEL": 2.69,
	"CHF": 0.88,
	"AED": 3.67,
	"CNY": 7.19,
	"KZT": 472.5,
	"UAH": 41.3,
	"TRY": 34.2,
}

// Table is an immutable set of USD based rates.
type Table struct {
	rates map[string]float64
}

func NewTable(rates map[string]float64) *Table {
	t := &Table{rates: make(map[string]float64, len(rates))}
	for code, rate := range rates {
		if rate > 0 {
			t.rates[strings.ToUpper(code)] = rate
		}
	}
	return t
}

func NewDefaultTable() *Table {
	return NewTable(DefaultRates)
}

// Lookup returns the USD→target rate.
func (t *Table) Lookup(target string) (float64, bool) {
	rate, ok := t.rates[strings.ToUpper(target)]
	return rate, ok
}

// Rate returns base→target, crossing through USD when base is not USD.
func (t *Table) Rate(base, target string) (float64, bool) {
	base, target = strings.ToUpper(base), strings.ToUpper(target)
	if base == target {
		return 1, true
	}

	toTarget, ok := t.Lookup(target)
	if !ok {
		return 0, false
	}
	if base == "USD" {
		return toTarget, true
	}

	toBase, ok := t.Lookup(base)
	if !ok {
		return 0, false
	}
	return toTarget / toBase, true
}

// Merge returns a copy of t with overrides applied. Non-positive overrides are ignored.
func (t *Table) Merge(overrides map[string]float64) *Table {
	merged := make(map[string]float64, len(t.rates)+len(overrides))
	for code, rate := range t.rates {
		merged[code] = rate
	}
	for code, rate := range overrides {
		if rate > 0 {
			merged[strings.ToUpper(code)] = rate
		}
	}
	return NewTable(merged)
}

func (t *Table) Len() int {
	return len(t.rates)
}
