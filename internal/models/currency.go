package models

import (
	"fmt"
	"strings"

	"gw-price-converter/internal/custom_err"
)

// NormalizeCurrency приводит ISO 4217 код к верхнему регистру и проверяет формат
func NormalizeCurrency(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if len(c) != 3 {
		return "", fmt.Errorf("%w: %q", custom_err.ErrInvalidCurrency, code)
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: %q", custom_err.ErrInvalidCurrency, code)
		}
	}
	return c, nil
}

// NormalizeCurrencies normalizes every code and drops repeats, keeping the first occurrence.
func NormalizeCurrencies(codes []string) ([]string, error) {
	out := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		c, err := NormalizeCurrency(code)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

// ParseCurrencyList splits a comma separated "to" parameter.
func ParseCurrencyList(raw string) []string {
	var codes []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			codes = append(codes, p)
		}
	}
	return codes
}
