package custom_err

import "errors"

var (
	// Validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidCurrency = errors.New("invalid currency")
	ErrInvalidAmount   = errors.New("invalid amount")

	// Rate source errors
	ErrProviderFailure    = errors.New("rate provider failure")
	ErrAllProvidersFailed = errors.New("all rate providers failed")
)
