package storage

const (
	// Резервные курсы относительно USD
	ListFallbackRatesQuery = `
		SELECT currency, rate
		FROM fallback_rates
		WHERE rate > 0
		ORDER BY currency
	`
)
