package provider

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"gw-price-converter/internal/custom_err"
)

// RateProvider wraps one external FX source.
type RateProvider interface {
	Name() string
	FetchRates(ctx context.Context, base string, targets []string) (map[string]float64, error)
}

const (
	maxBodySize   = 4 << 20
	slowThreshold = 2 * time.Second
)

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func validateRequest(op, base string, targets []string) error {
	if base == "" {
		return fmt.Errorf("%s: %w: empty base currency", op, custom_err.ErrProviderFailure)
	}
	if len(targets) == 0 {
		return fmt.Errorf("%s: %w: no target currencies", op, custom_err.ErrProviderFailure)
	}
	for _, t := range targets {
		if t == "" {
			return fmt.Errorf("%s: %w: empty target currency", op, custom_err.ErrProviderFailure)
		}
	}
	return nil
}

// fetchBody issues a GET and returns the body of a 2xx response.
func fetchBody(ctx context.Context, client *http.Client, op, url string, log *slog.Logger) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: build request: %v", op, custom_err.ErrProviderFailure, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, custom_err.ErrProviderFailure, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: read body: %v", op, custom_err.ErrProviderFailure, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: %w: status %d", op, custom_err.ErrProviderFailure, resp.StatusCode)
	}

	if duration := time.Since(start); duration > slowThreshold {
		log.Warn("медленный запрос к провайдеру курсов",
			slog.String("op", op),
			slog.String("url", url),
			slog.Duration("duration", duration))
	}

	return body, nil
}
