package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"gw-price-converter/internal/custom_err"
)

// PrimaryProvider reads the CDN-hosted currency dataset, where
// /currencies/{base}.json holds every rate for a lower-case base key:
//
//	{"date": "2024-03-06", "usd": {"rub": 79.76, "amd": 383.33}}
type PrimaryProvider struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

func NewPrimaryProvider(baseURL string, timeout time.Duration, log *slog.Logger) *PrimaryProvider {
	return &PrimaryProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(timeout),
		log:     log,
	}
}

func (p *PrimaryProvider) Name() string {
	return "primary"
}

func (p *PrimaryProvider) FetchRates(ctx context.Context, base string, targets []string) (map[string]float64, error) {
	const op = "provider.PrimaryProvider.FetchRates"

	if err := validateRequest(op, base, targets); err != nil {
		return nil, err
	}

	key := strings.ToLower(base)
	url := fmt.Sprintf("%s/currencies/%s.json", p.baseURL, key)

	body, err := fetchBody(ctx, p.client, op, url, p.log)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%s: %w: malformed json", op, custom_err.ErrProviderFailure)
	}

	table := gjson.GetBytes(body, gjson.Escape(key))
	if !table.IsObject() {
		return nil, fmt.Errorf("%s: %w: base %q missing in payload", op, custom_err.ErrProviderFailure, key)
	}

	rates := make(map[string]float64, len(targets))
	for _, target := range targets {
		v := table.Get(gjson.Escape(strings.ToLower(target)))
		if v.Type != gjson.Number || v.Float() <= 0 {
			continue
		}
		rates[strings.ToUpper(target)] = v.Float()
	}

	p.log.Debug("получены курсы от основного провайдера",
		slog.String("base", base),
		slog.Int("requested", len(targets)),
		slog.Int("resolved", len(rates)),
		slog.String("date", gjson.GetBytes(body, "date").String()))

	return rates, nil
}
