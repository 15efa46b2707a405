package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gw-price-converter/internal/custom_err"
)

// BackupProvider reads a REST endpoint answering GET /latest?base=USD with
// {"base": "USD", "rates": {"RUB": 79.7}}.
type BackupProvider struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

type backupResponse struct {
	Result string              `json:"result"`
	Base   string              `json:"base"`
	Rates  map[string]*float64 `json:"rates"`
}

func NewBackupProvider(baseURL string, timeout time.Duration, log *slog.Logger) *BackupProvider {
	return &BackupProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(timeout),
		log:     log,
	}
}

func (p *BackupProvider) Name() string {
	return "backup"
}

func (p *BackupProvider) FetchRates(ctx context.Context, base string, targets []string) (map[string]float64, error) {
	const op = "provider.BackupProvider.FetchRates"

	if err := validateRequest(op, base, targets); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("base", strings.ToUpper(base))
	endpoint := fmt.Sprintf("%s/latest?%s", p.baseURL, q.Encode())

	body, err := fetchBody(ctx, p.client, op, endpoint, p.log)
	if err != nil {
		return nil, err
	}

	var payload backupResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%s: %w: decode: %v", op, custom_err.ErrProviderFailure, err)
	}
	if payload.Result == "error" {
		return nil, fmt.Errorf("%s: %w: upstream reported error", op, custom_err.ErrProviderFailure)
	}
	if len(payload.Rates) == 0 {
		return nil, fmt.Errorf("%s: %w: rates missing in payload", op, custom_err.ErrProviderFailure)
	}

	rates := make(map[string]float64, len(targets))
	for _, target := range targets {
		code := strings.ToUpper(target)
		v, ok := payload.Rates[code]
		if !ok || v == nil || *v <= 0 {
			continue
		}
		rates[code] = *v
	}

	p.log.Debug("получены курсы от резервного провайдера",
		slog.String("base", base),
		slog.Int("requested", len(targets)),
		slog.Int("resolved", len(rates)))

	return rates, nil
}
