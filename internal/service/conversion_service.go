package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gw-price-converter/internal/cache"
	"gw-price-converter/internal/custom_err"
	"gw-price-converter/internal/kafka"
	"gw-price-converter/internal/models"
	"gw-price-converter/internal/provider"
)

type Converter interface {
	Convert(ctx context.Context, amount float64, base string, targets []string) (*models.ConversionResponse, error)
}

type FallbackRates interface {
	Rate(base, target string) (float64, bool)
}

type PriceFormatter interface {
	Format(amount float64, currency string) (string, error)
}

type ConversionOptions struct {
	CacheTTL          time.Duration
	IncludeUnresolved bool
	EventWorkers      int
	EventQueueSize    int
	Now               func() time.Time
}

type ConversionService struct {
	primary   provider.RateProvider
	backup    provider.RateProvider
	cache     cache.RateCache
	fallback  FallbackRates
	formatter PriceFormatter
	producer  kafka.Producer

	ttl               time.Duration
	includeUnresolved bool
	now               func() time.Time
	log               *slog.Logger

	eventQueue chan models.RatesEvent
	wg         sync.WaitGroup
	stopCh     chan struct{}
	stopOnce   sync.Once
}

func NewConversionService(
	primary provider.RateProvider,
	backup provider.RateProvider,
	rateCache cache.RateCache,
	fallback FallbackRates,
	formatter PriceFormatter,
	producer kafka.Producer,
	opts ConversionOptions,
	log *slog.Logger,
) *ConversionService {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Minute
	}
	if opts.EventQueueSize <= 0 {
		opts.EventQueueSize = 64
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	svc := &ConversionService{
		primary:           primary,
		backup:            backup,
		cache:             rateCache,
		fallback:          fallback,
		formatter:         formatter,
		producer:          producer,
		ttl:               opts.CacheTTL,
		includeUnresolved: opts.IncludeUnresolved,
		now:               opts.Now,
		log:               log,
		eventQueue:        make(chan models.RatesEvent, opts.EventQueueSize),
		stopCh:            make(chan struct{}),
	}

	for i := 0; i < opts.EventWorkers; i++ {
		svc.wg.Add(1)
		go svc.eventWorker(i)
	}

	return svc
}

func (s *ConversionService) eventWorker(id int) {
	defer s.wg.Done()
	s.log.Debug("rates event worker started", slog.Int("worker_id", id))

	for {
		select {
		case event := <-s.eventQueue:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.producer.SendRatesEvent(ctx, event); err != nil {
				s.log.Error("rates event send failed",
					slog.Int("worker_id", id),
					slog.String("event_id", event.EventID.String()),
					slog.String("error", err.Error()))
			}
			cancel()

		case <-s.stopCh:
			s.log.Debug("rates event worker stopping", slog.Int("worker_id", id))
			return
		}
	}
}

func (s *ConversionService) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down conversion service")

	s.stopOnce.Do(func() { close(s.stopCh) })

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.log.Warn("shutdown timeout exceeded")
		return ctx.Err()
	}
}

// Convert prices amount (expressed in base) in every target currency.
// Rates come from the cache, then the primary provider, then the backup
// provider, then the static fallback table. Provider failures never surface
// as errors.
func (s *ConversionService) Convert(ctx context.Context, amount float64, base string, targets []string) (*models.ConversionResponse, error) {
	const op = "service.Convert"

	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, custom_err.ErrInvalidAmount
	}

	base, err := models.NormalizeCurrency(base)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	targets, err = models.NormalizeCurrencies(targets)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("%s: %w: no target currencies", op, custom_err.ErrInvalidInput)
	}

	originalFormatted, err := s.formatter.Format(amount, base)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	rates := make(map[string]float64, len(targets))

	var pending []string
	for _, t := range targets {
		if t == base {
			rates[t] = 1
			continue
		}
		pending = append(pending, t)
	}

	oldest, missing := s.readCache(ctx, base, pending, now, rates)

	resp := &models.ConversionResponse{
		Success: true,
		Original: models.ConversionResult{
			Amount:          amount,
			Currency:        base,
			FormattedAmount: originalFormatted,
		},
		Cached:    true,
		Source:    models.SourceCache,
		Timestamp: oldest.UnixMilli(),
	}

	if len(missing) > 0 {
		source, fellBack := s.resolve(ctx, base, pending, now, rates)
		resp.Cached = false
		resp.Source = source
		resp.Timestamp = now.UnixMilli()
		if len(fellBack) > 0 {
			resp.Error = fmt.Sprintf("%s: fallback rates used for %s", custom_err.ErrAllProvidersFailed, strings.Join(fellBack, ", "))
		}
	}

	conversions, err := s.buildConversions(amount, targets, rates)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	resp.Conversions = conversions

	return resp, nil
}

// readCache copies fresh cached rates into rates and returns the targets it
// could not serve along with the fetch time of the oldest rate it used.
func (s *ConversionService) readCache(ctx context.Context, base string, targets []string, now time.Time, rates map[string]float64) (time.Time, []string) {
	oldest := now
	var missing []string

	for _, t := range targets {
		entry, ok, err := s.cache.Get(ctx, base, t)
		if err != nil {
			s.log.Warn("rate cache read failed",
				slog.String("base", base),
				slog.String("target", t),
				slog.String("error", err.Error()))
			missing = append(missing, t)
			continue
		}
		if !ok || !cache.IsFresh(entry, now, s.ttl) {
			missing = append(missing, t)
			continue
		}
		rates[t] = entry.Rate
		if entry.FetchedAt.Before(oldest) {
			oldest = entry.FetchedAt
		}
	}

	if len(missing) == 0 && len(targets) > 0 {
		s.log.Debug("курсы взяты из кэша", slog.String("base", base), slog.Int("count", len(targets)))
	}
	return oldest, missing
}

// resolve asks the providers in order, then the fallback table, for every
// target without a rate. It reports the first source that produced rates and
// the targets that were priced from the fallback table.
func (s *ConversionService) resolve(ctx context.Context, base string, targets []string, now time.Time, rates map[string]float64) (models.RateSource, []string) {
	var source models.RateSource

	request := targets
	for _, p := range []struct {
		provider provider.RateProvider
		source   models.RateSource
	}{
		{s.primary, models.SourcePrimary},
		{s.backup, models.SourceBackup},
	} {
		if p.provider == nil {
			continue
		}

		fetched, err := p.provider.FetchRates(ctx, base, request)
		if err == nil && len(fetched) == 0 {
			err = fmt.Errorf("%w: empty result", custom_err.ErrProviderFailure)
		}
		if err != nil {
			s.log.Warn("rate provider failed",
				slog.String("provider", p.provider.Name()),
				slog.String("base", base),
				slog.String("error", err.Error()))
			continue
		}

		accepted := make(map[string]float64, len(fetched))
		for t, rate := range fetched {
			if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
				continue
			}
			accepted[t] = rate
			rates[t] = rate
			if err := s.cache.Put(ctx, base, t, rate, now); err != nil {
				s.log.Warn("rate cache write failed",
					slog.String("base", base),
					slog.String("target", t),
					slog.String("error", err.Error()))
			}
		}

		s.log.Info("курсы получены от провайдера",
			slog.String("provider", p.provider.Name()),
			slog.String("base", base),
			slog.Int("count", len(accepted)))
		s.publish(base, p.source, accepted, false, now)

		if source == "" {
			source = p.source
		}

		request = unresolved(targets, rates)
		if len(request) == 0 {
			return source, nil
		}
	}

	// targets served fresh from the cache keep their cached rate
	request = unresolved(targets, rates)
	if len(request) == 0 {
		return source, nil
	}

	fellBack := make([]string, 0, len(request))
	used := make(map[string]float64, len(request))
	for _, t := range request {
		rate, ok := s.fallback.Rate(base, t)
		if !ok {
			continue
		}
		rates[t] = rate
		used[t] = rate
		fellBack = append(fellBack, t)
	}

	s.log.Warn("live providers could not price every target, using fallback table",
		slog.String("base", base),
		slog.Any("targets", request),
		slog.Int("fallback_hits", len(fellBack)))
	s.publish(base, models.SourceFallback, used, true, now)

	if source == "" {
		source = models.SourceFallback
	}
	return source, fellBack
}

func (s *ConversionService) buildConversions(amount float64, targets []string, rates map[string]float64) ([]models.ConversionResult, error) {
	conversions := make([]models.ConversionResult, 0, len(targets))

	for _, t := range targets {
		rate, ok := rates[t]
		if !ok {
			if s.includeUnresolved {
				resolved := false
				conversions = append(conversions, models.ConversionResult{
					Currency: t,
					Resolved: &resolved,
				})
			}
			continue
		}

		converted := amount * rate
		formatted, err := s.formatter.Format(converted, t)
		if err != nil {
			if errors.Is(err, custom_err.ErrInvalidCurrency) {
				s.log.Warn("skipping target without a known currency format", slog.String("target", t))
				continue
			}
			return nil, err
		}

		r := rate
		conversions = append(conversions, models.ConversionResult{
			Amount:          converted,
			Currency:        t,
			FormattedAmount: formatted,
			Rate:            &r,
		})
	}

	return conversions, nil
}

func (s *ConversionService) publish(base string, source models.RateSource, rates map[string]float64, degraded bool, now time.Time) {
	if s.producer == nil || len(rates) == 0 {
		return
	}

	event := models.RatesEvent{
		EventID:   uuid.New(),
		Base:      base,
		Source:    source,
		Rates:     rates,
		Degraded:  degraded,
		Timestamp: now,
	}

	select {
	case s.eventQueue <- event:
	default:
		s.log.Error("очередь событий переполнена, событие отброшено",
			slog.String("base", base),
			slog.String("source", string(source)))
	}
}

func unresolved(targets []string, rates map[string]float64) []string {
	var out []string
	for _, t := range targets {
		if _, ok := rates[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}
