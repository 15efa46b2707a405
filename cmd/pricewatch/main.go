package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gw-price-converter/internal/models"
	"gw-price-converter/pkg/client"
)

func main() {
	var (
		apiURL   = flag.String("api", "http://localhost:8080", "адрес сервиса конвертации")
		amount   = flag.Float64("amount", 0, "цена объявления")
		from     = flag.String("from", "USD", "валюта цены")
		to       = flag.String("to", "RUB,AMD", "валюты для показа через запятую")
		interval = flag.Duration("interval", client.DefaultRefreshInterval, "период обновления курсов")
		timeout  = flag.Duration("timeout", 10*time.Second, "таймаут запроса")
	)
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := client.NewWatcher(client.New(*apiURL, *timeout), *amount, *from, client.Options{
		AutoFetch:        true,
		RefreshInterval:  *interval,
		TargetCurrencies: models.ParseCurrencyList(*to),
	})
	updates := w.Subscribe()

	render(os.Stdout, w.State(), w.IsStale())

	w.Start(ctx)
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case s := <-updates:
			if s.Loading {
				continue
			}
			if s.Error != "" {
				log.Warn("rates may be stale", slog.String("error", s.Error))
			}
			render(os.Stdout, s, w.IsStale())
		}
	}
}

func render(out io.Writer, s client.State, stale bool) {
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %s", s.Timestamp.Local().Format("15:04:05"), s.Original.FormattedAmount)
	for _, c := range s.Conversions {
		if c.Resolved != nil && !*c.Resolved {
			continue
		}
		fmt.Fprintf(&b, "  ≈ %s", c.FormattedAmount)
	}
	if s.Source != "" {
		fmt.Fprintf(&b, "  [%s]", s.Source)
	}
	if stale || s.Error != "" {
		b.WriteString("  (курсы могут быть устаревшими)")
	}

	fmt.Fprintln(out, b.String())
}
