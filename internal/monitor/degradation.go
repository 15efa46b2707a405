package monitor

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"gw-price-converter/internal/models"
)

// Status describes one base currency that is currently priced from the
// fallback table.
type Status struct {
	Base    string
	Since   time.Time
	Streak  int
	Alerted bool
}

// DegradationMonitor follows RatesEvents and reports when the converter
// keeps serving fallback rates. State lives in memory only.
type DegradationMonitor struct {
	mu         sync.Mutex
	alertAfter int
	bases      map[string]*Status
	log        *slog.Logger
}

func NewDegradationMonitor(alertAfter int, log *slog.Logger) *DegradationMonitor {
	if alertAfter < 1 {
		alertAfter = 1
	}
	return &DegradationMonitor{
		alertAfter: alertAfter,
		bases:      make(map[string]*Status),
		log:        log,
	}
}

func (m *DegradationMonitor) HandleRatesEvent(_ context.Context, event models.RatesEvent) error {
	if event.Base == "" {
		m.log.Warn("событие без базовой валюты пропущено", slog.String("event_id", event.EventID.String()))
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	st, degraded := m.bases[event.Base]

	if !event.Degraded {
		if degraded {
			m.log.Info("live rates restored",
				slog.String("base", event.Base),
				slog.String("source", string(event.Source)),
				slog.Int("degraded_events", st.Streak),
				slog.Duration("degraded_for", event.Timestamp.Sub(st.Since)))
			delete(m.bases, event.Base)
		}
		return nil
	}

	if !degraded {
		st = &Status{Base: event.Base, Since: event.Timestamp}
		m.bases[event.Base] = st
		m.log.Warn("конвертер перешёл на резервные курсы",
			slog.String("base", event.Base),
			slog.Int("currencies", len(event.Rates)))
	}
	st.Streak++

	if st.Streak >= m.alertAfter && !st.Alerted {
		st.Alerted = true
		m.log.Error("резервные курсы используются слишком долго",
			slog.String("base", event.Base),
			slog.Int("degraded_events", st.Streak),
			slog.Time("since", st.Since),
			slog.Duration("degraded_for", event.Timestamp.Sub(st.Since)))
	}

	return nil
}

// Degraded lists the bases currently on fallback rates, sorted by code.
func (m *DegradationMonitor) Degraded() []Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Status, 0, len(m.bases))
	for _, st := range m.bases {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Base < out[j].Base })
	return out
}
