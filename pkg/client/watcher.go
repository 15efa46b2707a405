package client

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gw-price-converter/internal/format"
	"gw-price-converter/internal/models"
)

const DefaultRefreshInterval = 30 * time.Minute

var ErrInvalidAmount = errors.New("amount must be greater than zero")

// Fetcher is satisfied by *Client. Implementations must return once ctx is
// cancelled: Stop and SetInterval wait for a running tick fetch to finish.
type Fetcher interface {
	Convert(ctx context.Context, amount float64, from string, targets []string) (*models.ConversionResponse, error)
}

type Options struct {
	AutoFetch        bool
	RefreshInterval  time.Duration
	TargetCurrencies []string
	Now              func() time.Time
}

// State is what a price widget renders. Error is empty unless the last
// refresh failed; the last good prices are kept either way.
type State struct {
	Original    models.ConversionResult
	Conversions []models.ConversionResult
	Timestamp   time.Time
	Cached      bool
	Source      models.RateSource
	Loading     bool
	Error       string
}

func (s State) clone() State {
	if s.Conversions != nil {
		s.Conversions = append([]models.ConversionResult(nil), s.Conversions...)
	}
	return s
}

// Watcher keeps the converted prices of one amount up to date.
type Watcher struct {
	fetcher   Fetcher
	targets   []string
	autoFetch bool
	now       func() time.Time

	mu       sync.RWMutex
	amount   float64
	from     string
	interval time.Duration
	state    State

	inFlight atomic.Bool
	refetch  atomic.Bool

	subsMu sync.Mutex
	subs   []chan State

	loopMu  sync.Mutex
	started bool
	parent  context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewWatcher(fetcher Fetcher, amount float64, from string, opts Options) *Watcher {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	w := &Watcher{
		fetcher:   fetcher,
		targets:   opts.TargetCurrencies,
		autoFetch: opts.AutoFetch,
		now:       opts.Now,
		interval:  opts.RefreshInterval,
	}
	w.reset(amount, from)
	return w
}

// reset derives the first-paint state from the raw amount without any I/O.
func (w *Watcher) reset(amount float64, from string) {
	from = strings.ToUpper(strings.TrimSpace(from))
	if from == "" {
		from = "USD"
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.amount = amount
	w.from = from
	w.state = State{
		Original: models.ConversionResult{
			Amount:          amount,
			Currency:        from,
			FormattedAmount: formatOriginal(amount, from),
		},
		Timestamp: w.now(),
	}
	if amount <= 0 {
		w.state.Error = ErrInvalidAmount.Error()
	}
}

func formatOriginal(amount float64, from string) string {
	if s, err := format.NewFormatter().Format(amount, from); err == nil {
		return s
	}
	return strconv.FormatFloat(amount, 'f', -1, 64) + " " + from
}

// Start fetches once and refreshes on every interval tick until Stop or ctx
// is done. It does nothing unless the watcher was built with AutoFetch.
func (w *Watcher) Start(ctx context.Context) {
	w.loopMu.Lock()
	if !w.autoFetch || w.started {
		w.loopMu.Unlock()
		return
	}
	w.started = true
	w.parent = ctx
	w.loopMu.Unlock()

	w.Refresh(ctx)

	w.loopMu.Lock()
	defer w.loopMu.Unlock()

	// Stop or a second Start may have run during the first fetch
	if !w.started || w.cancel != nil {
		return
	}
	w.startLoop()
}

// Stop cancels the refresh timer and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.loopMu.Lock()
	defer w.loopMu.Unlock()

	w.started = false
	w.stopLoop()
}

// SetInterval changes the refresh period, restarting a running timer.
func (w *Watcher) SetInterval(d time.Duration) {
	if d <= 0 {
		d = DefaultRefreshInterval
	}

	w.loopMu.Lock()
	defer w.loopMu.Unlock()

	w.mu.Lock()
	w.interval = d
	w.mu.Unlock()

	if w.cancel != nil {
		w.stopLoop()
		w.startLoop()
	}
}

// SetAmount switches the watched price and refetches when running. If a
// fetch is already in flight, it refetches for the new amount once that
// fetch settles.
func (w *Watcher) SetAmount(ctx context.Context, amount float64, from string) {
	w.reset(amount, from)
	w.notify()

	w.loopMu.Lock()
	running := w.started
	w.loopMu.Unlock()

	if running {
		w.refetch.Store(true)
		w.Refresh(ctx)
	}
}

func (w *Watcher) startLoop() {
	ctx, cancel := context.WithCancel(w.parent)
	done := make(chan struct{})
	w.cancel = cancel
	w.done = done

	w.mu.RLock()
	interval := w.interval
	w.mu.RUnlock()

	go func() {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.Refresh(ctx)
			}
		}
	}()
}

func (w *Watcher) stopLoop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
	w.cancel = nil
	w.done = nil
}

// Refresh fetches fresh prices now. It returns false without calling the
// endpoint while another fetch is in flight or when the amount is invalid.
func (w *Watcher) Refresh(ctx context.Context) bool {
	if !w.inFlight.CompareAndSwap(false, true) {
		return false
	}
	w.refetch.Store(false)

	ok := w.fetch(ctx)
	w.inFlight.Store(false)

	if w.refetch.Swap(false) {
		w.Refresh(ctx)
	}
	return ok
}

func (w *Watcher) fetch(ctx context.Context) bool {
	w.mu.Lock()
	amount, from := w.amount, w.from
	if amount <= 0 {
		w.state.Error = ErrInvalidAmount.Error()
		w.mu.Unlock()
		w.notify()
		return false
	}
	w.state.Loading = true
	w.mu.Unlock()
	w.notify()

	resp, err := w.fetcher.Convert(ctx, amount, from, w.targets)

	w.mu.Lock()
	w.state.Loading = false
	switch {
	case err != nil:
		w.state.Error = err.Error()
	case w.amount != amount || w.from != from:
		// amount changed while the request was in flight
	default:
		w.state.Original = resp.Original
		w.state.Conversions = resp.Conversions
		w.state.Timestamp = time.UnixMilli(resp.Timestamp)
		w.state.Cached = resp.Cached
		w.state.Source = resp.Source
		w.state.Error = resp.Error
	}
	w.mu.Unlock()
	w.notify()

	return true
}

func (w *Watcher) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state.clone()
}

func (w *Watcher) IsStale() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.now().Sub(w.state.Timestamp) > w.interval
}

// Subscribe returns a channel that receives the latest state after every
// change. Slow readers only see the most recent state.
func (w *Watcher) Subscribe() <-chan State {
	ch := make(chan State, 1)

	w.subsMu.Lock()
	w.subs = append(w.subs, ch)
	w.subsMu.Unlock()

	return ch
}

func (w *Watcher) notify() {
	s := w.State()

	w.subsMu.Lock()
	defer w.subsMu.Unlock()

	for _, ch := range w.subs {
		select {
		case ch <- s:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}
