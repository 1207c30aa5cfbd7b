package limit

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"agegate/internal/logger"
	"agegate/internal/metrics"
)

// fetchFunc matches Fetcher.Fetch; tests inject their own.
type fetchFunc func(ctx context.Context) Outcome

// Refresher owns the published age limit. With a remote URL configured it
// fetches once synchronously at Start and then on every scheduler tick;
// without one it publishes the static fallback once and never refreshes.
//
// The value lives in an atomic.Value so concurrent readers on the event path
// always observe a complete, current float64 without locking.
type Refresher struct {
	fetch    fetchFunc
	fallback float64
	interval time.Duration
	remote   bool

	scheduler Scheduler

	value atomic.Value // float64

	mu   sync.Mutex // guards last
	last Outcome
}

// RefresherConfig configures a Refresher.
type RefresherConfig struct {
	Fetcher   *Fetcher // nil when no URL is configured
	Fallback  float64
	Interval  time.Duration
	Scheduler Scheduler // optional, defaults to TickerScheduler
}

// NewRefresher creates a refresher. The limit is not published until Start.
func NewRefresher(cfg RefresherConfig) *Refresher {
	r := &Refresher{
		fallback:  cfg.Fallback,
		interval:  cfg.Interval,
		scheduler: cfg.Scheduler,
	}
	if r.scheduler == nil {
		r.scheduler = TickerScheduler{}
	}
	if cfg.Fetcher != nil {
		r.fetch = cfg.Fetcher.Fetch
		r.remote = true
	}
	return r
}

// Start publishes the initial limit and, when a remote source is configured,
// arms the periodic refresh. The first fetch runs synchronously so the limit
// is defined before the first event is evaluated.
func (r *Refresher) Start(ctx context.Context) {
	log := logger.WithComponent("limit_refresher")

	if !r.remote {
		r.publish(Outcome{Kind: Success, Limit: r.fallback})
		log.Info().
			Float64("limit", r.fallback).
			Msg("remote refresh disabled, static limit published")
		return
	}

	r.refresh(ctx)
	log.Info().
		Float64("limit", r.Current()).
		Dur("interval", r.interval).
		Msg("initial limit published, periodic refresh armed")

	r.scheduler.Schedule(ctx, r.interval, func() { r.refresh(ctx) })
}

// Current returns the most recently published limit. Non-blocking; safe for
// arbitrarily many concurrent callers.
func (r *Refresher) Current() float64 {
	v := r.value.Load()
	if v == nil {
		// Start has not run yet. The fallback is the only defined answer.
		return r.fallback
	}
	return v.(float64)
}

// LastOutcome returns the outcome of the most recent refresh cycle.
func (r *Refresher) LastOutcome() Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// refresh runs one fetch-and-publish cycle. A panicking fetch is converted
// to a failure outcome so the scheduler keeps ticking.
func (r *Refresher) refresh(ctx context.Context) {
	outcome := r.safeFetch(ctx)
	r.publish(outcome)
}

func (r *Refresher) safeFetch(ctx context.Context) (outcome Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			log := logger.WithComponent("limit_refresher")
			log.Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("refresh cycle panic recovered")
			metrics.PanicsRecovered.WithLabelValues("limit_refresher").Inc()
			outcome = Outcome{
				Kind:  TransportError,
				Limit: r.fallback,
				Err:   fmt.Errorf("refresh panic: %v", rec),
			}
		}
	}()

	return r.fetch(ctx)
}

func (r *Refresher) publish(outcome Outcome) {
	r.value.Store(outcome.Limit)
	metrics.AgeLimitSeconds.Set(outcome.Limit)

	r.mu.Lock()
	r.last = outcome
	r.mu.Unlock()
}
