// Package filter computes event age against the published limit and
// annotates records with the result.
package filter

import (
	"time"

	"agegate/internal/event"
	"agegate/internal/metrics"
)

// Evaluation is the result of one age computation.
type Evaluation struct {
	// Delta is now minus the event timestamp, in seconds. A future
	// timestamp yields a negative delta; that is not an error.
	Delta float64
	// Expired is true when Delta strictly exceeds the limit.
	Expired bool
	// LimitUsed echoes the limit in effect for this evaluation.
	LimitUsed float64
}

// Evaluate computes the age of an event. Pure; no I/O, no state.
func Evaluate(eventTime, now time.Time, limit float64) Evaluation {
	delta := now.Sub(eventTime).Seconds()
	return Evaluation{
		Delta:     delta,
		Expired:   delta > limit,
		LimitUsed: limit,
	}
}

// LimitSource supplies the current age limit without blocking.
type LimitSource interface {
	Current() float64
}

// Filter annotates records with age, expiry flag, and the limit used.
type Filter struct {
	limits         LimitSource
	target         string
	expiredTarget  string
	ageLimitTarget string
	now            func() time.Time
}

// Config holds the field references the filter writes to.
type Config struct {
	Limits         LimitSource
	Target         string
	ExpiredTarget  string
	AgeLimitTarget string
	Now            func() time.Time // optional, defaults to time.Now
}

// New creates a filter.
func New(cfg Config) *Filter {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Filter{
		limits:         cfg.Limits,
		target:         cfg.Target,
		expiredTarget:  cfg.ExpiredTarget,
		ageLimitTarget: cfg.AgeLimitTarget,
		now:            now,
	}
}

// Apply evaluates rec against the current limit and writes the three
// computed fields. It returns false when the record has no usable
// timestamp, in which case the record is left untouched. The read of the
// current limit is non-blocking; this path never performs I/O.
func (f *Filter) Apply(rec *event.Record) bool {
	ts, ok := rec.Timestamp()
	if !ok {
		return false
	}

	ev := Evaluate(ts, f.now(), f.limits.Current())

	rec.Set(f.target, ev.Delta)
	rec.Set(f.expiredTarget, ev.Expired)
	rec.Set(f.ageLimitTarget, ev.LimitUsed)

	metrics.EventsEvaluatedTotal.Inc()
	if ev.Expired {
		metrics.EventsExpiredTotal.Inc()
	}
	return true
}
