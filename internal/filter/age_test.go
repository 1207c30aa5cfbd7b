package filter

import (
	"testing"
	"time"

	"agegate/internal/event"
)

func TestEvaluate(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		eventTime   time.Time
		limit       float64
		wantDelta   float64
		wantExpired bool
	}{
		{"fresh event", now.Add(-30 * time.Second), 60, 30, false},
		{"expired event", now.Add(-90 * time.Second), 60, 90, true},
		{"boundary delta equals limit", now.Add(-60 * time.Second), 60, 60, false},
		{"just past boundary", now.Add(-60*time.Second - time.Millisecond), 60, 60.001, true},
		{"future timestamp yields negative delta", now.Add(45 * time.Second), 60, -45, false},
		{"same instant", now, 60, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.eventTime, now, tt.limit)
			if got.Delta != tt.wantDelta {
				t.Errorf("Delta = %v, want %v", got.Delta, tt.wantDelta)
			}
			if got.Expired != tt.wantExpired {
				t.Errorf("Expired = %v, want %v", got.Expired, tt.wantExpired)
			}
			if got.LimitUsed != tt.limit {
				t.Errorf("LimitUsed = %v, want %v", got.LimitUsed, tt.limit)
			}
		})
	}
}

type staticLimit float64

func (s staticLimit) Current() float64 { return float64(s) }

func TestFilterApply(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	f := New(Config{
		Limits:         staticLimit(60),
		Target:         "[@metadata][age]",
		ExpiredTarget:  "[@metadata][expired]",
		AgeLimitTarget: "[@metadata][age_limit]",
		Now:            func() time.Time { return now },
	})

	rec := event.New(nil)
	rec.SetTimestamp(now.Add(-120 * time.Second))

	if !f.Apply(rec) {
		t.Fatal("Apply() = false, want true")
	}

	if v, ok := rec.Get("[@metadata][age]"); !ok || v != 120.0 {
		t.Errorf("age field = %v, %v, want 120", v, ok)
	}
	if v, ok := rec.Get("[@metadata][expired]"); !ok || v != true {
		t.Errorf("expired field = %v, %v, want true", v, ok)
	}
	if v, ok := rec.Get("[@metadata][age_limit]"); !ok || v != 60.0 {
		t.Errorf("age_limit field = %v, %v, want 60", v, ok)
	}
}

func TestFilterApplyCustomTargets(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	f := New(Config{
		Limits:         staticLimit(300),
		Target:         "age_secs",
		ExpiredTarget:  "[flags][stale]",
		AgeLimitTarget: "[flags][limit]",
		Now:            func() time.Time { return now },
	})

	rec := event.New(nil)
	rec.SetTimestamp(now.Add(-10 * time.Second))

	if !f.Apply(rec) {
		t.Fatal("Apply() = false, want true")
	}
	if v, ok := rec.Get("age_secs"); !ok || v != 10.0 {
		t.Errorf("age_secs = %v, %v, want 10", v, ok)
	}
	if v, ok := rec.Get("[flags][stale]"); !ok || v != false {
		t.Errorf("stale = %v, %v, want false", v, ok)
	}
}

func TestFilterApplyMissingTimestamp(t *testing.T) {
	f := New(Config{
		Limits:         staticLimit(60),
		Target:         "[@metadata][age]",
		ExpiredTarget:  "[@metadata][expired]",
		AgeLimitTarget: "[@metadata][age_limit]",
	})

	rec := event.New(map[string]any{"message": "no timestamp"})
	if f.Apply(rec) {
		t.Fatal("Apply() = true for record without timestamp")
	}
	if _, ok := rec.Get("[@metadata][age]"); ok {
		t.Error("record without timestamp must stay unannotated")
	}
}
