package analyzer

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/hydraping/hydraping/pkg/hydration"
)

func TestVelocity(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.Local)

	t.Run("normal rate", func(t *testing.T) {
		// 750 ml over 2 hours: 375 ml/hour.
		src := &fakeSource{
			events: []hydration.IntakeEvent{
				event(now.Add(-2*time.Hour), 250),
				event(now.Add(-time.Hour), 250),
				event(now, 250),
			},
			now: now,
		}
		a := newTestAnalyzer(src, &fakeSettings{}, &now)

		rate, status := a.Velocity(context.Background())
		if status != hydration.StatusOK {
			t.Fatalf("expected ok, got %s", status)
		}
		if math.Abs(rate-375) > 1e-9 {
			t.Errorf("expected 375 ml/h, got %v", rate)
		}
	})

	t.Run("span under thirty minutes", func(t *testing.T) {
		src := &fakeSource{
			events: []hydration.IntakeEvent{
				event(now.Add(-20*time.Minute), 250),
				event(now, 250),
			},
			now: now,
		}
		a := newTestAnalyzer(src, &fakeSettings{}, &now)

		if _, status := a.Velocity(context.Background()); status != hydration.StatusInsufficient {
			t.Errorf("expected insufficient for a 20-minute span, got %s", status)
		}
	})

	t.Run("single event", func(t *testing.T) {
		src := &fakeSource{events: []hydration.IntakeEvent{event(now, 250)}, now: now}
		a := newTestAnalyzer(src, &fakeSettings{}, &now)

		if _, status := a.Velocity(context.Background()); status != hydration.StatusInsufficient {
			t.Errorf("expected insufficient for one event, got %s", status)
		}
	})

	t.Run("insane rate rejected", func(t *testing.T) {
		// 6 liters in 35 minutes is logging noise, not hydration.
		src := &fakeSource{
			events: []hydration.IntakeEvent{
				event(now.Add(-35*time.Minute), 3000),
				event(now, 3000),
			},
			now: now,
		}
		a := newTestAnalyzer(src, &fakeSettings{}, &now)

		if _, status := a.Velocity(context.Background()); status != hydration.StatusInsufficient {
			t.Errorf("expected insufficient for an insane rate, got %s", status)
		}
	})

	t.Run("fetch error", func(t *testing.T) {
		src := &fakeSource{now: now, err: errors.New("db locked")}
		a := newTestAnalyzer(src, &fakeSettings{}, &now)

		if _, status := a.Velocity(context.Background()); status != hydration.StatusError {
			t.Errorf("expected error status, got %s", status)
		}
	})
}

func TestPace(t *testing.T) {
	settings := &fakeSettings{s: hydration.DefaultSettings()} // 2000 ml goal

	t.Run("intake before active window counts as ahead", func(t *testing.T) {
		now := time.Date(2026, 3, 10, 7, 0, 0, 0, time.Local)
		src := &fakeSource{
			events: []hydration.IntakeEvent{event(now.Add(-30*time.Minute), 250)},
			now:    now,
		}
		a := newTestAnalyzer(src, settings, &now)

		if got := a.Pace(context.Background()); got != hydration.PaceAhead {
			t.Errorf("expected ahead, got %s", got)
		}
	})

	t.Run("no intake before active window is unknown", func(t *testing.T) {
		now := time.Date(2026, 3, 10, 7, 0, 0, 0, time.Local)
		a := newTestAnalyzer(&fakeSource{now: now}, settings, &now)

		if got := a.Pace(context.Background()); got != hydration.PaceUnknown {
			t.Errorf("expected unknown, got %s", got)
		}
	})

	t.Run("zero events late evening is behind", func(t *testing.T) {
		now := time.Date(2026, 3, 10, 23, 0, 0, 0, time.Local)
		a := newTestAnalyzer(&fakeSource{now: now}, settings, &now)

		if got := a.Pace(context.Background()); got != hydration.PaceBehind {
			t.Errorf("expected behind, got %s", got)
		}
	})

	t.Run("on track at midday", func(t *testing.T) {
		// At 16:00 half the active day has passed: expectation is
		// 1000 ml, and 900 ml (within the 10% tolerance) is ahead.
		now := time.Date(2026, 3, 10, 16, 0, 0, 0, time.Local)
		src := &fakeSource{
			events: eventsEvery(now.Add(-6*time.Hour), 2*time.Hour, 3, 300),
			now:    now,
		}
		a := newTestAnalyzer(src, settings, &now)

		if got := a.Pace(context.Background()); got != hydration.PaceAhead {
			t.Errorf("expected ahead with 900/1000 ml, got %s", got)
		}
	})

	t.Run("short of tolerance is behind", func(t *testing.T) {
		now := time.Date(2026, 3, 10, 16, 0, 0, 0, time.Local)
		src := &fakeSource{
			events: []hydration.IntakeEvent{event(now.Add(-time.Hour), 500)},
			now:    now,
		}
		a := newTestAnalyzer(src, settings, &now)

		if got := a.Pace(context.Background()); got != hydration.PaceBehind {
			t.Errorf("expected behind with 500/1000 ml, got %s", got)
		}
	})

	t.Run("invalid goal is unknown", func(t *testing.T) {
		now := time.Date(2026, 3, 10, 16, 0, 0, 0, time.Local)
		bad := &fakeSettings{s: hydration.Settings{DailyGoalML: 0}}
		a := newTestAnalyzer(&fakeSource{now: now}, bad, &now)

		if got := a.Pace(context.Background()); got != hydration.PaceUnknown {
			t.Errorf("expected unknown for zero goal, got %s", got)
		}
	})

	t.Run("settings failure is unknown", func(t *testing.T) {
		now := time.Date(2026, 3, 10, 16, 0, 0, 0, time.Local)
		bad := &fakeSettings{err: errors.New("settings table missing")}
		a := newTestAnalyzer(&fakeSource{now: now}, bad, &now)

		if got := a.Pace(context.Background()); got != hydration.PaceUnknown {
			t.Errorf("expected unknown on settings failure, got %s", got)
		}
		if a.InternalErrors() == 0 {
			t.Error("expected the failure to be counted")
		}
	})
}

func TestSmartDelay(t *testing.T) {
	t.Run("output bounds for degenerate bases", func(t *testing.T) {
		now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
		a := newTestAnalyzer(&fakeSource{now: now}, &fakeSettings{s: hydration.DefaultSettings()}, &now)

		for _, base := range []int{-100, 0, 1, 5, 45, 240, 10000} {
			got := a.SmartDelay(context.Background(), base)
			if got < 5 || got > 240 {
				t.Errorf("base %d: delay %d out of [5, 240]", base, got)
			}
		}
	})

	t.Run("high-confidence prediction pulls the reminder in", func(t *testing.T) {
		now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
		a := newTestAnalyzer(&fakeSource{now: now}, &fakeSettings{s: hydration.DefaultSettings()}, &now)

		// Prime the cache with a confident prediction 20 minutes out.
		a.cached = &hydration.Prediction{
			PredictedAt: now.Add(20 * time.Minute),
			Confidence:  0.9,
			GeneratedAt: now,
		}
		a.cachedAt = now

		got := a.SmartDelay(context.Background(), 45)
		if got != 16 { // 20 * 0.8
			t.Errorf("expected 16, got %d", got)
		}
	})

	t.Run("aligned delay never reaches the base", func(t *testing.T) {
		now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
		a := newTestAnalyzer(&fakeSource{now: now}, &fakeSettings{s: hydration.DefaultSettings()}, &now)

		// Predicted need 6 minutes before a 5-minute base: the aligned
		// value would floor to 5, equal to the base, so the rule is
		// skipped and the base returned.
		a.cached = &hydration.Prediction{
			PredictedAt: now.Add(4 * time.Minute),
			Confidence:  0.9,
			GeneratedAt: now,
		}
		a.cachedAt = now

		if got := a.SmartDelay(context.Background(), 5); got != 5 {
			t.Errorf("expected the base 5, got %d", got)
		}
	})

	t.Run("behind pace shortens the base", func(t *testing.T) {
		now := time.Date(2026, 3, 10, 23, 0, 0, 0, time.Local)
		// No events at 23:00: behind pace, no prediction possible.
		a := newTestAnalyzer(&fakeSource{now: now}, &fakeSettings{s: hydration.DefaultSettings()}, &now)

		if got := a.SmartDelay(context.Background(), 45); got != 36 { // 45 * 0.8
			t.Errorf("expected 36, got %d", got)
		}
	})

	t.Run("ahead pace never lengthens", func(t *testing.T) {
		now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
		src := &fakeSource{
			events: []hydration.IntakeEvent{event(now.Add(-30*time.Minute), 500)},
			now:    now,
		}
		a := newTestAnalyzer(src, &fakeSettings{s: hydration.DefaultSettings()}, &now)

		if got := a.SmartDelay(context.Background(), 45); got != 45 {
			t.Errorf("expected the base unchanged when ahead, got %d", got)
		}
	})
}
