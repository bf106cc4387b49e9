package analyzer

import (
	"math"
	"testing"
	"time"

	"github.com/hydraping/hydraping/pkg/hydration"
)

func event(ts time.Time, amount int) hydration.IntakeEvent {
	return hydration.IntakeEvent{ID: "ev", AmountML: amount, Timestamp: ts}
}

func TestExtractIntervals(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
	day := time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local)

	t.Run("morning scenario", func(t *testing.T) {
		events := []hydration.IntakeEvent{
			event(day, 300),
			event(day.Add(70*time.Minute), 300),
			event(day.Add(145*time.Minute), 300),
			event(day.Add(210*time.Minute), 300),
		}
		intervals, skipped := extractIntervals(events, now)
		if skipped != 0 {
			t.Errorf("expected 0 skipped, got %d", skipped)
		}
		want := []float64{70, 75, 65}
		if len(intervals) != len(want) {
			t.Fatalf("expected %d intervals, got %d", len(want), len(intervals))
		}
		for i := range want {
			if math.Abs(intervals[i]-want[i]) > 1e-9 {
				t.Errorf("interval %d: expected %.0f, got %.2f", i, want[i], intervals[i])
			}
		}
		if median(intervals) != 70 {
			t.Errorf("expected median 70, got %.2f", median(intervals))
		}
	})

	t.Run("skips invalid events", func(t *testing.T) {
		events := []hydration.IntakeEvent{
			event(now.Add(-3*time.Hour), 250),
			event(now.Add(-2*time.Hour), 0),              // non-positive amount
			event(now.Add(time.Hour), 250),               // future
			event(now.AddDate(-2, 0, 0), 250),            // older than a year
			event(now.Add(-90*time.Minute), 250),
		}
		intervals, skipped := extractIntervals(events, now)
		if skipped != 3 {
			t.Errorf("expected 3 skipped, got %d", skipped)
		}
		// Only the first and last events survive: one 90-minute gap.
		if len(intervals) != 1 || math.Abs(intervals[0]-90) > 1e-9 {
			t.Errorf("expected single 90-minute interval, got %v", intervals)
		}
	})

	t.Run("drops out-of-range gaps", func(t *testing.T) {
		events := []hydration.IntakeEvent{
			event(day, 250),
			event(day.Add(30*time.Second), 250), // under a minute
			event(day.Add(time.Hour), 250),
		}
		intervals, _ := extractIntervals(events, now)
		// The sub-minute gap is dropped; the next gap is measured from
		// the intermediate event, not bridged over it.
		if len(intervals) != 1 {
			t.Fatalf("expected 1 interval, got %v", intervals)
		}
	})

	t.Run("overnight gap discarded", func(t *testing.T) {
		events := []hydration.IntakeEvent{
			event(day.AddDate(0, 0, -1), 250),
			event(day, 250), // 24h gap, far above 480 minutes
		}
		intervals, _ := extractIntervals(events, now)
		if len(intervals) != 0 {
			t.Errorf("expected no intervals across an overnight gap, got %v", intervals)
		}
	})

	t.Run("fewer than two events", func(t *testing.T) {
		intervals, _ := extractIntervals([]hydration.IntakeEvent{event(day, 250)}, now)
		if len(intervals) != 0 {
			t.Errorf("expected empty, got %v", intervals)
		}
	})
}

func TestFilterOutliers(t *testing.T) {
	t.Run("under five samples untouched", func(t *testing.T) {
		in := []float64{10, 20, 400, 30}
		got := filterOutliers(in)
		if len(got) != 4 {
			t.Errorf("expected unfiltered set, got %v", got)
		}
	})

	t.Run("zero stddev untouched", func(t *testing.T) {
		in := []float64{45, 45, 45, 45, 45, 45}
		got := filterOutliers(in)
		if len(got) != 6 {
			t.Errorf("expected unfiltered set, got %v", got)
		}
	})

	t.Run("removes extreme outlier", func(t *testing.T) {
		// Nine tight values and one far off. The outlier's z-score
		// exceeds 2.5 while the rest stay well under it.
		in := []float64{44, 45, 46, 44, 45, 46, 44, 45, 46, 400}
		got := filterOutliers(in)
		if len(got) != 9 {
			t.Fatalf("expected 9 survivors, got %d: %v", len(got), got)
		}
		for _, v := range got {
			if v == 400 {
				t.Error("outlier survived the filter")
			}
		}
	})

	t.Run("never below half or three", func(t *testing.T) {
		inputs := [][]float64{
			{1, 2, 3, 200, 210, 220, 230},
			{5, 480, 5, 480, 5, 480},
			{1, 1, 1, 1, 479, 480},
		}
		for _, in := range inputs {
			got := filterOutliers(in)
			floor := len(in) / 2
			if floor < 3 {
				floor = 3
			}
			if len(got) < floor {
				t.Errorf("input %v: filter left %d, below floor %d", in, len(got), floor)
			}
		}
	})
}

func TestHourlyPattern(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
	events := []hydration.IntakeEvent{
		event(time.Date(2026, 3, 9, 9, 15, 0, 0, time.Local), 250),
		event(time.Date(2026, 3, 10, 9, 45, 0, 0, time.Local), 200),
		event(time.Date(2026, 3, 10, 14, 0, 0, 0, time.Local), 300), // future relative to now
		event(time.Date(2026, 3, 10, 11, 0, 0, 0, time.Local), 0),   // invalid amount
	}

	buckets := hourlyPattern(events, now)
	if len(buckets[9]) != 2 {
		t.Errorf("hour 9: expected 2 amounts, got %v", buckets[9])
	}
	if len(buckets[14]) != 0 {
		t.Errorf("future event should be excluded, got %v", buckets[14])
	}
	if len(buckets[11]) != 0 {
		t.Errorf("zero-amount event should be excluded, got %v", buckets[11])
	}
}

func TestDescriptiveStats(t *testing.T) {
	xs := []float64{70, 75, 65}
	if got := mean(xs); math.Abs(got-70) > 1e-9 {
		t.Errorf("mean: expected 70, got %v", got)
	}
	if got := median(xs); got != 70 {
		t.Errorf("median: expected 70, got %v", got)
	}
	if got := median([]float64{10, 20, 30, 40}); got != 25 {
		t.Errorf("even median: expected 25, got %v", got)
	}
	if got := stddev(xs, 70); math.Abs(got-5) > 1e-9 {
		t.Errorf("stddev: expected 5, got %v", got)
	}
	if got := stddev([]float64{42}, 42); got != 0 {
		t.Errorf("single-sample stddev: expected 0, got %v", got)
	}
}
