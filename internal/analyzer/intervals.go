package analyzer

import (
	"math"
	"sort"
	"time"

	"github.com/hydraping/hydraping/pkg/hydration"
)

// Interval bounds in minutes. Gaps outside this range come from irregular
// logging (manual backdating, multi-day absences) and are discarded
// before any statistics run.
const (
	minIntervalMinutes = 1
	maxIntervalMinutes = 480
)

// Event validity window: a timestamp must not be in the future and not
// older than a year.
const maxEventAge = 365 * 24 * time.Hour

// Outlier filter parameters. The z-score cut only runs with at least
// five samples; below that the spread estimate is too noisy to trust.
const (
	outlierMinSamples = 5
	outlierZThreshold = 2.5
)

// validEvent reports whether an event may be counted: positive amount,
// timestamp not in the future and at most a year old.
func validEvent(ev hydration.IntakeEvent, now time.Time) bool {
	if ev.AmountML <= 0 {
		return false
	}
	if ev.Timestamp.After(now) {
		return false
	}
	return now.Sub(ev.Timestamp) <= maxEventAge
}

// extractIntervals computes the minute gaps between consecutive valid
// events. Events must be in ascending timestamp order. Invalid events
// are skipped individually and counted, never fatal. Gaps outside
// [1, 480] minutes are dropped.
func extractIntervals(events []hydration.IntakeEvent, now time.Time) (intervals []float64, skipped int) {
	var prev *time.Time
	for i := range events {
		if !validEvent(events[i], now) {
			skipped++
			continue
		}
		ts := events[i].Timestamp
		if prev != nil {
			gap := ts.Sub(*prev).Minutes()
			if gap >= minIntervalMinutes && gap <= maxIntervalMinutes {
				intervals = append(intervals, gap)
			}
		}
		prev = &ts
	}
	return intervals, skipped
}

// filterOutliers drops intervals whose absolute z-score exceeds 2.5.
// The filter is skipped entirely when fewer than five samples exist or
// when the standard deviation is zero. If filtering would leave fewer
// than max(3, half the input), the unfiltered set is returned unchanged.
func filterOutliers(intervals []float64) []float64 {
	n := len(intervals)
	if n < outlierMinSamples {
		return intervals
	}

	m := mean(intervals)
	sd := stddev(intervals, m)
	if sd == 0 {
		return intervals
	}

	kept := make([]float64, 0, n)
	for _, v := range intervals {
		if math.Abs(v-m)/sd <= outlierZThreshold {
			kept = append(kept, v)
		}
	}

	floor := n / 2
	if floor < 3 {
		floor = 3
	}
	if len(kept) < floor {
		return intervals
	}
	return kept
}

// hourlyPattern buckets valid events by local hour of day, returning
// the amounts logged in each hour. All 24 buckets are always present.
func hourlyPattern(events []hydration.IntakeEvent, now time.Time) [24][]int {
	var buckets [24][]int
	for i := range events {
		if !validEvent(events[i], now) {
			continue
		}
		h := events[i].Timestamp.Hour()
		buckets[h] = append(buckets[h], events[i].AmountML)
	}
	return buckets
}

// -- descriptive statistics --

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the sample standard deviation around the given mean.
// Returns 0 for fewer than two samples.
func stddev(xs []float64, m float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
