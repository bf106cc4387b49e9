package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/hydraping/hydraping/pkg/hydration"
	"go.uber.org/zap"
)

// Prediction tuning constants.
const (
	minPredictionSamples = 3   // Intervals required before predicting
	sampleSaturation     = 20  // Sample count at which the adequacy term maxes out
	overdueFactor        = 1.5 // since_last beyond this multiple of the interval counts as overdue
	overduePenalty       = 0.8 // Confidence multiplier when overdue
	confidenceFloor      = 0.3
	confidenceCeil       = 0.95

	// Hour-density adjustment. Ratios outside [0.5, 2.0] come from tiny
	// samples and are ignored.
	densityRatioMin = 0.5
	densityRatioMax = 2.0
	densityBusy     = 1.2 // Above this the user drinks sooner in this hour
	densityQuiet    = 0.8 // Below this the user drinks later in this hour
	busyAdjustment  = 0.85
	quietAdjustment = 1.15
)

// Predict returns the next-drink-time forecast, serving from the cache
// while it is younger than the configured TTL. Only successful results
// are cached; any internal fault clears the cache and reports
// StatusError so the next call recomputes.
func (a *Analyzer) Predict(ctx context.Context) (pred hydration.Prediction, status hydration.Status) {
	defer func() {
		if v := recover(); v != nil {
			a.recordFault("predict", v)
			a.InvalidatePrediction()
			pred, status = hydration.Prediction{}, hydration.StatusError
		}
	}()

	now := a.now()

	a.mu.Lock()
	if a.cached != nil && now.Sub(a.cachedAt) < a.cfg.PredictionCacheTTL {
		cached := *a.cached
		a.mu.Unlock()
		return cached, hydration.StatusOK
	}
	a.mu.Unlock()

	intervals := a.intervals(ctx, a.cfg.IntervalLookbackDays)
	if len(intervals) < minPredictionSamples {
		return hydration.Prediction{}, hydration.StatusInsufficient
	}

	lastDrink, ok := a.lastDrinkWithin(ctx, 1, now)
	if !ok {
		return hydration.Prediction{}, hydration.StatusInsufficient
	}
	sinceLast := now.Sub(lastDrink).Minutes()

	interval, estimator := chooseEstimator(intervals)
	interval = a.adjustForHourDensity(ctx, interval, now)

	minutesUntil := interval - sinceLast
	if minutesUntil < 1 {
		minutesUntil = 1
	}

	confidence := predictionConfidence(intervals, sinceLast, interval)

	pred = hydration.Prediction{
		PredictedAt: now.Add(time.Duration(minutesUntil * float64(time.Minute))),
		Confidence:  confidence,
		Reason:      predictionReason(confidence, estimator, len(intervals), interval),
		Estimator:   estimator,
		Samples:     len(intervals),
		GeneratedAt: now,
	}

	a.mu.Lock()
	a.cached = &pred
	a.cachedAt = now
	a.mu.Unlock()

	a.logger.Debug("prediction computed",
		zap.Time("predicted_at", pred.PredictedAt),
		zap.Float64("confidence", confidence),
		zap.String("estimator", estimator),
		zap.Int("samples", len(intervals)),
	)
	return pred, hydration.StatusOK
}

// lastDrinkWithin returns the timestamp of the most recent valid event
// in the last N days, or false when there is none.
func (a *Analyzer) lastDrinkWithin(ctx context.Context, days int, now time.Time) (time.Time, bool) {
	events, err := a.data.RecentIntake(ctx, days)
	if err != nil {
		a.countError()
		a.logger.Warn("failed to fetch recent intake", zap.Error(err))
		return time.Time{}, false
	}
	for i := len(events) - 1; i >= 0; i-- {
		if validEvent(events[i], now) {
			return events[i].Timestamp, true
		}
	}
	return time.Time{}, false
}

// chooseEstimator picks the interval estimate: median first for
// robustness, mean if the median is out of range, mean of the last
// three intervals as the final fallback.
func chooseEstimator(intervals []float64) (float64, string) {
	if m := median(intervals); m >= minIntervalMinutes && m <= maxIntervalMinutes {
		return m, hydration.EstimatorMedian
	}
	if m := mean(intervals); m >= minIntervalMinutes && m <= maxIntervalMinutes {
		return m, hydration.EstimatorMean
	}
	recent := intervals
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	return mean(recent), hydration.EstimatorRecentMean
}

// adjustForHourDensity shifts the predicted interval by the current
// hour's historical drink density relative to the 24-hour average.
func (a *Analyzer) adjustForHourDensity(ctx context.Context, interval float64, now time.Time) float64 {
	events, err := a.data.RecentIntake(ctx, a.cfg.PatternLookbackDays)
	if err != nil {
		a.countError()
		a.logger.Warn("failed to fetch pattern window", zap.Error(err))
		return interval
	}

	buckets := hourlyPattern(events, now)
	total := 0
	for h := range buckets {
		total += len(buckets[h])
	}
	avgPerHour := float64(total) / 24
	if avgPerHour <= 0 {
		return interval
	}

	ratio := float64(len(buckets[now.Hour()])) / avgPerHour
	if ratio < densityRatioMin || ratio > densityRatioMax {
		return interval
	}
	switch {
	case ratio > densityBusy:
		return interval * busyAdjustment
	case ratio < densityQuiet:
		return interval * quietAdjustment
	default:
		return interval
	}
}

// predictionConfidence blends sample adequacy (0.4) with interval
// consistency (0.6), penalizes overdue users, and clamps to
// [0.3, 0.95].
func predictionConfidence(intervals []float64, sinceLast, interval float64) float64 {
	n := len(intervals)
	adequacy := clamp(float64(n)/sampleSaturation, 0, 1)

	consistency := 0.0
	if m := mean(intervals); m > 0 {
		sd := stddev(intervals, m)
		consistency = clamp(1-sd/m, 0, 1)
	}

	confidence := 0.4*adequacy + 0.6*consistency
	if sinceLast > overdueFactor*interval {
		confidence *= overduePenalty
	}
	return clamp(confidence, confidenceFloor, confidenceCeil)
}

// predictionReason phrases the rationale by confidence tier, naming the
// sample count and estimator.
func predictionReason(confidence float64, estimator string, samples int, interval float64) string {
	switch {
	case confidence > 0.7:
		return fmt.Sprintf("consistent pattern of drinking about every %d minutes (%s of %d intervals)",
			int(interval), estimator, samples)
	case confidence >= 0.5:
		return fmt.Sprintf("moderate pattern from %d recent intervals (%s estimate)",
			samples, estimator)
	default:
		return fmt.Sprintf("early estimate from %d recent intervals (%s estimate)",
			samples, estimator)
	}
}
