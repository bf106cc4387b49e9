// Package analyzer computes hydration pattern statistics: inter-drink
// intervals, outlier filtering, next-drink prediction with confidence,
// hydration velocity, schedule adherence, and the smart reminder delay.
// It never writes to storage; all reads go through the injected sources.
package analyzer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hydraping/hydraping/pkg/hydration"
	"go.uber.org/zap"
)

// DataSource is the narrow view of the hydration log the analyzer
// consumes. Events must be returned in ascending timestamp order.
type DataSource interface {
	RecentIntake(ctx context.Context, days int) ([]hydration.IntakeEvent, error)
	IntakeToday(ctx context.Context) ([]hydration.IntakeEvent, error)
}

// SettingsSource supplies the read-only settings snapshot.
type SettingsSource interface {
	Settings(ctx context.Context) (hydration.Settings, error)
}

// Analyzer derives hydration insights from the intake log. All public
// operations return an explicit status instead of raising: callers can
// tell "not enough data" apart from "internal fault". Internal faults
// are recovered, logged, and counted; they never escape.
type Analyzer struct {
	data     DataSource
	settings SettingsSource
	cfg      AnalyzerConfig
	logger   *zap.Logger
	now      func() time.Time

	// Prediction cache, invalidated by TTL or an explicit call.
	// Guarded by mu: the HTTP layer may call from concurrent requests.
	mu       sync.Mutex
	cached   *hydration.Prediction
	cachedAt time.Time

	internalErrors atomic.Uint64
	skippedRecords atomic.Uint64
}

// NewAnalyzer creates an Analyzer reading from the given sources.
func NewAnalyzer(data DataSource, settings SettingsSource, cfg AnalyzerConfig, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		data:     data,
		settings: settings,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// InternalErrors returns the count of recovered internal faults since
// the analyzer was created. Diagnostic only.
func (a *Analyzer) InternalErrors() uint64 {
	return a.internalErrors.Load()
}

// SkippedRecords returns the count of invalid events skipped during
// interval extraction.
func (a *Analyzer) SkippedRecords() uint64 {
	return a.skippedRecords.Load()
}

// InvalidatePrediction discards the cached prediction. The cache is
// otherwise only invalidated by TTL, so callers wanting a fresh
// prediction right after logging a drink call this first.
func (a *Analyzer) InvalidatePrediction() {
	a.mu.Lock()
	a.cached = nil
	a.mu.Unlock()
}

// countError bumps the fault counters (diagnostic and Prometheus).
func (a *Analyzer) countError() {
	a.internalErrors.Add(1)
	faultsMetric.Inc()
}

// recordFault logs and counts a recovered panic from a public entry point.
func (a *Analyzer) recordFault(op string, v any) {
	a.countError()
	a.logger.Error("analyzer internal fault",
		zap.String("op", op),
		zap.Any("panic", v),
	)
}

// intervals fetches the log and extracts filtered intervals. Any fetch
// error yields an empty list; invalid records are skipped and counted.
func (a *Analyzer) intervals(ctx context.Context, days int) []float64 {
	events, err := a.data.RecentIntake(ctx, days)
	if err != nil {
		a.countError()
		a.logger.Warn("failed to fetch intake log", zap.Error(err))
		return nil
	}

	raw, skipped := extractIntervals(events, a.now())
	if skipped > 0 {
		a.skippedRecords.Add(uint64(skipped))
		skippedMetric.Add(float64(skipped))
		a.logger.Debug("skipped invalid intake records", zap.Int("count", skipped))
	}
	return filterOutliers(raw)
}

// DataQuality grades the interval history backing the current analysis.
func (a *Analyzer) DataQuality(ctx context.Context) hydration.DataQuality {
	return qualityFor(len(a.intervals(ctx, a.cfg.IntervalLookbackDays)))
}

func qualityFor(samples int) hydration.DataQuality {
	switch {
	case samples < 1:
		return hydration.QualityInsufficient
	case samples < 5:
		return hydration.QualityPoor
	case samples < 10:
		return hydration.QualityFair
	case samples < 20:
		return hydration.QualityGood
	default:
		return hydration.QualityExcellent
	}
}

// Insights assembles the complete analytics snapshot. Sub-computations
// that fail or lack data report their unknown variant; the record is
// always complete.
func (a *Analyzer) Insights(ctx context.Context) (out hydration.Insights) {
	defer func() {
		if v := recover(); v != nil {
			a.recordFault("insights", v)
			out = hydration.Insights{
				Pace:             hydration.PaceUnknown,
				PredictionStatus: hydration.StatusError,
				DataQuality:      hydration.QualityInsufficient,
				InternalErrors:   a.internalErrors.Load(),
				GeneratedAt:      a.now(),
			}
		}
	}()

	intervals := a.intervals(ctx, a.cfg.IntervalLookbackDays)

	out = hydration.Insights{
		Pace:        a.Pace(ctx),
		DataQuality: qualityFor(len(intervals)),
		GeneratedAt: a.now(),
	}

	if len(intervals) > 0 {
		avg := mean(intervals)
		out.AverageIntervalMin = &avg
		out.TotalDrinksWeek = len(intervals) + 1
	}
	if len(intervals) > 1 {
		if m := mean(intervals); m > 0 {
			c := clamp(1-stddev(intervals, m)/m, 0, 1)
			out.Consistency = &c
		}
	}

	if v, status := a.Velocity(ctx); status == hydration.StatusOK {
		out.VelocityMLPerHour = &v
	}

	pred, status := a.Predict(ctx)
	out.PredictionStatus = status
	if status == hydration.StatusOK {
		out.Prediction = &pred
	}

	out.InternalErrors = a.internalErrors.Load()
	return out
}
