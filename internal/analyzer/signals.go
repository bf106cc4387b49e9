package analyzer

import (
	"context"
	"time"

	"github.com/hydraping/hydraping/pkg/hydration"
	"go.uber.org/zap"
)

// Velocity bounds. Events must span at least 30 minutes for the rate
// to mean anything, and a rate above 5 liters/hour is logging noise.
const (
	minVelocitySpanHours = 0.5
	maxVelocitySpanHours = 24
	maxSaneVelocity      = 5000
)

// Smart delay bounds and fallbacks.
const (
	minDelayMinutes     = 5
	maxDelayMinutes     = 240
	defaultDelayMinutes = 30 // Returned when the computation itself faults

	highConfidence  = 0.6
	alignFraction   = 0.8 // Remind slightly before the predicted need
	behindReduction = 0.8
)

// Active-day window for schedule adherence: intake is expected to ramp
// linearly from 08:00 to midnight.
const (
	activeDayStartHour = 8
	activeDayEndHour   = 24
	paceTolerance      = 0.9 // Within 10% of expectation still counts as ahead
)

// Velocity returns the intake rate in ml/hour over the last day.
// StatusInsufficient covers every "unknown" case: fewer than two valid
// events, a span outside [30 minutes, 24 hours], or an insane rate.
func (a *Analyzer) Velocity(ctx context.Context) (rate float64, status hydration.Status) {
	defer func() {
		if v := recover(); v != nil {
			a.recordFault("velocity", v)
			rate, status = 0, hydration.StatusError
		}
	}()

	events, err := a.data.RecentIntake(ctx, 1)
	if err != nil {
		a.countError()
		a.logger.Warn("failed to fetch intake for velocity", zap.Error(err))
		return 0, hydration.StatusError
	}

	now := a.now()
	var valid []hydration.IntakeEvent
	for i := range events {
		if validEvent(events[i], now) {
			valid = append(valid, events[i])
		}
	}
	if len(valid) < 2 {
		return 0, hydration.StatusInsufficient
	}

	total := 0
	for _, ev := range valid {
		total += ev.AmountML
	}
	spanHours := valid[len(valid)-1].Timestamp.Sub(valid[0].Timestamp).Hours()
	if spanHours < minVelocitySpanHours || spanHours > maxVelocitySpanHours {
		return 0, hydration.StatusInsufficient
	}

	rate = float64(total) / spanHours
	if rate < 0 || rate > maxSaneVelocity {
		return 0, hydration.StatusInsufficient
	}
	return rate, hydration.StatusOK
}

// Pace reports schedule adherence against the daily goal. Expected
// intake is zero before 08:00, the full goal at midnight, and a linear
// ramp in between. Before the window any nonzero intake counts as
// ahead. A non-positive goal or any failure yields PaceUnknown.
func (a *Analyzer) Pace(ctx context.Context) (pace hydration.Pace) {
	defer func() {
		if v := recover(); v != nil {
			a.recordFault("pace", v)
			pace = hydration.PaceUnknown
		}
	}()

	settings, err := a.settings.Settings(ctx)
	if err != nil {
		a.countError()
		a.logger.Warn("failed to fetch settings for pace", zap.Error(err))
		return hydration.PaceUnknown
	}
	goal := settings.DailyGoalML
	if goal <= 0 {
		return hydration.PaceUnknown
	}

	events, err := a.data.IntakeToday(ctx)
	if err != nil {
		a.countError()
		a.logger.Warn("failed to fetch today's intake for pace", zap.Error(err))
		return hydration.PaceUnknown
	}

	now := a.now()
	actual := 0
	for i := range events {
		if validEvent(events[i], now) {
			actual += events[i].AmountML
		}
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	elapsed := now.Sub(midnight).Seconds()
	activeStart := float64(activeDayStartHour * 3600)
	activeEnd := float64(activeDayEndHour * 3600)

	if elapsed < activeStart {
		if actual > 0 {
			return hydration.PaceAhead
		}
		return hydration.PaceUnknown
	}

	progress := (elapsed - activeStart) / (activeEnd - activeStart)
	expected := float64(goal) * clamp(progress, 0, 1)
	if float64(actual) >= expected*paceTolerance {
		return hydration.PaceAhead
	}
	return hydration.PaceBehind
}

// SmartDelay adjusts the base reminder interval. First applicable rule
// wins: a high-confidence prediction landing before the base interval
// pulls the reminder to just before the predicted need; otherwise a
// behind-pace signal shortens the base by 20%; otherwise the base is
// returned unchanged. The result never lengthens the base and always
// lies within [5, 240] minutes. Any internal fault degrades to 30.
func (a *Analyzer) SmartDelay(ctx context.Context, baseMinutes int) (delay int) {
	defer func() {
		if v := recover(); v != nil {
			a.recordFault("smart_delay", v)
			delay = defaultDelayMinutes
		}
	}()

	base := baseMinutes
	if base < minDelayMinutes {
		base = minDelayMinutes
	}
	if base > maxDelayMinutes {
		base = maxDelayMinutes
	}

	if pred, status := a.Predict(ctx); status == hydration.StatusOK && pred.Confidence > highConfidence {
		minutesUntil := pred.PredictedAt.Sub(a.now()).Minutes()
		if minutesUntil > 0 && minutesUntil < float64(base) {
			aligned := int(minutesUntil * alignFraction)
			if aligned < minDelayMinutes {
				aligned = minDelayMinutes
			}
			if aligned < base {
				return aligned
			}
		}
	}

	if a.Pace(ctx) == hydration.PaceBehind {
		reduced := int(float64(base) * behindReduction)
		if reduced < minDelayMinutes {
			reduced = minDelayMinutes
		}
		return reduced
	}

	return base
}
