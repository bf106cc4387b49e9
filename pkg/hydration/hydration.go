// Package hydration defines the shared domain types exchanged between
// HydraPing modules: intake events, predictions, insights, and settings.
package hydration

import "time"

// IntakeEvent is a single logged drink. Immutable once recorded.
type IntakeEvent struct {
	ID        string    `json:"id"`
	AmountML  int       `json:"amount_ml"`
	Timestamp time.Time `json:"timestamp"`
}

// Status classifies the outcome of an analyzer operation so callers can
// tell "not enough data yet" apart from "something went wrong".
type Status string

const (
	StatusOK           Status = "ok"
	StatusInsufficient Status = "insufficient_data"
	StatusError        Status = "error"
)

// Estimator names which central-tendency estimate produced a prediction.
const (
	EstimatorMedian     = "median"
	EstimatorMean       = "mean"
	EstimatorRecentMean = "recent_mean"
)

// Prediction is a next-drink-time forecast.
type Prediction struct {
	PredictedAt time.Time `json:"predicted_time"`
	Confidence  float64   `json:"confidence"` // [0.3, 0.95] for non-trivial results
	Reason      string    `json:"reason"`
	Estimator   string    `json:"estimator"`
	Samples     int       `json:"samples"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Pace reports schedule adherence against the daily goal.
type Pace string

const (
	PaceAhead   Pace = "ahead"
	PaceBehind  Pace = "behind"
	PaceUnknown Pace = "unknown"
)

// DataQuality grades how much interval history the analyzer has to work with.
type DataQuality string

const (
	QualityInsufficient DataQuality = "insufficient"
	QualityPoor         DataQuality = "poor"
	QualityFair         DataQuality = "fair"
	QualityGood         DataQuality = "good"
	QualityExcellent    DataQuality = "excellent"
)

// Insights is the complete analyzer snapshot. Fields that could not be
// computed are nil or their "unknown" variant, never omitted.
type Insights struct {
	AverageIntervalMin *float64    `json:"average_interval_minutes"`
	Consistency        *float64    `json:"consistency"`
	VelocityMLPerHour  *float64    `json:"velocity_ml_per_hour"`
	Pace               Pace        `json:"pace"`
	Prediction         *Prediction `json:"prediction"`
	PredictionStatus   Status      `json:"prediction_status"`
	DataQuality        DataQuality `json:"data_quality"`
	TotalDrinksWeek    int         `json:"total_drinks_week"`
	InternalErrors     uint64      `json:"internal_errors"`
	GeneratedAt        time.Time   `json:"generated_at"`
}

// Settings is the typed, validated user configuration. One row per
// installation; the settings module owns mutation.
type Settings struct {
	DailyGoalML         int  `json:"daily_goal_ml"`
	ReminderIntervalMin int  `json:"reminder_interval_minutes"`
	DefaultSipML        int  `json:"default_sip_ml"`
	ChimeEnabled        bool `json:"chime_enabled"`
	SleepStartHour      int  `json:"sleep_start_hour"`
	SleepEndHour        int  `json:"sleep_end_hour"`
	SnoozeMinutes       int  `json:"snooze_duration_minutes"`
}

// DefaultSettings mirrors the out-of-box HydraPing configuration.
func DefaultSettings() Settings {
	return Settings{
		DailyGoalML:         2000,
		ReminderIntervalMin: 45,
		DefaultSipML:        250,
		ChimeEnabled:        true,
		SleepStartHour:      22,
		SleepEndHour:        7,
		SnoozeMinutes:       5,
	}
}

// DailyTotal is one day's aggregated intake.
type DailyTotal struct {
	Date    string `json:"date"` // YYYY-MM-DD
	TotalML int    `json:"total_ml"`
}

// HourlyTotal is aggregated intake for one hour-of-day bucket.
type HourlyTotal struct {
	Hour    int `json:"hour"` // 0-23
	TotalML int `json:"total_ml"`
	Drinks  int `json:"drinks"`
}
