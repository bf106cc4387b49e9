// Package roles defines typed contracts for module roles.
// Modules that fill a role (declared via PluginInfo.Roles) should implement
// the corresponding interface so callers can use type-safe access via
// PluginResolver.ResolveByRole followed by a type assertion.
package roles

import (
	"context"

	"github.com/hydraping/hydraping/pkg/hydration"
)

// Role name constants match the strings used in PluginInfo.Roles.
const (
	RoleIntakeSource   = "intake_source"
	RoleSettingsSource = "settings_source"
	RoleAnalytics      = "analytics"
	RoleReminder       = "reminder"
)

// IntakeSource is implemented by modules that serve the hydration log.
// Both methods return events in ascending timestamp order (oldest first);
// consumers rely on that ordering for interval computation.
type IntakeSource interface {
	// RecentIntake returns events from the last N days, oldest first.
	RecentIntake(ctx context.Context, days int) ([]hydration.IntakeEvent, error)

	// IntakeToday returns events since local midnight, oldest first.
	IntakeToday(ctx context.Context) ([]hydration.IntakeEvent, error)
}

// SettingsSource is implemented by modules that serve the user settings
// snapshot. The snapshot is read-only for consumers.
type SettingsSource interface {
	Settings(ctx context.Context) (hydration.Settings, error)
}

// AnalyticsProvider is implemented by modules that analyze hydration
// patterns and advise the reminder scheduler.
type AnalyticsProvider interface {
	// Predict returns the next-drink-time forecast.
	Predict(ctx context.Context) (hydration.Prediction, hydration.Status)

	// SmartDelay returns the adjusted reminder interval in minutes,
	// always within [5, 240].
	SmartDelay(ctx context.Context, baseMinutes int) int

	// Insights returns the full analytics snapshot.
	Insights(ctx context.Context) hydration.Insights

	// InvalidatePrediction discards the cached prediction so the next
	// Predict call recomputes from fresh data.
	InvalidatePrediction()
}
