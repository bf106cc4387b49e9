// Package settings owns the user configuration record: daily goal,
// reminder cadence, sip size, chime, sleep window, and snooze duration.
// It fills the settings_source role consumed by the other modules.
package settings

import (
	"context"
	"fmt"
	"sync"

	"github.com/hydraping/hydraping/pkg/hydration"
	"github.com/hydraping/hydraping/pkg/plugin"
	"github.com/hydraping/hydraping/pkg/roles"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin        = (*Module)(nil)
	_ plugin.HTTPProvider  = (*Module)(nil)
	_ plugin.HealthChecker = (*Module)(nil)
	_ roles.SettingsSource = (*Module)(nil)
)

// Module implements the settings plugin.
type Module struct {
	logger *zap.Logger
	store  *SettingsStore
	bus    plugin.EventBus

	mu     sync.RWMutex
	cached *hydration.Settings
}

// New creates a new settings plugin instance.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "settings",
		Version:     "0.1.0",
		Description: "User configuration storage and validation",
		Required:    true,
		Roles:       []string{roles.RoleSettingsSource},
		APIVersion:  plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(_ context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger

	if deps.Store == nil {
		return fmt.Errorf("settings requires a store")
	}
	if err := deps.Store.Migrate(context.Background(), "settings", migrations()); err != nil {
		return fmt.Errorf("settings migrations: %w", err)
	}
	m.store = NewSettingsStore(deps.Store.DB())
	m.bus = deps.Bus

	m.logger.Info("settings module initialized")
	return nil
}

func (m *Module) Start(_ context.Context) error { return nil }
func (m *Module) Stop(_ context.Context) error  { return nil }

// Health implements plugin.HealthChecker.
func (m *Module) Health(ctx context.Context) plugin.HealthStatus {
	if _, err := m.store.Get(ctx); err != nil {
		return plugin.HealthStatus{Status: "unhealthy", Message: "settings table unreachable"}
	}
	return plugin.HealthStatus{Status: "healthy"}
}

// Settings implements roles.SettingsSource. Reads hit an in-memory
// snapshot after the first call; updates go through save which refreshes it.
func (m *Module) Settings(ctx context.Context) (hydration.Settings, error) {
	m.mu.RLock()
	if m.cached != nil {
		s := *m.cached
		m.mu.RUnlock()
		return s, nil
	}
	m.mu.RUnlock()

	s, err := m.store.Get(ctx)
	if err != nil {
		return hydration.Settings{}, err
	}

	m.mu.Lock()
	m.cached = &s
	m.mu.Unlock()
	return s, nil
}

// save validates, persists, and caches the new settings, then publishes
// the update event.
func (m *Module) save(ctx context.Context, s hydration.Settings) error {
	if err := Validate(s); err != nil {
		return err
	}
	if err := m.store.Save(ctx, s); err != nil {
		return err
	}

	m.mu.Lock()
	m.cached = &s
	m.mu.Unlock()

	m.logger.Info("settings updated",
		zap.Int("daily_goal_ml", s.DailyGoalML),
		zap.Int("reminder_interval_minutes", s.ReminderIntervalMin),
	)
	if m.bus != nil {
		m.bus.PublishAsync(ctx, plugin.Event{
			Topic:   TopicSettingsUpdated,
			Source:  "settings",
			Payload: s,
		})
	}
	return nil
}

// reset reverts to the defaults.
func (m *Module) reset(ctx context.Context) (hydration.Settings, error) {
	if err := m.store.Reset(ctx); err != nil {
		return hydration.Settings{}, err
	}

	defaults := hydration.DefaultSettings()
	m.mu.Lock()
	m.cached = &defaults
	m.mu.Unlock()

	m.logger.Info("settings reset to defaults")
	if m.bus != nil {
		m.bus.PublishAsync(ctx, plugin.Event{
			Topic:   TopicSettingsReset,
			Source:  "settings",
			Payload: defaults,
		})
	}
	return defaults, nil
}

// ValidationError reports the first field that failed validation.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Detail)
}

// Validate checks every settings field against its allowed range.
func Validate(s hydration.Settings) error {
	switch {
	case s.DailyGoalML < 250 || s.DailyGoalML > 10000:
		return &ValidationError{"daily_goal_ml", "must be between 250 and 10000"}
	case s.ReminderIntervalMin < 5 || s.ReminderIntervalMin > 240:
		return &ValidationError{"reminder_interval_minutes", "must be between 5 and 240"}
	case s.DefaultSipML < 10 || s.DefaultSipML > 2000:
		return &ValidationError{"default_sip_ml", "must be between 10 and 2000"}
	case s.SleepStartHour < 0 || s.SleepStartHour > 23:
		return &ValidationError{"sleep_start_hour", "must be between 0 and 23"}
	case s.SleepEndHour < 0 || s.SleepEndHour > 23:
		return &ValidationError{"sleep_end_hour", "must be between 0 and 23"}
	case s.SnoozeMinutes < 1 || s.SnoozeMinutes > 60:
		return &ValidationError{"snooze_duration_minutes", "must be between 1 and 60"}
	}
	return nil
}
