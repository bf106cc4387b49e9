package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/hydraping/hydraping/internal/settings"
	"github.com/hydraping/hydraping/internal/tracker"
	"github.com/hydraping/hydraping/pkg/plugin"
	"github.com/hydraping/hydraping/pkg/roles"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin          = (*Module)(nil)
	_ plugin.HTTPProvider    = (*Module)(nil)
	_ plugin.HealthChecker   = (*Module)(nil)
	_ plugin.EventSubscriber = (*Module)(nil)
)

// Module runs the reminder scheduler. It pulls the cadence from the
// settings module and, when the analyzer is present, lets it shorten
// the wait. Logging a drink resets the countdown.
type Module struct {
	logger    *zap.Logger
	cfg       ReminderConfig
	scheduler *Scheduler
	settings  SettingsSource
}

// New creates a new reminder plugin instance.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:         "reminder",
		Version:      "0.1.0",
		Description:  "Adaptive hydration reminder scheduling",
		Dependencies: []string{"settings"},
		Required:     false,
		Roles:        []string{roles.RoleReminder},
		APIVersion:   plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(_ context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger

	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("unmarshal reminder config: %w", err)
		}
	}

	src, err := resolveAs[SettingsSource](deps.Plugins, roles.RoleSettingsSource)
	if err != nil {
		return err
	}
	m.settings = src

	// The analyzer is optional; without it reminders follow the raw
	// settings interval.
	advisor, err := resolveAs[DelayAdvisor](deps.Plugins, roles.RoleAnalytics)
	if err != nil {
		advisor = nil
		m.logger.Info("no analytics module available, using fixed intervals")
	}

	m.scheduler = NewScheduler(src, advisor, deps.Bus, m.cfg, m.logger)

	m.logger.Info("reminder module initialized",
		zap.Bool("enabled", m.cfg.Enabled),
		zap.Bool("smart_delay", advisor != nil),
	)
	return nil
}

func (m *Module) Start(_ context.Context) error {
	if !m.cfg.Enabled {
		m.logger.Info("reminders disabled by configuration")
		return nil
	}
	m.scheduler.Start()
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	if m.cfg.Enabled {
		m.scheduler.Stop()
	}
	return nil
}

// resolveAs finds the first module filling the role that satisfies the
// wanted interface.
func resolveAs[T any](resolver plugin.PluginResolver, role string) (T, error) {
	var zero T
	if resolver == nil {
		return zero, fmt.Errorf("reminder requires a plugin resolver")
	}
	for _, p := range resolver.ResolveByRole(role) {
		if t, ok := p.(T); ok {
			return t, nil
		}
	}
	return zero, fmt.Errorf("no module fills role %q", role)
}

// Health implements plugin.HealthChecker.
func (m *Module) Health(_ context.Context) plugin.HealthStatus {
	if !m.cfg.Enabled {
		return plugin.HealthStatus{Status: "healthy", Message: "reminders disabled"}
	}
	return plugin.HealthStatus{
		Status: "healthy",
		Details: map[string]string{
			"next_reminder": m.scheduler.Next().Format(time.RFC3339),
		},
	}
}

// Subscriptions implements plugin.EventSubscriber. A logged drink or a
// settings change makes the pending countdown stale, so both restart it.
func (m *Module) Subscriptions() []plugin.Subscription {
	return []plugin.Subscription{
		{Topic: tracker.TopicIntakeLogged, Handler: m.handleReschedule},
		{Topic: settings.TopicSettingsUpdated, Handler: m.handleReschedule},
		{Topic: settings.TopicSettingsReset, Handler: m.handleReschedule},
	}
}

func (m *Module) handleReschedule(_ context.Context, event plugin.Event) {
	if !m.cfg.Enabled {
		return
	}
	m.scheduler.Reschedule()
	m.logger.Debug("reminder rescheduled", zap.String("topic", event.Topic))
}

// snoozeMinutes resolves the snooze duration, preferring an explicit
// request value over the configured default.
func (m *Module) snoozeMinutes(ctx context.Context, requested int) int {
	if requested > 0 {
		return requested
	}
	cfg, err := m.settings.Settings(ctx)
	if err != nil {
		m.logger.Warn("failed to load snooze duration", zap.Error(err))
		return 5
	}
	return cfg.SnoozeMinutes
}
