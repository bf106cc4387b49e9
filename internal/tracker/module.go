// Package tracker records drink events and serves the hydration log to
// the rest of the daemon. It fills the intake_source role consumed by
// the analyzer and reminder modules.
package tracker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
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
	_ plugin.Validator     = (*Module)(nil)
	_ roles.IntakeSource   = (*Module)(nil)
)

// Module implements the intake tracker plugin.
type Module struct {
	logger    *zap.Logger
	cfg       TrackerConfig
	store     *TrackerStore
	bus       plugin.EventBus
	plugins   plugin.PluginResolver
	scheduler *gocron.Scheduler

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new tracker plugin instance.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "tracker",
		Version:     "0.1.0",
		Description: "Drink logging and intake history",
		Required:    true,
		Roles:       []string{roles.RoleIntakeSource},
		APIVersion:  plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(_ context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger

	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("unmarshal tracker config: %w", err)
		}
	}

	if deps.Store == nil {
		return fmt.Errorf("tracker requires a store")
	}
	if err := deps.Store.Migrate(context.Background(), "tracker", migrations()); err != nil {
		return fmt.Errorf("tracker migrations: %w", err)
	}
	m.store = NewTrackerStore(deps.Store.DB())

	m.bus = deps.Bus
	m.plugins = deps.Plugins

	m.logger.Info("tracker module initialized",
		zap.Int("retention_days", m.cfg.RetentionDays),
		zap.Duration("rotation_interval", m.cfg.RotationInterval),
	)
	return nil
}

// ValidateConfig implements plugin.Validator.
func (m *Module) ValidateConfig() error {
	if m.cfg.RetentionDays < 1 {
		return fmt.Errorf("retention_days must be at least 1, got %d", m.cfg.RetentionDays)
	}
	if m.cfg.RotationInterval < time.Minute {
		return fmt.Errorf("rotation_interval must be at least 1m, got %s", m.cfg.RotationInterval)
	}
	if m.cfg.MaxAmountML < 1 {
		return fmt.Errorf("max_amount_ml must be positive, got %d", m.cfg.MaxAmountML)
	}
	return nil
}

func (m *Module) Start(_ context.Context) error {
	m.ctx, m.cancel = context.WithCancel(context.Background())

	m.scheduler = gocron.NewScheduler(time.UTC)
	if _, err := m.scheduler.Every(m.cfg.RotationInterval).Do(m.rotate); err != nil {
		return fmt.Errorf("schedule log rotation: %w", err)
	}
	m.scheduler.StartAsync()

	m.logger.Info("tracker module started")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	if m.scheduler != nil {
		m.scheduler.Stop()
	}
	if m.cancel != nil {
		m.cancel()
	}
	m.logger.Info("tracker module stopped")
	return nil
}

// Health implements plugin.HealthChecker.
func (m *Module) Health(ctx context.Context) plugin.HealthStatus {
	total, err := m.store.TodayTotal(ctx)
	if err != nil {
		return plugin.HealthStatus{
			Status:  "unhealthy",
			Message: "hydration log unreachable",
		}
	}
	return plugin.HealthStatus{
		Status: "healthy",
		Details: map[string]string{
			"today_total_ml": strconv.Itoa(total),
		},
	}
}

// -- roles.IntakeSource --

// RecentIntake implements roles.IntakeSource.
func (m *Module) RecentIntake(ctx context.Context, days int) ([]hydration.IntakeEvent, error) {
	return m.store.RecentIntake(ctx, days)
}

// IntakeToday implements roles.IntakeSource.
func (m *Module) IntakeToday(ctx context.Context) ([]hydration.IntakeEvent, error) {
	return m.store.IntakeToday(ctx)
}

// logIntake records a drink and publishes the intake event. The amount
// must already be validated by the caller.
func (m *Module) logIntake(ctx context.Context, amountML int, at time.Time) (*hydration.IntakeEvent, error) {
	ev := &hydration.IntakeEvent{
		ID:        uuid.NewString(),
		AmountML:  amountML,
		Timestamp: at,
	}
	if err := m.store.InsertIntake(ctx, ev); err != nil {
		return nil, err
	}

	intakesLogged.Inc()
	intakeVolume.Add(float64(ev.AmountML))
	m.logger.Info("intake logged",
		zap.String("id", ev.ID),
		zap.Int("amount_ml", ev.AmountML),
	)

	if m.bus != nil {
		m.bus.PublishAsync(m.ctx, plugin.Event{
			Topic:   TopicIntakeLogged,
			Source:  "tracker",
			Payload: ev,
		})
	}
	return ev, nil
}

// defaultSip returns the configured default sip size, falling back to
// the out-of-box value when no settings module is registered.
func (m *Module) defaultSip(ctx context.Context) int {
	if m.plugins != nil {
		for _, p := range m.plugins.ResolveByRole(roles.RoleSettingsSource) {
			if src, ok := p.(roles.SettingsSource); ok {
				if s, err := src.Settings(ctx); err == nil {
					return s.DefaultSipML
				}
			}
		}
	}
	return hydration.DefaultSettings().DefaultSipML
}

// rotate drops events past the retention window.
func (m *Module) rotate() {
	ctx, cancel := context.WithTimeout(m.ctx, 30*time.Second)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, -m.cfg.RetentionDays)
	removed, err := m.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		m.logger.Warn("log rotation failed", zap.Error(err))
		return
	}
	if removed == 0 {
		return
	}

	m.logger.Info("rotated hydration log",
		zap.Int64("removed", removed),
		zap.Time("cutoff", cutoff),
	)
	if m.bus != nil {
		m.bus.PublishAsync(m.ctx, plugin.Event{
			Topic:   TopicLogsRotated,
			Source:  "tracker",
			Payload: removed,
		})
	}
}
