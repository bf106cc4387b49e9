package analyzer

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hydraping/hydraping/internal/tracker"
	"github.com/hydraping/hydraping/pkg/hydration"
	"github.com/hydraping/hydraping/pkg/plugin"
	"github.com/hydraping/hydraping/pkg/roles"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin           = (*Module)(nil)
	_ plugin.HTTPProvider     = (*Module)(nil)
	_ plugin.HealthChecker    = (*Module)(nil)
	_ plugin.EventSubscriber  = (*Module)(nil)
	_ roles.AnalyticsProvider = (*Module)(nil)
)

// Module wraps the Analyzer as a HydraPing plugin, wiring it to the
// intake and settings modules through their roles.
type Module struct {
	logger   *zap.Logger
	cfg      AnalyzerConfig
	analyzer *Analyzer
}

// New creates a new analyzer plugin instance.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:         "analyzer",
		Version:      "0.1.0",
		Description:  "Hydration pattern analysis and next-drink prediction",
		Dependencies: []string{"tracker", "settings"},
		Required:     false,
		Roles:        []string{roles.RoleAnalytics},
		APIVersion:   plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(_ context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger

	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("unmarshal analyzer config: %w", err)
		}
	}

	data, err := resolveAs[DataSource](deps.Plugins, roles.RoleIntakeSource)
	if err != nil {
		return err
	}
	settings, err := resolveAs[SettingsSource](deps.Plugins, roles.RoleSettingsSource)
	if err != nil {
		return err
	}
	m.analyzer = NewAnalyzer(data, settings, m.cfg, m.logger)

	m.logger.Info("analyzer module initialized",
		zap.Int("interval_lookback_days", m.cfg.IntervalLookbackDays),
		zap.Int("pattern_lookback_days", m.cfg.PatternLookbackDays),
		zap.Duration("prediction_cache_ttl", m.cfg.PredictionCacheTTL),
	)
	return nil
}

func (m *Module) Start(_ context.Context) error { return nil }
func (m *Module) Stop(_ context.Context) error  { return nil }

// resolveAs finds the first module filling the role that satisfies the
// wanted interface.
func resolveAs[T any](resolver plugin.PluginResolver, role string) (T, error) {
	var zero T
	if resolver == nil {
		return zero, fmt.Errorf("analyzer requires a plugin resolver")
	}
	for _, p := range resolver.ResolveByRole(role) {
		if t, ok := p.(T); ok {
			return t, nil
		}
	}
	return zero, fmt.Errorf("no module fills role %q", role)
}

// Health implements plugin.HealthChecker.
func (m *Module) Health(ctx context.Context) plugin.HealthStatus {
	status := "healthy"
	if m.analyzer.InternalErrors() > 0 {
		status = "degraded"
	}
	return plugin.HealthStatus{
		Status: status,
		Details: map[string]string{
			"internal_errors": strconv.FormatUint(m.analyzer.InternalErrors(), 10),
			"skipped_records": strconv.FormatUint(m.analyzer.SkippedRecords(), 10),
			"data_quality":    string(m.analyzer.DataQuality(ctx)),
		},
	}
}

// Subscriptions implements plugin.EventSubscriber. The prediction cache
// is time-based, so a fresh drink would otherwise serve a stale
// forecast for up to the TTL; these hooks discard it immediately.
func (m *Module) Subscriptions() []plugin.Subscription {
	return []plugin.Subscription{
		{Topic: tracker.TopicIntakeLogged, Handler: m.handleLogChanged},
		{Topic: tracker.TopicIntakeDeleted, Handler: m.handleLogChanged},
		{Topic: tracker.TopicDayReset, Handler: m.handleLogChanged},
	}
}

func (m *Module) handleLogChanged(_ context.Context, event plugin.Event) {
	m.analyzer.InvalidatePrediction()
	m.logger.Debug("prediction cache invalidated", zap.String("topic", event.Topic))
}

// -- roles.AnalyticsProvider --

// Predict implements roles.AnalyticsProvider.
func (m *Module) Predict(ctx context.Context) (hydration.Prediction, hydration.Status) {
	return m.analyzer.Predict(ctx)
}

// SmartDelay implements roles.AnalyticsProvider.
func (m *Module) SmartDelay(ctx context.Context, baseMinutes int) int {
	return m.analyzer.SmartDelay(ctx, baseMinutes)
}

// Insights implements roles.AnalyticsProvider.
func (m *Module) Insights(ctx context.Context) hydration.Insights {
	return m.analyzer.Insights(ctx)
}

// InvalidatePrediction implements roles.AnalyticsProvider.
func (m *Module) InvalidatePrediction() {
	m.analyzer.InvalidatePrediction()
}
