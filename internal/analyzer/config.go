package analyzer

import "time"

// AnalyzerConfig holds configuration for the pattern analyzer module.
type AnalyzerConfig struct {
	IntervalLookbackDays int           `mapstructure:"interval_lookback_days"`
	PatternLookbackDays  int           `mapstructure:"pattern_lookback_days"`
	PredictionCacheTTL   time.Duration `mapstructure:"prediction_cache_ttl"`
}

// DefaultConfig returns sensible defaults for the analyzer module.
func DefaultConfig() AnalyzerConfig {
	return AnalyzerConfig{
		IntervalLookbackDays: 7,
		PatternLookbackDays:  14,
		PredictionCacheTTL:   5 * time.Minute,
	}
}
