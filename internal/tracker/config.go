package tracker

import "time"

// TrackerConfig holds configuration for the intake tracker module.
type TrackerConfig struct {
	RetentionDays    int           `mapstructure:"retention_days"`
	RotationInterval time.Duration `mapstructure:"rotation_interval"`
	MaxAmountML      int           `mapstructure:"max_amount_ml"`
}

// DefaultConfig returns sensible defaults for the tracker module.
func DefaultConfig() TrackerConfig {
	return TrackerConfig{
		RetentionDays:    90,
		RotationInterval: 24 * time.Hour,
		MaxAmountML:      5000,
	}
}
