package reminder

import "time"

// ReminderConfig holds configuration for the reminder module.
type ReminderConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	FallbackInterval  time.Duration `mapstructure:"fallback_interval"`
	SuppressedRecheck time.Duration `mapstructure:"suppressed_recheck"`
}

// DefaultConfig returns sensible defaults for the reminder module.
func DefaultConfig() ReminderConfig {
	return ReminderConfig{
		Enabled:           true,
		FallbackInterval:  45 * time.Minute,
		SuppressedRecheck: 30 * time.Minute,
	}
}
