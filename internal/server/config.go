package server

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the server configuration.
type Config struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the listen address as host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()

	// Defaults. The daemon binds to loopback: it is the local companion
	// of a desktop overlay, not a network service.
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8384)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("database.path", "./data/hydration.db")

	// Module defaults
	v.SetDefault("modules.tracker.retention_days", 90)
	v.SetDefault("modules.tracker.rotation_interval", "24h")
	v.SetDefault("modules.analyzer.interval_lookback_days", 7)
	v.SetDefault("modules.analyzer.pattern_lookback_days", 14)
	v.SetDefault("modules.analyzer.prediction_cache_ttl", "5m")
	v.SetDefault("modules.reminder.enabled", true)
	v.SetDefault("modules.reminder.fallback_interval", "45m")
	v.SetDefault("modules.reminder.suppressed_recheck", "30m")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("hydraping")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.config/hydraping")
	}

	// Environment variable support: HYDRA_SERVER_PORT=9090
	v.SetEnvPrefix("HYDRA")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine -- use defaults
	}

	return v, nil
}
