package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the server configuration.
type Config struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	DataDir string `mapstructure:"data_dir"`
	DevMode bool   `mapstructure:"dev_mode"`
	// RateLimit is requests per second per client; 0 disables limiting.
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

// Addr returns the listen address as host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("qualitywatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/qualitywatch")
	}

	// Environment variable support: QW_SERVER_PORT=9090
	v.SetEnvPrefix("QW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.dev_mode", false)
	v.SetDefault("server.rate_limit", 100)
	v.SetDefault("server.rate_burst", 200)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputs", []string{"stderr"})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/qualitywatch.db")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "24h")

	v.SetDefault("plugins.alerts.enabled", true)
	v.SetDefault("plugins.alerts.dedup_window", "300s")
	v.SetDefault("plugins.alerts.retention_period", "720h")
	v.SetDefault("plugins.feed.enabled", true)
	v.SetDefault("plugins.quality.enabled", true)
	v.SetDefault("plugins.quality.interval", "60s")
	v.SetDefault("plugins.quality.probe_timeout", "120s")
	v.SetDefault("plugins.performance.enabled", true)
	v.SetDefault("plugins.performance.interval", "60s")
	v.SetDefault("plugins.performance.history_window", "24h")
	v.SetDefault("plugins.health.enabled", true)
	v.SetDefault("plugins.health.interval", "300s")
	v.SetDefault("plugins.statsink.enabled", false)
	v.SetDefault("plugins.statsink.addr", "localhost:6379")
}
