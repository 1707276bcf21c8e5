package statsink

import "time"

type SinkConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	Interval  time.Duration `mapstructure:"interval"`
	TTL       time.Duration `mapstructure:"ttl"`
}

func DefaultConfig() SinkConfig {
	return SinkConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "qualitywatch:",
		Interval:  60 * time.Second,
		TTL:       5 * time.Minute,
	}
}
