package feed

import "time"

// FeedConfig is the feed module configuration (plugins.feed).
type FeedConfig struct {
	// Sources are the independent providers cross-checked for accuracy.
	Sources []string `mapstructure:"sources"`
	// Expected seeds the expected-key manifest ("protocol/chain") when the
	// stored manifest is empty.
	Expected []string `mapstructure:"expected"`
	// Freshness bounds how old a point may be and still count as current.
	Freshness           time.Duration `mapstructure:"freshness"`
	Retention           time.Duration `mapstructure:"retention"`
	MaintenanceInterval time.Duration `mapstructure:"maintenance_interval"`
	MaxBatch            int           `mapstructure:"max_batch"`
	Kafka               KafkaConfig   `mapstructure:"kafka"`
}

// KafkaConfig configures the optional Kafka ingest path.
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

// DefaultConfig returns the feed configuration used when nothing is set.
func DefaultConfig() FeedConfig {
	return FeedConfig{
		Sources:             []string{"chainlink", "onchain", "api"},
		Freshness:           10 * time.Minute,
		Retention:           7 * 24 * time.Hour,
		MaintenanceInterval: time.Hour,
		MaxBatch:            1000,
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "qualitywatch.points",
			GroupID: "qualitywatch",
		},
	}
}
