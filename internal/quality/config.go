package quality

import "time"

// QualityConfig is the quality module configuration (plugins.quality).
type QualityConfig struct {
	Interval          time.Duration `mapstructure:"interval"`
	ProbePoll         time.Duration `mapstructure:"probe_poll"`
	ProbeTimeout      time.Duration `mapstructure:"probe_timeout"`
	LatencyFailure    float64       `mapstructure:"latency_failure"`
	ConsistencyWindow time.Duration `mapstructure:"consistency_window"`
	AccuracyTolerance float64       `mapstructure:"accuracy_tolerance"`
	APYJump           float64       `mapstructure:"apy_jump"`
	TVLJump           float64       `mapstructure:"tvl_jump"`
	HistorySize       int           `mapstructure:"history_size"`
	// AnomalyAlert raises a yield_anomaly alert once a cycle finds at least
	// this many anomalies. Zero disables the alert.
	AnomalyAlert int              `mapstructure:"anomaly_alert"`
	Validation   ValidationConfig `mapstructure:"validation"`
	Tiers        Tiers            `mapstructure:"tiers"`
	SLA          SLAConfig        `mapstructure:"sla"`
}

// ValidationConfig bounds what a sane data point looks like.
type ValidationConfig struct {
	APYMin float64       `mapstructure:"apy_min"`
	APYMax float64       `mapstructure:"apy_max"`
	MinTVL float64       `mapstructure:"min_tvl"`
	MaxAge time.Duration `mapstructure:"max_age"`
}

// Tier grades one metric. For latency lower is better and every bound is
// an upper limit in seconds; for the ratios every bound is a lower limit.
type Tier struct {
	Excellent  float64 `mapstructure:"excellent" json:"excellent"`
	Good       float64 `mapstructure:"good" json:"good"`
	Acceptable float64 `mapstructure:"acceptable" json:"acceptable"`
	Alert      float64 `mapstructure:"alert" json:"alert"`
}

// Tiers is the per-metric grading and alerting table.
type Tiers struct {
	Accuracy     Tier `mapstructure:"accuracy" json:"accuracy"`
	Latency      Tier `mapstructure:"latency" json:"latency"`
	Completeness Tier `mapstructure:"completeness" json:"completeness"`
	Consistency  Tier `mapstructure:"consistency" json:"consistency"`
}

// SLAConfig holds the service-level targets.
type SLAConfig struct {
	Uptime   float64 `mapstructure:"uptime"`
	Accuracy float64 `mapstructure:"accuracy"`
	Latency  float64 `mapstructure:"latency"`
}

// DefaultConfig returns the default quality configuration.
func DefaultConfig() QualityConfig {
	return QualityConfig{
		Interval:          60 * time.Second,
		ProbePoll:         time.Second,
		ProbeTimeout:      120 * time.Second,
		LatencyFailure:    999,
		ConsistencyWindow: time.Hour,
		AccuracyTolerance: 0.01,
		APYJump:           0.10,
		TVLJump:           0.20,
		HistorySize:       10080,
		Validation: ValidationConfig{
			APYMin: 0,
			APYMax: 50,
			MinTVL: 100000,
			MaxAge: 300 * time.Second,
		},
		Tiers: DefaultTiers(),
		SLA: SLAConfig{
			Uptime:   0.999,
			Accuracy: 0.995,
			Latency:  30,
		},
	}
}

// DefaultTiers returns the stock grading table.
func DefaultTiers() Tiers {
	return Tiers{
		Accuracy:     Tier{Excellent: 0.995, Good: 0.98, Acceptable: 0.95, Alert: 0.95},
		Latency:      Tier{Excellent: 10, Good: 20, Acceptable: 30, Alert: 30},
		Completeness: Tier{Excellent: 0.99, Good: 0.95, Acceptable: 0.90, Alert: 0.90},
		Consistency:  Tier{Excellent: 0.99, Good: 0.97, Acceptable: 0.95, Alert: 0.95},
	}
}
