package perf

import "time"

// Metric names reported by the samplers.
const (
	MetricCPU           = "cpu_usage"
	MetricMemory        = "memory_usage"
	MetricDisk          = "disk_usage"
	MetricNetworkIO     = "network_io"
	MetricDBConnections = "db_connections"
	MetricAPILatency    = "api_latency"
	MetricGoroutines    = "goroutines"
	MetricHeapInUse     = "heap_inuse_mb"
)

// PerfConfig is the performance module configuration (plugins.performance).
type PerfConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	HistoryWindow time.Duration `mapstructure:"history_window"`
	DiskPath      string        `mapstructure:"disk_path"`
	// APIURL is probed with a GET each cycle to measure api_latency.
	// Empty disables the probe.
	APIURL     string             `mapstructure:"api_url"`
	APITimeout time.Duration      `mapstructure:"api_timeout"`
	Thresholds map[string]float64 `mapstructure:"thresholds"`
}

// DefaultConfig returns the default performance configuration.
func DefaultConfig() PerfConfig {
	return PerfConfig{
		Interval:      60 * time.Second,
		HistoryWindow: 24 * time.Hour,
		DiskPath:      "/",
		APITimeout:    5 * time.Second,
		Thresholds: map[string]float64{
			MetricCPU:        80,
			MetricMemory:     85,
			MetricDisk:       90,
			MetricAPILatency: 1000,
		},
	}
}

// historyCapacity is how many samples cover the history window.
func (c PerfConfig) historyCapacity() int {
	if c.Interval <= 0 {
		return 1
	}
	n := int(c.HistoryWindow / c.Interval)
	if n < 1 {
		return 1
	}
	return n
}
