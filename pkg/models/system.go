package models

import "time"

// PerformanceSample is one reading of process and host resource metrics.
// Metrics a sampler cannot measure are absent from the map.
type PerformanceSample struct {
	Timestamp time.Time          `json:"timestamp"`
	Metrics   map[string]float64 `json:"metrics"`
}

// ComponentHealth is the outcome of one health check against one component.
type ComponentHealth struct {
	Name      string        `json:"name" example:"database"`
	Type      string        `json:"type" example:"sql"`
	Target    string        `json:"target,omitempty"`
	Healthy   bool          `json:"healthy"`
	Latency   time.Duration `json:"latency_ns"`
	Error     string        `json:"error,omitempty"`
	CheckedAt time.Time     `json:"checked_at"`
}
