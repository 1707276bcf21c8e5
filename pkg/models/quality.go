package models

import "time"

// QualityStatus classifies a quality score.
type QualityStatus string

const (
	QualityExcellent  QualityStatus = "EXCELLENT"
	QualityGood       QualityStatus = "GOOD"
	QualityAcceptable QualityStatus = "ACCEPTABLE"
	QualityPoor       QualityStatus = "POOR"
)

// QualitySnapshot is one evaluation cycle's result. It is never mutated
// after the engine builds it.
type QualitySnapshot struct {
	Timestamp       time.Time     `json:"timestamp"`
	Accuracy        float64       `json:"accuracy" example:"0.999"`
	Latency         float64       `json:"latency_seconds" example:"5"`
	LatencyTimedOut bool          `json:"latency_timed_out,omitempty"`
	Completeness    float64       `json:"completeness" example:"0.99"`
	Consistency     float64       `json:"consistency" example:"0.99"`
	AnomalyCount    int           `json:"anomaly_count"`
	QualityScore    float64       `json:"quality_score" example:"0.968"`
	Status          QualityStatus `json:"status" example:"EXCELLENT"`
	// Failed lists sub-measurements that fell back to their default value.
	Failed []string `json:"failed,omitempty"`
}

// SLAReport compares the latest measurements with service-level targets.
type SLAReport struct {
	Uptime           float64 `json:"uptime"`
	UptimeTarget     float64 `json:"uptime_target"`
	UptimeMet        bool    `json:"uptime_met"`
	Accuracy         float64 `json:"accuracy"`
	AccuracyTarget   float64 `json:"accuracy_target"`
	AccuracyMet      bool    `json:"accuracy_met"`
	Latency          float64 `json:"latency_seconds"`
	LatencyTarget    float64 `json:"latency_target_seconds"`
	LatencyMet       bool    `json:"latency_met"`
	OverallCompliant bool    `json:"overall_compliant"`
}
