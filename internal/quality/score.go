package quality

import (
	"math"

	"github.com/HerbHall/qualitywatch/pkg/models"
)

// Score weights. They sum to one so the score stays in [0,1].
const (
	weightAccuracy     = 0.35
	weightLatency      = 0.25
	weightCompleteness = 0.20
	weightConsistency  = 0.20

	// latencyHorizon is the latency in seconds at which the latency term
	// reaches zero.
	latencyHorizon = 60.0
)

// Status thresholds, checked in descending order.
const (
	statusExcellent  = 0.95
	statusGood       = 0.90
	statusAcceptable = 0.80
)

// Score combines the four signals into one weighted ratio. Ratios outside
// [0,1] and negative latencies are clamped first.
func Score(accuracy, latency, completeness, consistency float64) float64 {
	s := weightAccuracy*clamp01(accuracy) +
		weightLatency*NormalizedLatency(latency) +
		weightCompleteness*clamp01(completeness) +
		weightConsistency*clamp01(consistency)
	return clamp01(s)
}

// NormalizedLatency maps seconds onto [0,1], one meaning instant.
func NormalizedLatency(latency float64) float64 {
	if math.IsNaN(latency) || latency < 0 {
		latency = 0
	}
	return math.Max(0, 1-latency/latencyHorizon)
}

// Classify maps a score to a status. Each boundary belongs to the higher
// status.
func Classify(score float64) models.QualityStatus {
	switch {
	case score >= statusExcellent:
		return models.QualityExcellent
	case score >= statusGood:
		return models.QualityGood
	case score >= statusAcceptable:
		return models.QualityAcceptable
	default:
		return models.QualityPoor
	}
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
