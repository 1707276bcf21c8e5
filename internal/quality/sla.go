package quality

import "github.com/HerbHall/qualitywatch/pkg/models"

// SLA compares measurements with the targets. Uptime and accuracy are met
// at or above target, latency at or below.
func SLA(uptime, accuracy, latency float64, targets SLAConfig) models.SLAReport {
	r := models.SLAReport{
		Uptime:         uptime,
		UptimeTarget:   targets.Uptime,
		UptimeMet:      uptime >= targets.Uptime,
		Accuracy:       accuracy,
		AccuracyTarget: targets.Accuracy,
		AccuracyMet:    accuracy >= targets.Accuracy,
		Latency:        latency,
		LatencyTarget:  targets.Latency,
		LatencyMet:     latency <= targets.Latency,
	}
	r.OverallCompliant = r.UptimeMet && r.AccuracyMet && r.LatencyMet
	return r
}
