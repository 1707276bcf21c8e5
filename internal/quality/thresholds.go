package quality

import (
	"fmt"

	"github.com/HerbHall/qualitywatch/pkg/models"
)

// Threshold alert titles. The alert manager deduplicates on (type, title),
// so these strings are also the fingerprints auto-resolve matches on.
const (
	TitleAccuracy     = "Data Accuracy Degraded"
	TitleLatency      = "High Data Latency"
	TitleCompleteness = "Missing Data Points"
	TitleAnomalies    = "Data Anomalies Detected"
)

// Breach is the outcome of checking one metric against its alert bound.
type Breach struct {
	Metric   string
	Title    string
	Breached bool
	Request  models.AlertRequest
}

// CheckThresholds compares a snapshot with the alert bounds and returns one
// request per breached metric. It has no side effects.
func CheckThresholds(s models.QualitySnapshot, t Tiers) []models.AlertRequest {
	var out []models.AlertRequest
	for _, b := range Breaches(s, t) {
		if b.Breached {
			out = append(out, b.Request)
		}
	}
	return out
}

// Breaches checks the alerting metrics and reports breached and clear ones
// alike, in a fixed order: accuracy, latency, completeness. Consistency is
// graded but never alerted on.
func Breaches(s models.QualitySnapshot, t Tiers) []Breach {
	return []Breach{
		{
			Metric:   "accuracy",
			Title:    TitleAccuracy,
			Breached: s.Accuracy < t.Accuracy.Alert,
			Request: models.AlertRequest{
				Type:     models.AlertTypeDataQuality,
				Severity: models.SeverityHigh,
				Title:    TitleAccuracy,
				Message:  fmt.Sprintf("Data accuracy %.2f%% is below threshold %.2f%%", s.Accuracy*100, t.Accuracy.Alert*100),
				Details:  details("accuracy", s.Accuracy, t.Accuracy.Alert),
			},
		},
		{
			Metric:   "latency",
			Title:    TitleLatency,
			Breached: s.Latency > t.Latency.Alert,
			Request: models.AlertRequest{
				Type:     models.AlertTypeDataQuality,
				Severity: models.SeverityMedium,
				Title:    TitleLatency,
				Message:  fmt.Sprintf("Update latency %.1fs exceeds threshold %.0fs", s.Latency, t.Latency.Alert),
				Details:  details("latency", s.Latency, t.Latency.Alert),
			},
		},
		{
			Metric:   "completeness",
			Title:    TitleCompleteness,
			Breached: s.Completeness < t.Completeness.Alert,
			Request: models.AlertRequest{
				Type:     models.AlertTypeDataQuality,
				Severity: models.SeverityHigh,
				Title:    TitleCompleteness,
				Message:  fmt.Sprintf("Data completeness %.2f%% is below threshold %.2f%%", s.Completeness*100, t.Completeness.Alert*100),
				Details:  details("completeness", s.Completeness, t.Completeness.Alert),
			},
		},
	}
}

func details(metric string, value, threshold float64) map[string]any {
	return map[string]any{
		"metric":    metric,
		"value":     value,
		"threshold": threshold,
	}
}

// Grade names the best tier a ratio metric reaches.
func (t Tier) Grade(v float64) string {
	switch {
	case v >= t.Excellent:
		return "excellent"
	case v >= t.Good:
		return "good"
	case v >= t.Acceptable:
		return "acceptable"
	default:
		return "poor"
	}
}

// GradeLatency names the best tier a latency reaches. Lower is better.
func (t Tier) GradeLatency(seconds float64) string {
	switch {
	case seconds <= t.Excellent:
		return "excellent"
	case seconds <= t.Good:
		return "good"
	case seconds <= t.Acceptable:
		return "acceptable"
	default:
		return "poor"
	}
}

// Grades grades each metric of a snapshot.
func (t Tiers) Grades(s models.QualitySnapshot) map[string]string {
	return map[string]string{
		"accuracy":     t.Accuracy.Grade(s.Accuracy),
		"latency":      t.Latency.GradeLatency(s.Latency),
		"completeness": t.Completeness.Grade(s.Completeness),
		"consistency":  t.Consistency.Grade(s.Consistency),
	}
}
