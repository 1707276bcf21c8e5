package perf

import (
	"fmt"
	"sort"
	"strings"

	"github.com/HerbHall/qualitywatch/pkg/models"
)

var displayNames = map[string]string{
	MetricCPU:           "CPU Usage",
	MetricMemory:        "Memory Usage",
	MetricDisk:          "Disk Usage",
	MetricAPILatency:    "API Latency",
	MetricDBConnections: "DB Connections",
	MetricNetworkIO:     "Network IO",
	MetricGoroutines:    "Goroutines",
	MetricHeapInUse:     "Heap In Use",
}

// DisplayName turns a metric name into title case, "disk_usage" becoming
// "Disk Usage".
func DisplayName(metric string) string {
	if n, ok := displayNames[metric]; ok {
		return n
	}
	words := strings.Split(metric, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Title is the alert title raised when metric breaches its threshold.
func Title(metric string) string {
	return "High " + DisplayName(metric)
}

// severityFor ranks a breach: disk is HIGH, everything else MEDIUM.
func severityFor(metric string) models.Severity {
	if metric == MetricDisk {
		return models.SeverityHigh
	}
	return models.SeverityMedium
}

// Check compares a sample with the thresholds. It returns one request per
// metric strictly above its threshold, sorted by metric name, and the names
// of thresholded metrics that were measured and are within bounds.
// Unmeasured metrics are neither.
func Check(metrics map[string]float64, thresholds map[string]float64) (breached []models.AlertRequest, clear []string) {
	names := make([]string, 0, len(thresholds))
	for name := range thresholds {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v, ok := metrics[name]
		if !ok {
			continue
		}
		limit := thresholds[name]
		if v <= limit {
			clear = append(clear, name)
			continue
		}
		breached = append(breached, models.AlertRequest{
			Type:     models.AlertTypePerformance,
			Severity: severityFor(name),
			Title:    Title(name),
			Message:  fmt.Sprintf("%s is %.1f, exceeding threshold of %g", name, v, limit),
			Details: map[string]any{
				"metric":    name,
				"value":     v,
				"threshold": limit,
			},
		})
	}
	return breached, clear
}
