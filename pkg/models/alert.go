package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidSeverity is returned when a severity string does not name one
// of the four known levels.
var ErrInvalidSeverity = errors.New("invalid severity")

// Severity ranks alerts. The zero value is not a valid severity.
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// Severities lists every valid severity from lowest to highest.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Valid reports whether s is one of the defined severities.
func (s Severity) Valid() bool {
	return s >= SeverityLow && s <= SeverityCritical
}

// Raise returns the next severity up, capped at CRITICAL.
func (s Severity) Raise() Severity {
	if s >= SeverityCritical {
		return SeverityCritical
	}
	return s + 1
}

// ParseSeverity converts a case-insensitive name into a Severity.
func ParseSeverity(v string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "LOW":
		return SeverityLow, nil
	case "MEDIUM":
		return SeverityMedium, nil
	case "HIGH":
		return SeverityHigh, nil
	case "CRITICAL":
		return SeverityCritical, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidSeverity, v)
}

func (s Severity) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSeverity, int(s))
	}
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	parsed, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Well-known alert types.
const (
	AlertTypeDataQuality  = "data_quality"
	AlertTypeYieldAnomaly = "yield_anomaly"
	AlertTypePerformance  = "performance"
	AlertTypeSystemHealth = "system_health"
	AlertTypeSystemError  = "system_error"
)

// AlertRequest asks the alert manager to raise an alert. It carries no
// identity; the manager assigns one if the request survives deduplication.
type AlertRequest struct {
	Type     string         `json:"type" example:"data_quality"`
	Severity Severity       `json:"severity" swaggertype:"string" example:"HIGH"`
	Title    string         `json:"title" example:"Data Accuracy Degraded"`
	Message  string         `json:"message" example:"Data accuracy 80.00% is below threshold 95.00%"`
	Details  map[string]any `json:"details,omitempty"`
}

// Alert is a single notifiable event and its lifecycle state.
type Alert struct {
	ID             string         `json:"id" example:"6f1c7a52-9d1b-5c8e-a1f4-2b9e0d3c4a11"`
	CreatedAt      time.Time      `json:"created_at"`
	Type           string         `json:"type" example:"data_quality"`
	Severity       Severity       `json:"severity" swaggertype:"string" example:"HIGH"`
	Title          string         `json:"title"`
	Message        string         `json:"message"`
	Details        map[string]any `json:"details,omitempty"`
	Acknowledged   bool           `json:"acknowledged"`
	AcknowledgedAt *time.Time     `json:"acknowledged_at,omitempty"`
	Resolved       bool           `json:"resolved"`
	ResolvedAt     *time.Time     `json:"resolved_at,omitempty"`
	Escalated      bool           `json:"escalated"`
}

// Clone returns a deep copy so callers outside the manager never share
// mutable state with the store.
func (a *Alert) Clone() *Alert {
	c := *a
	if a.Details != nil {
		c.Details = make(map[string]any, len(a.Details))
		for k, v := range a.Details {
			c.Details[k] = v
		}
	}
	if a.AcknowledgedAt != nil {
		t := *a.AcknowledgedAt
		c.AcknowledgedAt = &t
	}
	if a.ResolvedAt != nil {
		t := *a.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}

// AlertStatistics summarizes the alert store.
type AlertStatistics struct {
	Total       int            `json:"total"`
	Active      int            `json:"active"`
	Resolved    int            `json:"resolved"`
	BySeverity  map[string]int `json:"by_severity"`
	ByType      map[string]int `json:"by_type"`
	MTTRSeconds float64        `json:"mttr_seconds"`
}
