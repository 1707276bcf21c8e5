package testutil

import (
	"time"

	"github.com/HerbHall/qualitywatch/pkg/models"
)

// NewAlertRequest returns an AlertRequest with sensible defaults, suitable
// for test fixtures. Override individual fields with the With* options.
func NewAlertRequest(opts ...func(*models.AlertRequest)) models.AlertRequest {
	req := models.AlertRequest{
		Type:     models.AlertTypeDataQuality,
		Severity: models.SeverityHigh,
		Title:    "Data Accuracy Degraded",
		Message:  "Data accuracy 80.00% is below threshold 95.00%",
	}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

// WithType sets the alert type.
func WithType(t string) func(*models.AlertRequest) {
	return func(r *models.AlertRequest) { r.Type = t }
}

// WithSeverity sets the alert severity.
func WithSeverity(s models.Severity) func(*models.AlertRequest) {
	return func(r *models.AlertRequest) { r.Severity = s }
}

// WithTitle sets the alert title.
func WithTitle(title string) func(*models.AlertRequest) {
	return func(r *models.AlertRequest) { r.Title = title }
}

// WithMessage sets the alert message, which also feeds the alert id.
func WithMessage(msg string) func(*models.AlertRequest) {
	return func(r *models.AlertRequest) { r.Message = msg }
}

// WithDetail adds one key to the alert details.
func WithDetail(key string, value any) func(*models.AlertRequest) {
	return func(r *models.AlertRequest) {
		if r.Details == nil {
			r.Details = make(map[string]any)
		}
		r.Details[key] = value
	}
}

// NewSnapshot returns a healthy QualitySnapshot taken at ts.
func NewSnapshot(ts time.Time, opts ...func(*models.QualitySnapshot)) models.QualitySnapshot {
	s := models.QualitySnapshot{
		Timestamp:    ts.UTC(),
		Accuracy:     1,
		Latency:      5,
		Completeness: 1,
		Consistency:  1,
		QualityScore: 0.99,
		Status:       models.QualityExcellent,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithScore sets the composite score and its status.
func WithScore(score float64, status models.QualityStatus) func(*models.QualitySnapshot) {
	return func(s *models.QualitySnapshot) {
		s.QualityScore = score
		s.Status = status
	}
}

// WithAccuracy sets the snapshot accuracy.
func WithAccuracy(v float64) func(*models.QualitySnapshot) {
	return func(s *models.QualitySnapshot) { s.Accuracy = v }
}

// WithLatency sets the snapshot latency in seconds.
func WithLatency(seconds float64) func(*models.QualitySnapshot) {
	return func(s *models.QualitySnapshot) { s.Latency = seconds }
}

// NewDataPoint returns an aave/ethereum reading from source at ts.
func NewDataPoint(source string, ts time.Time, opts ...func(*models.DataPoint)) models.DataPoint {
	p := models.DataPoint{
		Source:    source,
		Protocol:  "aave",
		Chain:     "ethereum",
		APY:       4.2,
		TVL:       125_000_000,
		Timestamp: ts.UTC(),
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// WithSeries sets the protocol and chain of a data point.
func WithSeries(protocol, chain string) func(*models.DataPoint) {
	return func(p *models.DataPoint) {
		p.Protocol = protocol
		p.Chain = chain
	}
}

// WithAPY sets the data point's APY.
func WithAPY(apy float64) func(*models.DataPoint) {
	return func(p *models.DataPoint) { p.APY = apy }
}
