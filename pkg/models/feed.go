package models

import (
	"fmt"
	"time"
)

// SeriesKey identifies one logical data series: a protocol on a chain.
type SeriesKey struct {
	Protocol string `json:"protocol" example:"aave"`
	Chain    string `json:"chain" example:"ethereum"`
}

func (k SeriesKey) String() string {
	return fmt.Sprintf("%s/%s", k.Protocol, k.Chain)
}

// Observation is one source's reading for a series.
type Observation struct {
	APY       float64   `json:"apy"`
	TVL       float64   `json:"tvl"`
	Timestamp time.Time `json:"timestamp"`
}

// DataPoint is an observation tagged with its series and source.
type DataPoint struct {
	Source    string    `json:"source,omitempty" example:"chainlink"`
	Protocol  string    `json:"protocol" example:"aave"`
	Chain     string    `json:"chain" example:"ethereum"`
	APY       float64   `json:"apy" example:"4.2"`
	TVL       float64   `json:"tvl" example:"125000000"`
	Timestamp time.Time `json:"timestamp"`
	ProbeID   string    `json:"probe_id,omitempty"`
}

// Key returns the series the point belongs to.
func (p DataPoint) Key() SeriesKey {
	return SeriesKey{Protocol: p.Protocol, Chain: p.Chain}
}
