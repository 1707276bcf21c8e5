package quality

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/HerbHall/qualitywatch/pkg/models"
	"github.com/HerbHall/qualitywatch/pkg/roles"
)

// AccuracyReport is the result of cross-checking sources.
type AccuracyReport struct {
	Overall     float64
	BySource    map[string]float64
	Comparisons int
}

// Accuracy cross-checks sources key by key. For every key reported by all
// sources the median is taken as truth and each source value counts as
// accurate when its relative deviation from the median is below tolerance.
// Keys missing from any source are skipped. No comparisons means zero.
func Accuracy(bySource map[string]map[models.SeriesKey]models.Observation, tolerance float64) AccuracyReport {
	report := AccuracyReport{BySource: make(map[string]float64, len(bySource))}
	if len(bySource) == 0 {
		return report
	}

	names := make([]string, 0, len(bySource))
	for name := range bySource {
		names = append(names, name)
	}
	sort.Strings(names)

	accurate := 0
	perTotal := make(map[string]int, len(names))
	perOK := make(map[string]int, len(names))
	values := make([]float64, len(names))

	for key := range bySource[names[0]] {
		complete := true
		for i, name := range names {
			obs, ok := bySource[name][key]
			if !ok {
				complete = false
				break
			}
			values[i] = obs.APY
		}
		if !complete {
			continue
		}
		m := median(values)
		for i, name := range names {
			report.Comparisons++
			perTotal[name]++
			if withinTolerance(values[i], m, tolerance) {
				accurate++
				perOK[name]++
			}
		}
	}

	if report.Comparisons == 0 {
		return report
	}
	report.Overall = float64(accurate) / float64(report.Comparisons)
	for _, name := range names {
		if perTotal[name] > 0 {
			report.BySource[name] = float64(perOK[name]) / float64(perTotal[name])
		}
	}
	return report
}

func withinTolerance(v, truth, tolerance float64) bool {
	if truth == 0 {
		return v == 0
	}
	return math.Abs(v-truth)/math.Abs(truth) < tolerance
}

func median(vals []float64) float64 {
	s := make([]float64, len(vals))
	copy(s, vals)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// Completeness returns the fraction of expected keys present among points,
// and the keys that are missing. An empty manifest is fully complete.
func Completeness(expected []models.SeriesKey, points []models.DataPoint) (float64, []models.SeriesKey) {
	if len(expected) == 0 {
		return 1, nil
	}
	present := make(map[models.SeriesKey]struct{}, len(points))
	for i := range points {
		present[points[i].Key()] = struct{}{}
	}
	var missing []models.SeriesKey
	for _, k := range expected {
		if _, ok := present[k]; !ok {
			missing = append(missing, k)
		}
	}
	return 1 - float64(len(missing))/float64(len(expected)), missing
}

// ConsistencyReport is the result of checking successive samples.
type ConsistencyReport struct {
	Ratio           float64
	Checks          int
	Inconsistencies int
}

// Consistency walks each series (per source) in timestamp order. Every
// successive pair is two checks: an APY jump above apyJump and a TVL jump
// above tvlJump each count as one inconsistency. No pairs means one.
func Consistency(history []models.DataPoint, apyJump, tvlJump float64) ConsistencyReport {
	type series struct {
		key    models.SeriesKey
		source string
	}
	grouped := make(map[series][]models.DataPoint)
	for i := range history {
		p := history[i]
		s := series{key: p.Key(), source: p.Source}
		grouped[s] = append(grouped[s], p)
	}

	report := ConsistencyReport{Ratio: 1}
	for _, pts := range grouped {
		if len(pts) < 2 {
			continue
		}
		sort.SliceStable(pts, func(i, j int) bool { return pts[i].Timestamp.Before(pts[j].Timestamp) })
		for i := 1; i < len(pts); i++ {
			prev, curr := pts[i-1], pts[i]
			report.Checks += 2
			if relativeChange(prev.APY, curr.APY) > apyJump {
				report.Inconsistencies++
			}
			if relativeChange(prev.TVL, curr.TVL) > tvlJump {
				report.Inconsistencies++
			}
		}
	}
	if report.Checks > 0 {
		report.Ratio = clamp01(1 - float64(report.Inconsistencies)/float64(report.Checks))
	}
	return report
}

func relativeChange(prev, curr float64) float64 {
	if prev == 0 {
		if curr == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return math.Abs(curr-prev) / math.Abs(prev)
}

// Anomaly kinds.
const (
	AnomalyAPYOutOfRange = "apy_out_of_range"
	AnomalyTVLTooLow     = "tvl_too_low"
	AnomalyStaleData     = "stale_data"
)

// Anomaly is one data point failing one validation rule.
type Anomaly struct {
	Kind    string           `json:"kind"`
	Key     models.SeriesKey `json:"key"`
	Source  string           `json:"source,omitempty"`
	Message string           `json:"message"`
}

// Anomalies validates current points against the rules. A point can fail
// more than one rule.
func Anomalies(points []models.DataPoint, rules ValidationConfig, now time.Time) []Anomaly {
	var out []Anomaly
	for i := range points {
		p := points[i]
		if p.APY < rules.APYMin || p.APY > rules.APYMax {
			out = append(out, Anomaly{
				Kind:    AnomalyAPYOutOfRange,
				Key:     p.Key(),
				Source:  p.Source,
				Message: fmt.Sprintf("APY %.2f%% outside valid range [%g, %g]", p.APY, rules.APYMin, rules.APYMax),
			})
		}
		if p.TVL < rules.MinTVL {
			out = append(out, Anomaly{
				Kind:    AnomalyTVLTooLow,
				Key:     p.Key(),
				Source:  p.Source,
				Message: fmt.Sprintf("TVL $%.0f below minimum $%.0f", p.TVL, rules.MinTVL),
			})
		}
		if rules.MaxAge > 0 {
			if age := now.Sub(p.Timestamp); age > rules.MaxAge {
				out = append(out, Anomaly{
					Kind:    AnomalyStaleData,
					Key:     p.Key(),
					Source:  p.Source,
					Message: fmt.Sprintf("Data %.0fs old (max %.0fs)", age.Seconds(), rules.MaxAge.Seconds()),
				})
			}
		}
	}
	return out
}

// LatencyResult is one probe measurement.
type LatencyResult struct {
	Seconds  float64
	TimedOut bool
}

// MeasureLatency injects a probe and polls until it is observed or timeout
// elapses. A timeout reports the timeout itself as the latency.
func MeasureLatency(ctx context.Context, prober roles.LatencyProber, poll, timeout time.Duration) (LatencyResult, error) {
	id, err := prober.InjectProbe(ctx)
	if err != nil {
		return LatencyResult{}, fmt.Errorf("inject probe: %w", err)
	}
	start := time.Now()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		observed, err := prober.ProbeObserved(ctx, id)
		if err != nil {
			return LatencyResult{}, fmt.Errorf("poll probe %s: %w", id, err)
		}
		if observed {
			return LatencyResult{Seconds: time.Since(start).Seconds()}, nil
		}
		select {
		case <-ctx.Done():
			return LatencyResult{}, fmt.Errorf("probe %s: %w", id, ctx.Err())
		case <-deadline.C:
			return LatencyResult{Seconds: timeout.Seconds(), TimedOut: true}, nil
		case <-ticker.C:
		}
	}
}
