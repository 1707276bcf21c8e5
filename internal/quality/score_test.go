package quality

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/HerbHall/qualitywatch/pkg/models"
)

func TestScore_HealthyScenarioIsExcellent(t *testing.T) {
	score := Score(0.999, 5, 0.99, 0.99)
	want := 0.35*0.999 + 0.25*(1-5.0/60) + 0.20*0.99 + 0.20*0.99
	if math.Abs(score-want) > 1e-9 {
		t.Errorf("Score = %v, want %v", score, want)
	}
	if got := Classify(score); got != models.QualityExcellent {
		t.Errorf("Classify(%v) = %s, want EXCELLENT", score, got)
	}
}

func TestScore_BoundsAndMonotonicity(t *testing.T) {
	ratios := []float64{0, 0.25, 0.5, 0.8, 0.95, 1}
	latencies := []float64{0, 1, 10, 30, 59, 60, 120, 999}

	for _, a := range ratios {
		for _, c := range ratios {
			for _, k := range ratios {
				prevLat := math.Inf(1)
				for _, l := range latencies {
					s := Score(a, l, c, k)
					if s < 0 || s > 1 {
						t.Fatalf("Score(%v,%v,%v,%v) = %v, out of [0,1]", a, l, c, k, s)
					}
					if s > prevLat {
						t.Fatalf("score rose with latency at %v: %v > %v", l, s, prevLat)
					}
					prevLat = s
				}
			}
		}
	}

	for i := 1; i < len(ratios); i++ {
		lo, hi := ratios[i-1], ratios[i]
		if Score(hi, 5, 0.9, 0.9) < Score(lo, 5, 0.9, 0.9) {
			t.Errorf("score fell as accuracy rose %v -> %v", lo, hi)
		}
		if Score(0.9, 5, hi, 0.9) < Score(0.9, 5, lo, 0.9) {
			t.Errorf("score fell as completeness rose %v -> %v", lo, hi)
		}
		if Score(0.9, 5, 0.9, hi) < Score(0.9, 5, 0.9, lo) {
			t.Errorf("score fell as consistency rose %v -> %v", lo, hi)
		}
	}
}

func TestNormalizedLatency(t *testing.T) {
	tests := []struct {
		latency float64
		want    float64
	}{
		{0, 1},
		{30, 0.5},
		{60, 0},
		{999, 0},
		{-5, 1},
	}
	for _, tc := range tests {
		if got := NormalizedLatency(tc.latency); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("NormalizedLatency(%v) = %v, want %v", tc.latency, got, tc.want)
		}
	}
}

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  models.QualityStatus
	}{
		{1, models.QualityExcellent},
		{0.95, models.QualityExcellent},
		{0.9499, models.QualityGood},
		{0.90, models.QualityGood},
		{0.8999, models.QualityAcceptable},
		{0.80, models.QualityAcceptable},
		{0.7999, models.QualityPoor},
		{0, models.QualityPoor},
	}
	for _, tc := range tests {
		if got := Classify(tc.score); got != tc.want {
			t.Errorf("Classify(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func healthySnapshot() models.QualitySnapshot {
	return models.QualitySnapshot{Accuracy: 0.999, Latency: 5, Completeness: 0.99, Consistency: 0.99}
}

func TestCheckThresholds(t *testing.T) {
	tiers := DefaultTiers()

	tests := []struct {
		name   string
		mutate func(*models.QualitySnapshot)
		titles []string
		sev    []models.Severity
	}{
		{"healthy", func(*models.QualitySnapshot) {}, nil, nil},
		{"accuracy below", func(s *models.QualitySnapshot) { s.Accuracy = 0.80 },
			[]string{TitleAccuracy}, []models.Severity{models.SeverityHigh}},
		{"accuracy at bound", func(s *models.QualitySnapshot) { s.Accuracy = 0.95 }, nil, nil},
		{"latency above", func(s *models.QualitySnapshot) { s.Latency = 31 },
			[]string{TitleLatency}, []models.Severity{models.SeverityMedium}},
		{"latency at bound", func(s *models.QualitySnapshot) { s.Latency = 30 }, nil, nil},
		{"completeness below", func(s *models.QualitySnapshot) { s.Completeness = 0.89 },
			[]string{TitleCompleteness}, []models.Severity{models.SeverityHigh}},
		{"consistency below", func(s *models.QualitySnapshot) { s.Consistency = 0.5 }, nil, nil},
		{"everything failed", func(s *models.QualitySnapshot) {
			s.Accuracy, s.Latency, s.Completeness, s.Consistency = 0, 999, 0, 0
		},
			[]string{TitleAccuracy, TitleLatency, TitleCompleteness},
			[]models.Severity{models.SeverityHigh, models.SeverityMedium, models.SeverityHigh}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			snap := healthySnapshot()
			tc.mutate(&snap)
			reqs := CheckThresholds(snap, tiers)
			if len(reqs) != len(tc.titles) {
				t.Fatalf("got %d requests, want %d: %+v", len(reqs), len(tc.titles), reqs)
			}
			for i, r := range reqs {
				if r.Type != models.AlertTypeDataQuality {
					t.Errorf("req[%d].Type = %q", i, r.Type)
				}
				if r.Title != tc.titles[i] {
					t.Errorf("req[%d].Title = %q, want %q", i, r.Title, tc.titles[i])
				}
				if r.Severity != tc.sev[i] {
					t.Errorf("req[%d].Severity = %s, want %s", i, r.Severity, tc.sev[i])
				}
				if r.Details["metric"] == nil || r.Details["threshold"] == nil {
					t.Errorf("req[%d] details missing metric/threshold: %v", i, r.Details)
				}
			}
		})
	}
}

func TestCheckThresholds_ConsistencyOnly_NoAlert(t *testing.T) {
	snap := models.QualitySnapshot{Accuracy: 0.999, Latency: 5, Completeness: 0.99, Consistency: 0.5}
	if reqs := CheckThresholds(snap, DefaultTiers()); len(reqs) != 0 {
		t.Fatalf("got %d requests for degraded consistency, want 0: %+v", len(reqs), reqs)
	}
	for _, b := range Breaches(snap, DefaultTiers()) {
		if b.Metric == "consistency" {
			t.Errorf("Breaches reported a consistency entry: %+v", b)
		}
	}
	if g := DefaultTiers().Grades(snap)["consistency"]; g != "poor" {
		t.Errorf("consistency grade = %q, want poor", g)
	}
}

func TestCheckThresholds_AccuracyScenarioMessage(t *testing.T) {
	snap := healthySnapshot()
	snap.Accuracy = 0.80
	reqs := CheckThresholds(snap, DefaultTiers())
	if len(reqs) != 1 {
		t.Fatalf("got %d requests, want 1", len(reqs))
	}
	if want := "Data accuracy 80.00% is below threshold 95.00%"; reqs[0].Message != want {
		t.Errorf("Message = %q, want %q", reqs[0].Message, want)
	}
	if reqs[0].Details["value"] != 0.80 {
		t.Errorf("details value = %v", reqs[0].Details["value"])
	}
}

func TestCheckThresholds_IsDeterministic(t *testing.T) {
	snap := models.QualitySnapshot{Accuracy: 0.5, Latency: 45, Completeness: 0.5, Consistency: 0.99}
	a := CheckThresholds(snap, DefaultTiers())
	b := CheckThresholds(snap, DefaultTiers())
	if !reflect.DeepEqual(a, b) {
		t.Errorf("two calls differ:\n%+v\n%+v", a, b)
	}
}

func TestTiers_Grades(t *testing.T) {
	got := DefaultTiers().Grades(models.QualitySnapshot{Accuracy: 0.99, Latency: 25, Completeness: 1, Consistency: 0.9})
	want := map[string]string{
		"accuracy":     "good",
		"latency":      "acceptable",
		"completeness": "excellent",
		"consistency":  "poor",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Grades = %v, want %v", got, want)
	}
}

var (
	keyAave  = models.SeriesKey{Protocol: "aave", Chain: "ethereum"}
	keyCurve = models.SeriesKey{Protocol: "curve", Chain: "ethereum"}
	keyComp  = models.SeriesKey{Protocol: "compound", Chain: "arbitrum"}
)

func obs(apy float64) models.Observation {
	return models.Observation{APY: apy, TVL: 1e6}
}

func TestAccuracy_MedianCrossCheck(t *testing.T) {
	bySource := map[string]map[models.SeriesKey]models.Observation{
		"chainlink": {keyAave: obs(5.0), keyCurve: obs(3.0)},
		"onchain":   {keyAave: obs(5.01), keyCurve: obs(3.0)},
		"api":       {keyAave: obs(5.2)},
	}
	r := Accuracy(bySource, 0.01)
	if r.Comparisons != 3 {
		t.Fatalf("Comparisons = %d, want 3 (curve is skipped, api lacks it)", r.Comparisons)
	}
	if math.Abs(r.Overall-2.0/3) > 1e-9 {
		t.Errorf("Overall = %v, want 2/3", r.Overall)
	}
	if r.BySource["api"] != 0 || r.BySource["chainlink"] != 1 {
		t.Errorf("BySource = %v", r.BySource)
	}
}

func TestAccuracy_NoComparisonsIsZero(t *testing.T) {
	r := Accuracy(map[string]map[models.SeriesKey]models.Observation{
		"a": {keyAave: obs(5)},
		"b": {keyCurve: obs(5)},
	}, 0.01)
	if r.Overall != 0 || r.Comparisons != 0 {
		t.Errorf("got %+v, want zero report", r)
	}
	if Accuracy(nil, 0.01).Overall != 0 {
		t.Error("no sources should score zero")
	}
}

func TestAccuracy_ZeroMedian(t *testing.T) {
	r := Accuracy(map[string]map[models.SeriesKey]models.Observation{
		"a": {keyAave: obs(0)},
		"b": {keyAave: obs(0)},
		"c": {keyAave: obs(0.5)},
	}, 0.01)
	if math.Abs(r.Overall-2.0/3) > 1e-9 {
		t.Errorf("Overall = %v, want 2/3", r.Overall)
	}
}

func TestCompleteness(t *testing.T) {
	expected := []models.SeriesKey{keyAave, keyCurve, keyComp, {Protocol: "uniswap", Chain: "polygon"}}
	points := []models.DataPoint{
		{Protocol: "aave", Chain: "ethereum"},
		{Protocol: "aave", Chain: "ethereum", Source: "api"},
		{Protocol: "curve", Chain: "ethereum"},
		{Protocol: "compound", Chain: "arbitrum"},
		{Protocol: "extra", Chain: "base"},
	}
	ratio, missing := Completeness(expected, points)
	if ratio != 0.75 {
		t.Errorf("ratio = %v, want 0.75", ratio)
	}
	if len(missing) != 1 || missing[0].Protocol != "uniswap" {
		t.Errorf("missing = %v", missing)
	}

	if ratio, _ := Completeness(nil, points); ratio != 1 {
		t.Errorf("empty manifest ratio = %v, want 1", ratio)
	}
}

func TestConsistency(t *testing.T) {
	at := func(sec int) time.Time { return time.Unix(1_700_000_000+int64(sec), 0) }
	history := []models.DataPoint{
		// Out of order on purpose; the series is sorted before comparing.
		{Source: "api", Protocol: "aave", Chain: "ethereum", APY: 6.0, TVL: 1.3e6, Timestamp: at(120)},
		{Source: "api", Protocol: "aave", Chain: "ethereum", APY: 5.0, TVL: 1e6, Timestamp: at(0)},
		{Source: "api", Protocol: "aave", Chain: "ethereum", APY: 5.2, TVL: 1e6, Timestamp: at(60)},
		// Another source with very different values is its own series.
		{Source: "onchain", Protocol: "aave", Chain: "ethereum", APY: 9.0, TVL: 5e6, Timestamp: at(30)},
	}
	r := Consistency(history, 0.10, 0.20)
	if r.Checks != 4 {
		t.Errorf("Checks = %d, want 4", r.Checks)
	}
	if r.Inconsistencies != 2 {
		t.Errorf("Inconsistencies = %d, want 2", r.Inconsistencies)
	}
	if r.Ratio != 0.5 {
		t.Errorf("Ratio = %v, want 0.5", r.Ratio)
	}
}

func TestConsistency_WithoutPairsIsOne(t *testing.T) {
	if r := Consistency(nil, 0.1, 0.2); r.Ratio != 1 {
		t.Errorf("empty history ratio = %v, want 1", r.Ratio)
	}
	single := []models.DataPoint{{Source: "api", Protocol: "aave", Chain: "ethereum", APY: 5, TVL: 1e6}}
	if r := Consistency(single, 0.1, 0.2); r.Ratio != 1 || r.Checks != 0 {
		t.Errorf("single point = %+v, want ratio 1 and no checks", r)
	}
}

func TestAnomalies(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rules := DefaultConfig().Validation
	points := []models.DataPoint{
		{Protocol: "aave", Chain: "ethereum", APY: 5, TVL: 1e6, Timestamp: now},
		{Protocol: "bad", Chain: "ethereum", APY: 60, TVL: 5e4, Timestamp: now.Add(-10 * time.Minute)},
		{Protocol: "neg", Chain: "ethereum", APY: -1, TVL: 1e6, Timestamp: now.Add(-time.Minute)},
	}
	got := Anomalies(points, rules, now)
	kinds := map[string]int{}
	for _, a := range got {
		kinds[a.Kind]++
	}
	want := map[string]int{AnomalyAPYOutOfRange: 2, AnomalyTVLTooLow: 1, AnomalyStaleData: 1}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("anomaly kinds = %v, want %v", kinds, want)
	}
}

// stubProber is observed after a fixed number of polls, or never when
// after is negative.
type stubProber struct {
	after     int32
	injectErr error
	pollErr   error
	polls     atomic.Int32
}

func (p *stubProber) InjectProbe(context.Context) (string, error) {
	if p.injectErr != nil {
		return "", p.injectErr
	}
	return "probe-1", nil
}

func (p *stubProber) ProbeObserved(context.Context, string) (bool, error) {
	if p.pollErr != nil {
		return false, p.pollErr
	}
	n := p.polls.Add(1)
	return p.after >= 0 && n > p.after, nil
}

func TestMeasureLatency(t *testing.T) {
	ctx := context.Background()

	t.Run("observed", func(t *testing.T) {
		p := &stubProber{after: 2}
		r, err := MeasureLatency(ctx, p, time.Millisecond, time.Second)
		if err != nil {
			t.Fatalf("MeasureLatency: %v", err)
		}
		if r.TimedOut {
			t.Error("should not time out")
		}
		if r.Seconds <= 0 || r.Seconds >= 1 {
			t.Errorf("Seconds = %v", r.Seconds)
		}
		if p.polls.Load() != 3 {
			t.Errorf("polls = %d, want 3", p.polls.Load())
		}
	})

	t.Run("timeout reports the timeout", func(t *testing.T) {
		r, err := MeasureLatency(ctx, &stubProber{after: -1}, time.Millisecond, 30*time.Millisecond)
		if err != nil {
			t.Fatalf("MeasureLatency: %v", err)
		}
		if !r.TimedOut || r.Seconds != 0.03 {
			t.Errorf("got %+v, want timed out at 0.03s", r)
		}
	})

	t.Run("inject failure", func(t *testing.T) {
		boom := errors.New("kafka down")
		if _, err := MeasureLatency(ctx, &stubProber{injectErr: boom}, time.Millisecond, time.Second); !errors.Is(err, boom) {
			t.Errorf("err = %v, want %v", err, boom)
		}
	})

	t.Run("poll failure", func(t *testing.T) {
		boom := errors.New("db gone")
		if _, err := MeasureLatency(ctx, &stubProber{pollErr: boom}, time.Millisecond, time.Second); !errors.Is(err, boom) {
			t.Errorf("err = %v, want %v", err, boom)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := MeasureLatency(cctx, &stubProber{after: -1}, 10*time.Millisecond, time.Second); !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})
}

func TestSLA(t *testing.T) {
	targets := DefaultConfig().SLA
	r := SLA(0.9995, 0.996, 30, targets)
	if !r.OverallCompliant || !r.UptimeMet || !r.AccuracyMet || !r.LatencyMet {
		t.Errorf("expected full compliance: %+v", r)
	}
	r = SLA(0.9995, 0.996, 31, targets)
	if r.OverallCompliant || r.LatencyMet {
		t.Errorf("latency 31s should breach: %+v", r)
	}
	r = SLA(0.99, 0.996, 5, targets)
	if r.OverallCompliant || r.UptimeMet {
		t.Errorf("uptime 0.99 should breach: %+v", r)
	}
}
