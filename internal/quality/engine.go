package quality

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/HerbHall/qualitywatch/internal/fanout"
	"github.com/HerbHall/qualitywatch/internal/history"
	"github.com/HerbHall/qualitywatch/pkg/models"
	"github.com/HerbHall/qualitywatch/pkg/roles"
	"go.uber.org/zap"
)

var (
	errNoCollector = errors.New("no signal collector available")
	errNoProber    = errors.New("no latency prober available")
)

// Sub-measurement names, used in logs, metrics and QualitySnapshot.Failed.
const (
	signalAccuracy     = "accuracy"
	signalLatency      = "latency"
	signalCompleteness = "completeness"
	signalConsistency  = "consistency"
	signalAnomalies    = "anomalies"
)

// Engine measures the four quality signals and the anomaly count, scores
// them and keeps a bounded snapshot history.
type Engine struct {
	cfg       QualityConfig
	collector roles.SignalCollector
	prober    roles.LatencyProber
	logger    *zap.Logger
	now       func() time.Time
	history   *history.Ring[models.QualitySnapshot]

	mu        sync.Mutex
	last      time.Time
	anomalies []Anomaly
}

// NewEngine creates an engine. A nil collector or prober makes the
// dependent sub-measurements fall back on every cycle.
func NewEngine(cfg QualityConfig, collector roles.SignalCollector, prober roles.LatencyProber, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:       cfg,
		collector: collector,
		prober:    prober,
		logger:    logger,
		now:       time.Now,
		history: history.NewRing(cfg.HistorySize, func(s models.QualitySnapshot) time.Time {
			return s.Timestamp
		}),
	}
}

// Evaluate runs one cycle. The sub-measurements run concurrently and each
// one that fails is replaced by its fallback; Evaluate itself never fails.
// A snapshot taken under a cancelled context is returned but not recorded.
func (e *Engine) Evaluate(ctx context.Context) models.QualitySnapshot {
	var (
		latency   LatencyResult
		accReport AccuracyReport
		anomalies []Anomaly
	)

	results := fanout.Join(ctx,
		func(ctx context.Context) (float64, error) {
			r, err := e.accuracy(ctx)
			accReport = r
			return r.Overall, err
		},
		func(ctx context.Context) (float64, error) {
			r, err := e.latency(ctx)
			latency = r
			return r.Seconds, err
		},
		e.completeness,
		e.consistency,
		func(ctx context.Context) (float64, error) {
			a, err := e.anomalyScan(ctx)
			anomalies = a
			return float64(len(a)), err
		},
	)

	names := []string{signalAccuracy, signalLatency, signalCompleteness, signalConsistency, signalAnomalies}
	fallbacks := []float64{0, e.cfg.LatencyFailure, 0, 0, 0}
	values := make([]float64, len(results))
	var failed []string
	for i, r := range results {
		values[i] = r.ValueOr(fallbacks[i])
		if r.Err != nil {
			failed = append(failed, names[i])
			errorsTotal.WithLabelValues(names[i], "medium").Inc()
			e.logger.Warn("quality measurement failed",
				zap.String("signal", names[i]),
				zap.Float64("fallback", fallbacks[i]),
				zap.Error(r.Err),
			)
		}
	}

	snap := models.QualitySnapshot{
		Accuracy:     clamp01(values[0]),
		Latency:      values[1],
		Completeness: clamp01(values[2]),
		Consistency:  clamp01(values[3]),
		AnomalyCount: int(values[4]),
		Failed:       failed,
	}
	if results[1].Err == nil {
		snap.LatencyTimedOut = latency.TimedOut
		updateLatency.Observe(latency.Seconds)
	}
	snap.QualityScore = Score(snap.Accuracy, snap.Latency, snap.Completeness, snap.Consistency)
	snap.Status = Classify(snap.QualityScore)

	// Fallbacks caused by the caller going away say nothing about the feed.
	if errors.Is(ctx.Err(), context.Canceled) {
		snap.Timestamp = e.now().UTC().Truncate(time.Second)
		return snap
	}

	dataAccuracy.WithLabelValues("overall").Set(snap.Accuracy)
	if results[0].Err == nil {
		for source, v := range accReport.BySource {
			dataAccuracy.WithLabelValues(source).Set(v)
		}
	}
	qualityScore.Set(snap.QualityScore)
	anomalyCount.Set(float64(snap.AnomalyCount))

	e.mu.Lock()
	ts := e.now().UTC().Truncate(time.Second)
	if ts.Before(e.last) {
		ts = e.last
	}
	e.last = ts
	snap.Timestamp = ts
	if results[4].Err == nil {
		e.anomalies = anomalies
	}
	e.history.Push(snap)
	e.mu.Unlock()

	e.logger.Info("quality evaluated",
		zap.String("status", string(snap.Status)),
		zap.Float64("score", snap.QualityScore),
		zap.Float64("accuracy", snap.Accuracy),
		zap.Float64("latency_seconds", snap.Latency),
		zap.Int("anomalies", snap.AnomalyCount),
	)
	return snap
}

func (e *Engine) accuracy(ctx context.Context) (AccuracyReport, error) {
	if e.collector == nil {
		return AccuracyReport{}, errNoCollector
	}
	sources := e.collector.Sources()
	if len(sources) == 0 {
		return AccuracyReport{}, errors.New("no sources configured")
	}

	tasks := make([]fanout.Task[map[models.SeriesKey]models.Observation], len(sources))
	for i, src := range sources {
		tasks[i] = func(ctx context.Context) (map[models.SeriesKey]models.Observation, error) {
			return e.collector.FetchFromSource(ctx, src)
		}
	}
	bySource := make(map[string]map[models.SeriesKey]models.Observation, len(sources))
	for i, r := range fanout.Join(ctx, tasks...) {
		if r.Err != nil {
			return AccuracyReport{}, fmt.Errorf("fetch source %s: %w", sources[i], r.Err)
		}
		if len(r.Value) == 0 {
			return AccuracyReport{}, fmt.Errorf("source %s returned no data", sources[i])
		}
		bySource[sources[i]] = r.Value
	}
	return Accuracy(bySource, e.cfg.AccuracyTolerance), nil
}

func (e *Engine) latency(ctx context.Context) (LatencyResult, error) {
	if e.prober == nil {
		return LatencyResult{}, errNoProber
	}
	return MeasureLatency(ctx, e.prober, e.cfg.ProbePoll, e.cfg.ProbeTimeout)
}

func (e *Engine) completeness(ctx context.Context) (float64, error) {
	if e.collector == nil {
		return 0, errNoCollector
	}
	expected, err := e.collector.ExpectedKeys(ctx)
	if err != nil {
		return 0, fmt.Errorf("expected keys: %w", err)
	}
	current, err := e.collector.CurrentDataPoints(ctx)
	if err != nil {
		return 0, fmt.Errorf("current data points: %w", err)
	}
	ratio, missing := Completeness(expected, current)
	if len(missing) > 0 {
		keys := make([]string, len(missing))
		for i, k := range missing {
			keys[i] = k.String()
		}
		e.logger.Warn("missing data points", zap.Strings("keys", keys))
	}
	return ratio, nil
}

func (e *Engine) consistency(ctx context.Context) (float64, error) {
	if e.collector == nil {
		return 0, errNoCollector
	}
	hist, err := e.collector.RecentHistory(ctx, e.cfg.ConsistencyWindow)
	if err != nil {
		return 0, fmt.Errorf("recent history: %w", err)
	}
	r := Consistency(hist, e.cfg.APYJump, e.cfg.TVLJump)
	if r.Inconsistencies > 0 {
		e.logger.Warn("inconsistent data detected",
			zap.Int("inconsistencies", r.Inconsistencies),
			zap.Int("checks", r.Checks),
		)
	}
	return r.Ratio, nil
}

func (e *Engine) anomalyScan(ctx context.Context) ([]Anomaly, error) {
	if e.collector == nil {
		return nil, errNoCollector
	}
	current, err := e.collector.CurrentDataPoints(ctx)
	if err != nil {
		return nil, fmt.Errorf("current data points: %w", err)
	}
	found := Anomalies(current, e.cfg.Validation, e.now())
	for _, a := range found {
		e.logger.Warn("anomaly detected",
			zap.String("kind", a.Kind),
			zap.String("key", a.Key.String()),
			zap.String("message", a.Message),
		)
	}
	return found, nil
}

// Latest returns the newest snapshot.
func (e *Engine) Latest() (models.QualitySnapshot, bool) {
	return e.history.Latest()
}

// History returns up to n newest snapshots, oldest first. n <= 0 returns all.
func (e *Engine) History(n int) []models.QualitySnapshot {
	return e.history.Last(n)
}

// Since returns snapshots taken at or after t.
func (e *Engine) Since(t time.Time) []models.QualitySnapshot {
	return e.history.Since(t)
}

// LatestAnomalies returns the anomalies found by the last successful scan.
func (e *Engine) LatestAnomalies() []Anomaly {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Anomaly, len(e.anomalies))
	copy(out, e.anomalies)
	return out
}
