// Package quality implements the data quality scoring engine and the
// threshold evaluator that turns a degraded snapshot into alert requests.
package quality

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/HerbHall/qualitywatch/internal/scheduler"
	"github.com/HerbHall/qualitywatch/pkg/models"
	"github.com/HerbHall/qualitywatch/pkg/plugin"
	"github.com/HerbHall/qualitywatch/pkg/roles"
	"go.uber.org/zap"
)

// TopicSnapshot is published after every evaluation. Payload is
// models.QualitySnapshot.
const TopicSnapshot = "quality.snapshot"

// Compile-time interface guards.
var (
	_ plugin.Plugin        = (*Module)(nil)
	_ plugin.HTTPProvider  = (*Module)(nil)
	_ plugin.HealthChecker = (*Module)(nil)
	_ roles.QualitySource  = (*Module)(nil)
)

// Module is the quality plugin.
type Module struct {
	logger  *zap.Logger
	cfg     QualityConfig
	bus     plugin.EventBus
	plugins plugin.PluginResolver

	mu     sync.RWMutex
	engine *Engine
	sink   roles.AlertSink
	loop   *scheduler.Loop
}

// New creates a new quality plugin instance.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:         "quality",
		Version:      "0.1.0",
		Description:  "Data quality scoring, threshold alerts and SLA reporting",
		Dependencies: []string{"alerts"},
		Roles:        []string{roles.RoleQualitySource},
		APIVersion:   plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(_ context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("unmarshal quality config: %w", err)
		}
	}
	if m.cfg.Interval <= 0 || m.cfg.ProbePoll <= 0 || m.cfg.ProbeTimeout <= 0 {
		return fmt.Errorf("quality: interval, probe_poll and probe_timeout must be positive")
	}
	if m.cfg.HistorySize < 1 {
		return fmt.Errorf("quality: history_size must be at least 1")
	}
	m.bus = deps.Bus
	m.plugins = deps.Plugins

	m.logger.Info("quality module initialized",
		zap.Duration("interval", m.cfg.Interval),
		zap.Duration("probe_timeout", m.cfg.ProbeTimeout),
		zap.Int("history_size", m.cfg.HistorySize),
	)
	return nil
}

// wire resolves collaborators by role. Every plugin has been initialized
// by the time Start runs, so this happens here rather than in Init.
func (m *Module) wire() {
	var (
		collector roles.SignalCollector
		prober    roles.LatencyProber
		sink      roles.AlertSink
	)
	if m.plugins != nil {
		for _, p := range m.plugins.ResolveByRole(roles.RoleSignalCollector) {
			if c, ok := p.(roles.SignalCollector); ok {
				collector = c
				break
			}
		}
		for _, p := range m.plugins.ResolveByRole(roles.RoleLatencyProber) {
			if lp, ok := p.(roles.LatencyProber); ok {
				prober = lp
				break
			}
		}
		for _, p := range m.plugins.ResolveByRole(roles.RoleAlertSink) {
			if s, ok := p.(roles.AlertSink); ok {
				sink = s
				break
			}
		}
	}
	if collector == nil {
		m.logger.Warn("no signal collector registered; accuracy, completeness and consistency will fall back")
	}
	if prober == nil {
		m.logger.Warn("no latency prober registered; latency will report the failure sentinel")
	}

	m.mu.Lock()
	m.engine = NewEngine(m.cfg, collector, prober, m.logger.Named("engine"))
	m.sink = sink
	m.mu.Unlock()
}

func (m *Module) Start(ctx context.Context) error {
	m.wire()
	m.loop = scheduler.New("quality", m.cfg.Interval, func(ctx context.Context) error {
		_, err := m.Cycle(ctx)
		return err
	}, m.logger)
	m.loop.Timeout = m.cfg.ProbeTimeout + m.cfg.Interval/2
	m.loop.Immediate = true
	if err := m.loop.Start(ctx); err != nil {
		return err
	}
	m.logger.Info("quality module started")
	return nil
}

func (m *Module) Stop(ctx context.Context) error {
	if m.loop != nil {
		_ = m.loop.StopContext(ctx)
	}
	m.logger.Info("quality module stopped")
	return nil
}

func (m *Module) current() (*Engine, roles.AlertSink) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.engine, m.sink
}

// Cycle runs one evaluate-and-alert pass. The snapshot is always produced;
// the error reports alerts that could not be raised. A cycle whose context
// is cancelled mid-evaluation is abandoned: its snapshot is neither
// recorded, published nor checked against thresholds.
func (m *Module) Cycle(ctx context.Context) (models.QualitySnapshot, error) {
	engine, sink := m.current()
	if engine == nil {
		return models.QualitySnapshot{}, errors.New("quality module not started")
	}
	snap := engine.Evaluate(ctx)
	if errors.Is(ctx.Err(), context.Canceled) {
		return snap, fmt.Errorf("quality cycle abandoned: %w", ctx.Err())
	}

	if m.bus != nil {
		m.bus.PublishAsync(ctx, plugin.Event{
			Topic:     TopicSnapshot,
			Source:    "quality",
			Timestamp: snap.Timestamp,
			Payload:   snap,
		})
	}
	if sink == nil {
		return snap, nil
	}

	var errs []error
	for _, b := range Breaches(snap, m.cfg.Tiers) {
		if !b.Breached {
			if n := sink.AutoResolve(ctx, b.Request.Type, b.Title); n > 0 {
				m.logger.Info("quality alert cleared",
					zap.String("metric", b.Metric),
					zap.Int("resolved", n),
				)
			}
			continue
		}
		if err := m.raise(ctx, sink, b.Request); err != nil {
			errs = append(errs, err)
		}
	}
	if req, ok := m.anomalyRequest(snap, engine.LatestAnomalies()); ok {
		if err := m.raise(ctx, sink, req); err != nil {
			errs = append(errs, err)
		}
	}
	return snap, errors.Join(errs...)
}

func (m *Module) raise(ctx context.Context, sink roles.AlertSink, req models.AlertRequest) error {
	res, err := sink.CreateAlert(ctx, req)
	if err != nil {
		errorsTotal.WithLabelValues("alerting", "high").Inc()
		return fmt.Errorf("raise %q: %w", req.Title, err)
	}
	if !res.Deduplicated {
		m.logger.Info("quality alert raised",
			zap.String("title", req.Title),
			zap.String("severity", req.Severity.String()),
			zap.String("alert_id", res.Alert.ID),
		)
	}
	return nil
}

// anomalyRequest builds the yield_anomaly alert when the cycle found at
// least AnomalyAlert anomalies.
func (m *Module) anomalyRequest(snap models.QualitySnapshot, found []Anomaly) (models.AlertRequest, bool) {
	if m.cfg.AnomalyAlert <= 0 || snap.AnomalyCount < m.cfg.AnomalyAlert {
		return models.AlertRequest{}, false
	}
	byKind := map[string]int{}
	for _, a := range found {
		byKind[a.Kind]++
	}
	kinds := make([]string, 0, len(byKind))
	for k := range byKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	details := map[string]any{"count": snap.AnomalyCount}
	for _, k := range kinds {
		details[k] = byKind[k]
	}
	return models.AlertRequest{
		Type:     models.AlertTypeYieldAnomaly,
		Severity: models.SeverityMedium,
		Title:    TitleAnomalies,
		Message:  fmt.Sprintf("%d anomalous data points detected", snap.AnomalyCount),
		Details:  details,
	}, true
}

// LatestSnapshot implements roles.QualitySource.
func (m *Module) LatestSnapshot() (models.QualitySnapshot, bool) {
	engine, _ := m.current()
	if engine == nil {
		return models.QualitySnapshot{}, false
	}
	return engine.Latest()
}

// SLA reports the latest snapshot against the SLA targets. Without an
// uptime source, uptime counts as 1.
func (m *Module) SLA() (models.SLAReport, bool) {
	snap, ok := m.LatestSnapshot()
	if !ok {
		return models.SLAReport{}, false
	}
	uptime := 1.0
	if m.plugins != nil {
		for _, p := range m.plugins.ResolveByRole(roles.RoleUptimeSource) {
			if u, ok := p.(roles.UptimeSource); ok {
				uptime = u.UptimeRatio()
				break
			}
		}
	}
	return SLA(uptime, snap.Accuracy, snap.Latency, m.cfg.SLA), true
}

// Health implements plugin.HealthChecker.
func (m *Module) Health(_ context.Context) plugin.HealthStatus {
	snap, ok := m.LatestSnapshot()
	if !ok {
		return plugin.HealthStatus{Status: "healthy", Message: "no evaluation yet"}
	}
	details := map[string]string{
		"status":       string(snap.Status),
		"score":        strconv.FormatFloat(snap.QualityScore, 'f', 3, 64),
		"evaluated_at": snap.Timestamp.Format(time.RFC3339),
	}
	switch {
	case len(snap.Failed) > 0:
		return plugin.HealthStatus{Status: "degraded", Message: fmt.Sprintf("%d measurements fell back", len(snap.Failed)), Details: details}
	case snap.Status == models.QualityPoor:
		return plugin.HealthStatus{Status: "degraded", Message: "data quality is poor", Details: details}
	}
	return plugin.HealthStatus{Status: "healthy", Details: details}
}
