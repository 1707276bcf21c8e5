// Package perf samples process and host performance, keeps a day of
// history and raises performance alerts when a metric crosses its threshold.
package perf

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/HerbHall/qualitywatch/internal/history"
	"github.com/HerbHall/qualitywatch/internal/scheduler"
	"github.com/HerbHall/qualitywatch/pkg/models"
	"github.com/HerbHall/qualitywatch/pkg/plugin"
	"github.com/HerbHall/qualitywatch/pkg/roles"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin       = (*Module)(nil)
	_ plugin.HTTPProvider = (*Module)(nil)
)

// Module is the performance plugin.
type Module struct {
	logger  *zap.Logger
	cfg     PerfConfig
	plugins plugin.PluginResolver
	db      *sql.DB
	now     func() time.Time

	sampler Sampler
	history *history.Ring[models.PerformanceSample]
	loop    *scheduler.Loop

	mu   sync.RWMutex
	sink roles.AlertSink
}

// New creates a new performance plugin instance.
func New() *Module {
	return &Module{now: time.Now}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:         "performance",
		Version:      "0.1.0",
		Description:  "Process and host performance sampling",
		Dependencies: []string{"alerts"},
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
			return fmt.Errorf("unmarshal performance config: %w", err)
		}
	}
	if m.cfg.Interval <= 0 {
		return fmt.Errorf("performance: interval must be positive")
	}
	m.plugins = deps.Plugins
	if deps.Store != nil {
		m.db = deps.Store.DB()
	}
	if m.sampler == nil {
		m.sampler = NewRuntimeSampler(m.cfg, m.db)
	}
	m.history = history.NewRing(m.cfg.historyCapacity(), func(s models.PerformanceSample) time.Time {
		return s.Timestamp
	})

	m.logger.Info("performance module initialized",
		zap.Duration("interval", m.cfg.Interval),
		zap.Int("history_capacity", m.history.Cap()),
		zap.Bool("api_probe", m.cfg.APIURL != ""),
	)
	return nil
}

func (m *Module) Start(ctx context.Context) error {
	if m.plugins != nil {
		for _, p := range m.plugins.ResolveByRole(roles.RoleAlertSink) {
			if s, ok := p.(roles.AlertSink); ok {
				m.mu.Lock()
				m.sink = s
				m.mu.Unlock()
				break
			}
		}
	}
	m.loop = scheduler.New("performance", m.cfg.Interval, func(ctx context.Context) error {
		_, err := m.Collect(ctx)
		return err
	}, m.logger)
	m.loop.Immediate = true
	if err := m.loop.Start(ctx); err != nil {
		return err
	}
	m.logger.Info("performance module started")
	return nil
}

func (m *Module) Stop(ctx context.Context) error {
	if m.loop != nil {
		_ = m.loop.StopContext(ctx)
	}
	m.logger.Info("performance module stopped")
	return nil
}

// Collect takes one sample, records it and raises alerts for breached
// thresholds. A sampler error is returned only when nothing was measured.
func (m *Module) Collect(ctx context.Context) (models.PerformanceSample, error) {
	metrics, err := m.sampler.Sample(ctx)
	if err != nil {
		if len(metrics) == 0 {
			return models.PerformanceSample{}, fmt.Errorf("sample performance: %w", err)
		}
		m.logger.Warn("partial performance sample", zap.Error(err))
	}

	sample := models.PerformanceSample{Timestamp: m.now().UTC().Truncate(time.Second), Metrics: metrics}
	m.history.Push(sample)
	for name, v := range metrics {
		performanceGauge.WithLabelValues(name).Set(v)
	}

	m.mu.RLock()
	sink := m.sink
	m.mu.RUnlock()
	if sink == nil {
		return sample, nil
	}

	breached, clear := Check(metrics, m.cfg.Thresholds)
	var errs []error
	for _, req := range breached {
		if _, err := sink.CreateAlert(ctx, req); err != nil {
			errs = append(errs, fmt.Errorf("raise %q: %w", req.Title, err))
		}
	}
	for _, name := range clear {
		sink.AutoResolve(ctx, models.AlertTypePerformance, Title(name))
	}
	return sample, errors.Join(errs...)
}

// Latest returns the newest sample.
func (m *Module) Latest() (models.PerformanceSample, bool) {
	return m.history.Latest()
}

// History returns samples taken at or after since, oldest first.
func (m *Module) History(since time.Time) []models.PerformanceSample {
	return m.history.Since(since)
}
