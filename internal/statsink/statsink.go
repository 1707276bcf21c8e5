// Package statsink periodically publishes alert statistics and the latest
// quality snapshot to Redis for external dashboards.
package statsink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HerbHall/qualitywatch/internal/scheduler"
	"github.com/HerbHall/qualitywatch/pkg/plugin"
	"github.com/HerbHall/qualitywatch/pkg/roles"
	"go.uber.org/zap"
)

// Key suffixes appended to the configured prefix.
const (
	KeyStatistics = "alerts:statistics"
	KeySnapshot   = "quality:latest"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin        = (*Module)(nil)
	_ plugin.HealthChecker = (*Module)(nil)
)

// Module is the statistics sink plugin.
type Module struct {
	logger  *zap.Logger
	cfg     SinkConfig
	plugins plugin.PluginResolver
	writer  Writer
	loop    *scheduler.Loop

	mu      sync.RWMutex
	stats   roles.AlertStatisticsSource
	quality roles.QualitySource

	lastErr  atomic.Pointer[string]
	lastSent atomic.Int64
}

// New creates a new statsink plugin instance.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:         "statsink",
		Version:      "0.1.0",
		Description:  "Publishes alert statistics and quality snapshots to Redis",
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
			return fmt.Errorf("unmarshal statsink config: %w", err)
		}
	}
	if m.cfg.Interval <= 0 {
		return fmt.Errorf("statsink: interval must be positive")
	}
	if m.cfg.TTL < m.cfg.Interval {
		return fmt.Errorf("statsink: ttl %s shorter than interval %s", m.cfg.TTL, m.cfg.Interval)
	}
	m.plugins = deps.Plugins
	if m.writer == nil {
		m.writer = NewRedisWriter(m.cfg)
	}
	m.logger.Info("statsink module initialized",
		zap.String("addr", m.cfg.Addr),
		zap.String("key_prefix", m.cfg.KeyPrefix),
		zap.Duration("interval", m.cfg.Interval),
	)
	return nil
}

func (m *Module) Start(ctx context.Context) error {
	m.resolve()
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	if err := m.Ping(pingCtx); err != nil {
		m.logger.Warn("redis unreachable, retrying every cycle", zap.Error(err))
	}
	cancel()
	m.loop = scheduler.New("statsink", m.cfg.Interval, m.Publish, m.logger)
	m.loop.Immediate = true
	if err := m.loop.Start(ctx); err != nil {
		return err
	}
	m.logger.Info("statsink module started")
	return nil
}

func (m *Module) resolve() {
	if m.plugins == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.plugins.ResolveByRole(roles.RoleAlertSink) {
		if s, ok := p.(roles.AlertStatisticsSource); ok {
			m.stats = s
			break
		}
	}
	for _, p := range m.plugins.ResolveByRole(roles.RoleQualitySource) {
		if q, ok := p.(roles.QualitySource); ok {
			m.quality = q
			break
		}
	}
}

func (m *Module) Stop(ctx context.Context) error {
	if m.loop != nil {
		_ = m.loop.StopContext(ctx)
	}
	var err error
	if m.writer != nil {
		err = m.writer.Close()
	}
	m.logger.Info("statsink module stopped")
	return err
}

// Publish writes one batch. A missing snapshot is skipped; statistics are
// always written.
func (m *Module) Publish(ctx context.Context) error {
	m.mu.RLock()
	stats, quality := m.stats, m.quality
	m.mu.RUnlock()

	values := make(map[string][]byte, 2)
	if stats != nil {
		b, err := json.Marshal(stats.Statistics())
		if err != nil {
			return fmt.Errorf("encode statistics: %w", err)
		}
		values[m.cfg.KeyPrefix+KeyStatistics] = b
	}
	if quality != nil {
		if snap, ok := quality.LatestSnapshot(); ok {
			b, err := json.Marshal(snap)
			if err != nil {
				return fmt.Errorf("encode snapshot: %w", err)
			}
			values[m.cfg.KeyPrefix+KeySnapshot] = b
		}
	}
	if len(values) == 0 {
		return nil
	}

	if err := m.writer.Write(ctx, values, m.cfg.TTL); err != nil {
		msg := err.Error()
		m.lastErr.Store(&msg)
		return err
	}
	m.lastErr.Store(nil)
	m.lastSent.Store(time.Now().Unix())
	return nil
}

func (m *Module) Health(_ context.Context) plugin.HealthStatus {
	if msg := m.lastErr.Load(); msg != nil {
		return plugin.HealthStatus{Status: "degraded", Message: *msg}
	}
	details := map[string]string{"addr": m.cfg.Addr}
	if ts := m.lastSent.Load(); ts > 0 {
		details["last_published"] = time.Unix(ts, 0).UTC().Format(time.RFC3339)
	}
	return plugin.HealthStatus{Status: "healthy", Details: details}
}

var errNotStarted = errors.New("statsink: writer not initialized")

// Ping checks the Redis connection when the writer supports it.
func (m *Module) Ping(ctx context.Context) error {
	if m.writer == nil {
		return errNotStarted
	}
	if p, ok := m.writer.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}
