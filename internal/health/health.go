// Package health probes the components the monitor depends on, raises a
// critical alert when any of them fails and reports uptime over recent runs.
package health

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/HerbHall/qualitywatch/internal/fanout"
	"github.com/HerbHall/qualitywatch/internal/history"
	"github.com/HerbHall/qualitywatch/internal/scheduler"
	"github.com/HerbHall/qualitywatch/pkg/models"
	"github.com/HerbHall/qualitywatch/pkg/plugin"
	"github.com/HerbHall/qualitywatch/pkg/roles"
	"go.uber.org/zap"
)

const (
	AlertTitle   = "System Health Check Failed"
	AlertMessage = "One or more system components are unhealthy"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin        = (*Module)(nil)
	_ plugin.HTTPProvider  = (*Module)(nil)
	_ plugin.HealthChecker = (*Module)(nil)
	_ roles.UptimeSource   = (*Module)(nil)
)

// Run is the outcome of one pass over every component.
type Run struct {
	At         time.Time                `json:"checked_at"`
	Healthy    bool                     `json:"healthy"`
	Components []models.ComponentHealth `json:"components"`
}

// Module is the health plugin.
type Module struct {
	logger  *zap.Logger
	cfg     HealthConfig
	plugins plugin.PluginResolver
	db      *sql.DB

	checkers map[string]Checker
	runs     *history.Ring[Run]
	loop     *scheduler.Loop

	mu   sync.RWMutex
	sink roles.AlertSink
}

// New creates a new health plugin instance.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:         "health",
		Version:      "0.1.0",
		Description:  "Component health checks and uptime",
		Dependencies: []string{"alerts"},
		Roles:        []string{roles.RoleUptimeSource},
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
			return fmt.Errorf("unmarshal health config: %w", err)
		}
	}
	if err := m.cfg.validate(); err != nil {
		return err
	}
	m.plugins = deps.Plugins
	if deps.Store != nil {
		m.db = deps.Store.DB()
	}

	m.checkers = make(map[string]Checker, len(m.cfg.Components))
	for _, comp := range m.cfg.Components {
		m.checkers[comp.Name] = m.newChecker(comp)
	}
	m.runs = history.NewRing(m.cfg.UptimeWindow, func(r Run) time.Time { return r.At })

	names := make([]string, 0, len(m.cfg.Components))
	for _, comp := range m.cfg.Components {
		names = append(names, comp.Name+"/"+comp.Type)
	}
	m.logger.Info("health module initialized",
		zap.Duration("interval", m.cfg.Interval),
		zap.Strings("components", names),
	)
	return nil
}

func (m *Module) newChecker(comp Component) Checker {
	timeout := m.cfg.timeoutFor(comp)
	switch comp.Type {
	case TypeHTTP:
		return NewHTTPChecker(timeout)
	case TypeTCP:
		return NewTCPChecker(timeout)
	case TypeICMP:
		return NewICMPChecker(timeout, m.cfg.PingCount, m.cfg.PrivilegedICMP)
	default:
		return NewSQLChecker(m.db)
	}
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
	m.loop = scheduler.New("health", m.cfg.Interval, func(ctx context.Context) error {
		_, err := m.CheckAll(ctx)
		return err
	}, m.logger)
	m.loop.Immediate = true
	if err := m.loop.Start(ctx); err != nil {
		return err
	}
	m.logger.Info("health module started")
	return nil
}

func (m *Module) Stop(ctx context.Context) error {
	if m.loop != nil {
		_ = m.loop.StopContext(ctx)
	}
	m.logger.Info("health module stopped")
	return nil
}

// CheckAll probes every component concurrently, records the run and raises
// or clears the system health alert. The returned error covers alerting only;
// probe failures are reported as unhealthy components.
func (m *Module) CheckAll(ctx context.Context) (Run, error) {
	tasks := make([]fanout.Task[models.ComponentHealth], len(m.cfg.Components))
	for i, comp := range m.cfg.Components {
		tasks[i] = func(ctx context.Context) (models.ComponentHealth, error) {
			return m.checkOne(ctx, comp), nil
		}
	}
	results := fanout.Join(ctx, tasks...)

	run := Run{At: time.Now().UTC(), Healthy: true, Components: make([]models.ComponentHealth, len(results))}
	for i, res := range results {
		comp := m.cfg.Components[i]
		h := res.Value
		if res.Err != nil {
			h = models.ComponentHealth{Name: comp.Name, Type: comp.Type, Target: comp.Target, Error: res.Err.Error(), CheckedAt: run.At}
		}
		run.Components[i] = h
		if !h.Healthy {
			run.Healthy = false
		}
		up := 0.0
		if h.Healthy {
			up = 1
		}
		componentUp.WithLabelValues(comp.Name, comp.Type).Set(up)
	}
	m.runs.Push(run)
	systemUptime.Set(m.UptimeRatio())

	if !run.Healthy {
		m.logger.Warn("health check failed", zap.Strings("unhealthy", unhealthyNames(run)))
	}
	return run, m.alert(ctx, run)
}

func (m *Module) checkOne(ctx context.Context, comp Component) models.ComponentHealth {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.timeoutFor(comp))
	defer cancel()

	h := models.ComponentHealth{Name: comp.Name, Type: comp.Type, Target: comp.Target}
	res, err := m.checkers[comp.Name].Check(ctx, comp.Target)
	if res != nil {
		h.Healthy = res.Success
		h.Latency = res.Latency
		h.Error = res.ErrorMessage
		h.CheckedAt = res.CheckedAt
	}
	if err != nil {
		h.Healthy = false
		if h.Error == "" {
			h.Error = err.Error()
		}
	}
	if h.CheckedAt.IsZero() {
		h.CheckedAt = time.Now().UTC()
	}
	return h
}

func (m *Module) alert(ctx context.Context, run Run) error {
	m.mu.RLock()
	sink := m.sink
	m.mu.RUnlock()
	if sink == nil {
		return nil
	}
	if run.Healthy {
		sink.AutoResolve(ctx, models.AlertTypeSystemHealth, AlertTitle)
		return nil
	}

	components := make(map[string]any, len(run.Components))
	for _, c := range run.Components {
		entry := map[string]any{"healthy": c.Healthy, "type": c.Type}
		if c.Error != "" {
			entry["error"] = c.Error
		}
		components[c.Name] = entry
	}
	_, err := sink.CreateAlert(ctx, models.AlertRequest{
		Type:     models.AlertTypeSystemHealth,
		Severity: models.SeverityCritical,
		Title:    AlertTitle,
		Message:  AlertMessage,
		Details: map[string]any{
			"components": components,
			"unhealthy":  unhealthyNames(run),
		},
	})
	if err != nil {
		return fmt.Errorf("raise system health alert: %w", err)
	}
	return nil
}

func unhealthyNames(run Run) []string {
	var names []string
	for _, c := range run.Components {
		if !c.Healthy {
			names = append(names, c.Name)
		}
	}
	sort.Strings(names)
	return names
}

// UptimeRatio is the fraction of the last UptimeWindow runs in which every
// component was healthy. With no runs yet it reports 1.
func (m *Module) UptimeRatio() float64 {
	runs := m.runs.Last(m.cfg.UptimeWindow)
	if len(runs) == 0 {
		return 1
	}
	healthy := 0
	for _, r := range runs {
		if r.Healthy {
			healthy++
		}
	}
	return float64(healthy) / float64(len(runs))
}

// LastRun returns the most recent run.
func (m *Module) LastRun() (Run, bool) {
	return m.runs.Latest()
}

func (m *Module) Health(_ context.Context) plugin.HealthStatus {
	run, ok := m.LastRun()
	if !ok {
		return plugin.HealthStatus{Status: "healthy", Message: "no checks run yet"}
	}
	if run.Healthy {
		return plugin.HealthStatus{Status: "healthy"}
	}
	details := make(map[string]string)
	for _, c := range run.Components {
		if !c.Healthy {
			details[c.Name] = c.Error
		}
	}
	return plugin.HealthStatus{Status: "degraded", Message: AlertMessage, Details: details}
}
