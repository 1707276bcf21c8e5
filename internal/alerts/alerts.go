// Package alerts implements the alert lifecycle: deduplication, severity
// routing, notification fan-out, acknowledge/resolve and retention.
package alerts

import (
	"context"
	"fmt"
	"strconv"

	"github.com/HerbHall/qualitywatch/internal/scheduler"
	"github.com/HerbHall/qualitywatch/pkg/models"
	"github.com/HerbHall/qualitywatch/pkg/plugin"
	"github.com/HerbHall/qualitywatch/pkg/roles"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin        = (*Module)(nil)
	_ plugin.HTTPProvider  = (*Module)(nil)
	_ plugin.HealthChecker = (*Module)(nil)
	_ roles.AlertSink      = (*Module)(nil)
)

// Module is the alerts plugin.
type Module struct {
	logger     *zap.Logger
	config     plugin.Config
	cfg        AlertsConfig
	router     *Router
	dispatcher *Dispatcher
	manager    *Manager
	loops      []*scheduler.Loop
}

// New creates a new alerts plugin instance.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "alerts",
		Version:     "0.1.0",
		Description: "Alert deduplication, routing, notification and lifecycle",
		Required:    true,
		Roles:       []string{roles.RoleAlertSink},
		APIVersion:  plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	m.config = deps.Config

	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("unmarshal alerts config: %w", err)
		}
	}

	table, err := ParseRoutes(m.cfg.Routes)
	if err != nil {
		return err
	}
	m.router = NewRouter(table)

	m.dispatcher = NewDispatcher(m.buildNotifiers(ctx), m.cfg.Channels.RatePerMinute, m.cfg.DispatchTimeout, m.logger.Named("dispatch"))

	var bus plugin.Publisher
	if deps.Bus != nil {
		bus = deps.Bus
	}
	m.manager = NewManager(m.cfg, m.router, m.dispatcher, bus, m.logger)

	if w, ok := deps.Config.(plugin.ConfigWatcher); ok {
		w.OnChange(m.reloadRoutes)
	}

	m.logger.Info("alerts module initialized",
		zap.Duration("dedup_window", m.cfg.DedupWindow),
		zap.Duration("retention_period", m.cfg.RetentionPeriod),
		zap.Any("channels", m.dispatcher.Channels()),
	)
	return nil
}

func (m *Module) buildNotifiers(ctx context.Context) []Notifier {
	ch := m.cfg.Channels
	notifiers := []Notifier{
		NewPagerDutyNotifier(ch.PagerDuty),
		NewChatNotifier(ch.Chat),
		NewWebhookNotifier(ch.Webhook),
	}

	var provider EmailProvider
	if len(ch.Email.To) > 0 {
		p, err := NewEmailProvider(ctx, ch.Email)
		if err != nil {
			m.logger.Warn("email provider unavailable; email channel disabled",
				zap.String("provider", ch.Email.Provider),
				zap.Error(err),
			)
		} else {
			provider = p
		}
	}
	return append(notifiers, NewEmailNotifier(ch.Email, provider))
}

// reloadRoutes swaps in the routing table from the current config. An
// invalid table is logged and the previous one stays active.
func (m *Module) reloadRoutes() {
	var cfg AlertsConfig
	if err := m.config.Unmarshal(&cfg); err != nil {
		m.logger.Warn("alerts config reload failed", zap.Error(err))
		return
	}
	table, err := ParseRoutes(cfg.Routes)
	if err != nil {
		m.logger.Warn("ignoring invalid routing table", zap.Error(err))
		return
	}
	m.router.Replace(table)
	m.logger.Info("alert routes reloaded", zap.Any("routes", m.router.Table()))
}

func (m *Module) Start(ctx context.Context) error {
	retention := scheduler.New("alert_retention", m.cfg.RetentionInterval, func(ctx context.Context) error {
		m.manager.RetentionSweep(ctx)
		return nil
	}, m.logger)

	escalation := scheduler.New("alert_escalation", m.cfg.EscalationInterval, func(ctx context.Context) error {
		m.manager.Escalate(ctx)
		return nil
	}, m.logger)
	escalation.Timeout = m.cfg.DispatchTimeout * 4

	for _, l := range []*scheduler.Loop{retention, escalation} {
		if err := l.Start(ctx); err != nil {
			m.stopLoops(ctx)
			return err
		}
		m.loops = append(m.loops, l)
	}
	m.logger.Info("alerts module started")
	return nil
}

func (m *Module) Stop(ctx context.Context) error {
	m.stopLoops(ctx)
	m.logger.Info("alerts module stopped")
	return nil
}

func (m *Module) stopLoops(ctx context.Context) {
	for _, l := range m.loops {
		_ = l.StopContext(ctx)
	}
	m.loops = nil
}

// Health implements plugin.HealthChecker.
func (m *Module) Health(_ context.Context) plugin.HealthStatus {
	stats := m.manager.Statistics()
	details := map[string]string{
		"active": strconv.Itoa(stats.Active),
		"total":  strconv.Itoa(stats.Total),
	}
	configured := 0
	for name, ok := range m.dispatcher.Channels() {
		details["channel."+name] = strconv.FormatBool(ok)
		if ok {
			configured++
		}
	}
	if configured == 0 {
		return plugin.HealthStatus{
			Status:  "degraded",
			Message: "no notification channel configured; alerts are stored but not delivered",
			Details: details,
		}
	}
	return plugin.HealthStatus{Status: "healthy", Details: details}
}

// Manager exposes the lifecycle manager.
func (m *Module) Manager() *Manager { return m.manager }

// CreateAlert implements roles.AlertSink.
func (m *Module) CreateAlert(ctx context.Context, req models.AlertRequest) (roles.CreateResult, error) {
	return m.manager.CreateAlert(ctx, req)
}

// AutoResolve implements roles.AlertSink.
func (m *Module) AutoResolve(ctx context.Context, alertType, title string) int {
	return m.manager.AutoResolve(ctx, alertType, title)
}

// Statistics implements roles.AlertStatisticsSource.
func (m *Module) Statistics() models.AlertStatistics {
	return m.manager.Statistics()
}
