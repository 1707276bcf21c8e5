package alerts

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/HerbHall/qualitywatch/pkg/models"
	"github.com/HerbHall/qualitywatch/pkg/plugin"
	"github.com/HerbHall/qualitywatch/pkg/roles"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidRequest is returned by Create for requests missing a type or title.
var ErrInvalidRequest = errors.New("invalid alert request")

// alertNamespace seeds deterministic alert IDs.
var alertNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://qualitywatch.dev/alerts"))

// Compile-time interface guards.
var (
	_ roles.AlertSink             = (*Manager)(nil)
	_ roles.AlertStatisticsSource = (*Manager)(nil)
)

type fingerprint struct {
	alertType string
	title     string
}

// Outcome describes what Create did with a request.
type Outcome struct {
	Alert        *models.Alert    `json:"alert,omitempty"`
	Deduplicated bool             `json:"deduplicated"`
	Channels     []string         `json:"channels,omitempty"`
	Deliveries   []DeliveryResult `json:"deliveries,omitempty"`
}

// Manager owns the in-memory alert store and the fingerprint table. All
// state is guarded by mu, which is never held across notification I/O.
type Manager struct {
	mu           sync.Mutex
	alerts       map[string]*models.Alert
	fingerprints map[fingerprint]time.Time

	rules       map[string]AlertRule
	dedupWindow time.Duration
	retention   time.Duration

	router     *Router
	dispatcher *Dispatcher
	bus        plugin.Publisher
	logger     *zap.Logger
	now        func() time.Time
}

// NewManager creates a manager. bus may be nil.
func NewManager(cfg AlertsConfig, router *Router, dispatcher *Dispatcher, bus plugin.Publisher, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if router == nil {
		router = NewRouter(nil)
	}
	if dispatcher == nil {
		dispatcher = NewDispatcher(nil, 0, cfg.DispatchTimeout, logger)
	}
	def := DefaultConfig()
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = def.DedupWindow
	}
	if cfg.RetentionPeriod <= 0 {
		cfg.RetentionPeriod = def.RetentionPeriod
	}
	return &Manager{
		alerts:       make(map[string]*models.Alert),
		fingerprints: make(map[fingerprint]time.Time),
		rules:        mergeRules(cfg.Rules),
		dedupWindow:  cfg.DedupWindow,
		retention:    cfg.RetentionPeriod,
		router:       router,
		dispatcher:   dispatcher,
		bus:          bus,
		logger:       logger,
		now:          time.Now,
	}
}

// clock returns the current time truncated to whole seconds.
func (m *Manager) clock() time.Time {
	return time.Unix(m.now().Unix(), 0).UTC()
}

// Create deduplicates req, stores a new alert and dispatches it to the
// channels routed for its severity. Channel failures are reported in the
// outcome, never as an error.
func (m *Manager) Create(ctx context.Context, req models.AlertRequest) (Outcome, error) {
	if req.Type == "" || req.Title == "" {
		return Outcome{}, fmt.Errorf("%w: type and title are required", ErrInvalidRequest)
	}
	if !req.Severity.Valid() {
		return Outcome{}, fmt.Errorf("%w: %d", models.ErrInvalidSeverity, int(req.Severity))
	}

	fp := fingerprint{alertType: req.Type, title: req.Title}

	m.mu.Lock()
	now := m.clock()
	if last, seen := m.fingerprints[fp]; seen && now.Sub(last) < m.dedupWindow {
		m.mu.Unlock()
		m.logger.Debug("alert deduplicated",
			zap.String("type", req.Type),
			zap.String("title", req.Title),
			zap.Time("last_seen", last),
		)
		return Outcome{Deduplicated: true}, nil
	}

	alert := &models.Alert{
		ID:        m.newIDLocked(req.Type, req.Message, now),
		CreatedAt: now,
		Type:      req.Type,
		Severity:  req.Severity,
		Title:     req.Title,
		Message:   req.Message,
		Details:   copyDetails(req.Details),
	}
	m.alerts[alert.ID] = alert
	m.fingerprints[fp] = now
	m.updateActiveLocked()
	snapshot := alert.Clone()
	m.mu.Unlock()

	alertsTotal.WithLabelValues(alert.Type, alert.Severity.String()).Inc()
	m.logger.Info("alert created",
		zap.String("id", snapshot.ID),
		zap.String("type", snapshot.Type),
		zap.Stringer("severity", snapshot.Severity),
		zap.String("title", snapshot.Title),
	)

	channels := m.router.Route(snapshot.Severity)
	deliveries := m.dispatcher.Dispatch(ctx, snapshot, channels)
	m.publish(ctx, TopicAlertCreated, snapshot)

	return Outcome{Alert: snapshot, Channels: channels, Deliveries: deliveries}, nil
}

// CreateAlert implements roles.AlertSink.
func (m *Manager) CreateAlert(ctx context.Context, req models.AlertRequest) (roles.CreateResult, error) {
	out, err := m.Create(ctx, req)
	if err != nil {
		return roles.CreateResult{}, err
	}
	return roles.CreateResult{Alert: out.Alert, Deduplicated: out.Deduplicated}, nil
}

// newIDLocked derives an ID from (type, creation second, message hash).
// Identical inputs within the same second get a counter suffix.
func (m *Manager) newIDLocked(alertType, message string, at time.Time) string {
	sum := sha256.Sum256([]byte(message))
	base := fmt.Sprintf("%s|%d|%x", alertType, at.Unix(), sum)
	id := uuid.NewSHA1(alertNamespace, []byte(base)).String()
	for n := 1; m.alerts[id] != nil; n++ {
		id = uuid.NewSHA1(alertNamespace, []byte(fmt.Sprintf("%s|%d", base, n))).String()
	}
	return id
}

// Acknowledge marks an alert acknowledged. Returns false when no alert has
// that id. Acknowledging twice, or acknowledging a resolved alert, is a
// successful no-op.
func (m *Manager) Acknowledge(ctx context.Context, id string) bool {
	m.mu.Lock()
	a, ok := m.alerts[id]
	if !ok {
		m.mu.Unlock()
		return false
	}
	if a.Acknowledged || a.Resolved {
		m.mu.Unlock()
		return true
	}
	at := m.clock()
	a.Acknowledged = true
	a.AcknowledgedAt = &at
	snapshot := a.Clone()
	m.mu.Unlock()

	m.logger.Info("alert acknowledged", zap.String("id", id))
	m.publish(ctx, TopicAlertAcknowledged, snapshot)
	return true
}

// Resolve marks an alert resolved and records when. Returns false when no
// alert has that id. Resolving twice is a successful no-op.
func (m *Manager) Resolve(ctx context.Context, id string) bool {
	m.mu.Lock()
	a, ok := m.alerts[id]
	if !ok {
		m.mu.Unlock()
		return false
	}
	if a.Resolved {
		m.mu.Unlock()
		return true
	}
	m.resolveLocked(a)
	snapshot := a.Clone()
	m.mu.Unlock()

	m.logger.Info("alert resolved", zap.String("id", id))
	m.publish(ctx, TopicAlertResolved, snapshot)
	return true
}

func (m *Manager) resolveLocked(a *models.Alert) {
	at := m.clock()
	a.Resolved = true
	a.ResolvedAt = &at
	m.updateActiveLocked()
}

// AutoResolve resolves every open alert with the given type and title when
// the type's rule allows automatic resolution.
func (m *Manager) AutoResolve(ctx context.Context, alertType, title string) int {
	if !m.rules[alertType].AutoResolve {
		return 0
	}
	m.mu.Lock()
	var resolved []*models.Alert
	for _, a := range m.alerts {
		if !a.Resolved && a.Type == alertType && a.Title == title {
			m.resolveLocked(a)
			resolved = append(resolved, a.Clone())
		}
	}
	m.mu.Unlock()

	for _, a := range resolved {
		m.logger.Info("alert auto-resolved", zap.String("id", a.ID), zap.String("title", title))
		m.publish(ctx, TopicAlertResolved, a)
	}
	return len(resolved)
}

// Get returns a copy of one alert.
func (m *Manager) Get(id string) (*models.Alert, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alerts[id]
	if !ok {
		return nil, false
	}
	return a.Clone(), true
}

// Active returns copies of every unresolved alert, newest first.
func (m *Manager) Active() []*models.Alert {
	return m.list(func(a *models.Alert) bool { return !a.Resolved })
}

// All returns copies of every stored alert, newest first.
func (m *Manager) All() []*models.Alert {
	return m.list(func(*models.Alert) bool { return true })
}

func (m *Manager) list(keep func(*models.Alert) bool) []*models.Alert {
	m.mu.Lock()
	out := make([]*models.Alert, 0, len(m.alerts))
	for _, a := range m.alerts {
		if keep(a) {
			out = append(out, a.Clone())
		}
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Statistics summarizes the store. Severity and type breakdowns count open
// alerts. MTTR is the mean of ResolvedAt-CreatedAt over resolved alerts.
func (m *Manager) Statistics() models.AlertStatistics {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := models.AlertStatistics{
		Total:      len(m.alerts),
		BySeverity: make(map[string]int),
		ByType:     make(map[string]int),
	}
	var totalResolution time.Duration
	for _, a := range m.alerts {
		if a.Resolved {
			stats.Resolved++
			if a.ResolvedAt != nil {
				totalResolution += a.ResolvedAt.Sub(a.CreatedAt)
			}
			continue
		}
		stats.Active++
		stats.BySeverity[a.Severity.String()]++
		stats.ByType[a.Type]++
	}
	if stats.Resolved > 0 {
		stats.MTTRSeconds = totalResolution.Seconds() / float64(stats.Resolved)
	}
	return stats
}

// RetentionSweep purges alerts created before now-retention regardless of
// state, and compacts fingerprints too old to suppress anything.
func (m *Manager) RetentionSweep(_ context.Context) (purged, compacted int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()
	cutoff := now.Add(-m.retention)
	for id, a := range m.alerts {
		if a.CreatedAt.Before(cutoff) {
			delete(m.alerts, id)
			purged++
		}
	}

	for fp, last := range m.fingerprints {
		if now.Sub(last) >= m.dedupWindow {
			delete(m.fingerprints, fp)
			compacted++
		}
	}
	m.updateActiveLocked()

	if purged > 0 || compacted > 0 {
		m.logger.Info("alert retention sweep",
			zap.Int("purged", purged),
			zap.Int("fingerprints_compacted", compacted),
			zap.Int("remaining", len(m.alerts)),
		)
	}
	return purged, compacted
}

// Escalate raises the severity of open, unacknowledged alerts that have
// outlived their rule's escalation window, then re-dispatches them on the
// new severity's route. Each alert escalates at most once.
func (m *Manager) Escalate(ctx context.Context) int {
	m.mu.Lock()
	now := m.clock()
	var escalated []*models.Alert
	for _, a := range m.alerts {
		if a.Resolved || a.Acknowledged || a.Escalated {
			continue
		}
		rule, ok := m.rules[a.Type]
		if !ok || rule.Escalation <= 0 || now.Sub(a.CreatedAt) < rule.Escalation {
			continue
		}
		a.Severity = a.Severity.Raise()
		a.Escalated = true
		escalated = append(escalated, a.Clone())
	}
	m.mu.Unlock()

	for _, a := range escalated {
		m.logger.Warn("alert escalated",
			zap.String("id", a.ID),
			zap.String("type", a.Type),
			zap.Stringer("severity", a.Severity),
		)
		m.dispatcher.Dispatch(ctx, a, m.router.Route(a.Severity))
		m.publish(ctx, TopicAlertEscalated, a)
	}
	return len(escalated)
}

// Routes returns the active routing table keyed by severity name.
func (m *Manager) Routes() map[string][]string {
	return m.router.Table()
}

// Rules returns the rule table.
func (m *Manager) Rules() map[string]AlertRule {
	out := make(map[string]AlertRule, len(m.rules))
	for k, v := range m.rules {
		out[k] = v
	}
	return out
}

func (m *Manager) updateActiveLocked() {
	active := 0
	for _, a := range m.alerts {
		if !a.Resolved {
			active++
		}
	}
	alertsActive.Set(float64(active))
}

func (m *Manager) publish(ctx context.Context, topic string, alert *models.Alert) {
	if m.bus == nil {
		return
	}
	if err := m.bus.Publish(ctx, plugin.Event{
		Topic:     topic,
		Source:    "alerts",
		Timestamp: m.now(),
		Payload:   alert,
	}); err != nil {
		m.logger.Debug("publish failed", zap.String("topic", topic), zap.Error(err))
	}
}

func copyDetails(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
