// Package feed ingests yield data points from independent sources and serves
// them to the quality engine as its signal collector and latency prober.
package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/HerbHall/qualitywatch/internal/scheduler"
	"github.com/HerbHall/qualitywatch/pkg/models"
	"github.com/HerbHall/qualitywatch/pkg/plugin"
	"github.com/HerbHall/qualitywatch/pkg/roles"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProbeSource marks a point that exists only to measure pipeline latency.
const ProbeSource = "probe"

// ErrUnknownSource is returned by FetchFromSource for unconfigured sources.
var ErrUnknownSource = errors.New("unknown source")

// Compile-time interface guards.
var (
	_ plugin.Plugin         = (*Module)(nil)
	_ plugin.HTTPProvider   = (*Module)(nil)
	_ roles.SignalCollector = (*Module)(nil)
	_ roles.LatencyProber   = (*Module)(nil)
)

// Module is the feed plugin.
type Module struct {
	logger *zap.Logger
	cfg    FeedConfig
	store  *FeedStore
	now    func() time.Time

	consumer *consumer
	writer   *probeWriter
	loop     *scheduler.Loop

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates a new feed plugin instance.
func New() *Module {
	return &Module{now: time.Now}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "feed",
		Version:     "0.1.0",
		Description: "Data point ingest, expected-key manifest and latency probes",
		Roles:       []string{roles.RoleSignalCollector, roles.RoleLatencyProber},
		APIVersion:  plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	if m.logger == nil {
		m.logger = zap.NewNop()
	}

	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("unmarshal feed config: %w", err)
		}
	}
	if len(m.cfg.Sources) == 0 {
		return fmt.Errorf("feed: at least one source is required")
	}

	if deps.Store == nil {
		return fmt.Errorf("feed: database store is required")
	}
	if err := deps.Store.Migrate(ctx, "feed", migrations()); err != nil {
		return fmt.Errorf("feed migrations: %w", err)
	}
	m.store = NewFeedStore(deps.Store.DB(), deps.Store.Driver())

	if err := m.seedExpected(ctx); err != nil {
		return err
	}

	if m.cfg.Kafka.Enabled {
		if len(m.cfg.Kafka.Brokers) == 0 || m.cfg.Kafka.Topic == "" {
			return fmt.Errorf("feed: kafka enabled without brokers or topic")
		}
		m.consumer = newConsumer(m.cfg.Kafka, m.Ingest, m.logger.Named("kafka"))
		m.writer = newProbeWriter(m.cfg.Kafka)
	}

	m.logger.Info("feed module initialized",
		zap.Strings("sources", m.cfg.Sources),
		zap.Duration("freshness", m.cfg.Freshness),
		zap.Bool("kafka", m.cfg.Kafka.Enabled),
	)
	return nil
}

// seedExpected loads the configured manifest when none is stored yet.
func (m *Module) seedExpected(ctx context.Context) error {
	if len(m.cfg.Expected) == 0 {
		return nil
	}
	existing, err := m.store.ExpectedKeys(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	keys := make([]models.SeriesKey, 0, len(m.cfg.Expected))
	for _, s := range m.cfg.Expected {
		k, err := ParseSeriesKey(s)
		if err != nil {
			return fmt.Errorf("feed expected: %w", err)
		}
		keys = append(keys, k)
	}
	return m.store.ReplaceExpected(ctx, keys)
}

// ParseSeriesKey parses "protocol/chain".
func ParseSeriesKey(s string) (models.SeriesKey, error) {
	protocol, chain, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || protocol == "" || chain == "" {
		return models.SeriesKey{}, fmt.Errorf("invalid series key %q, want protocol/chain", s)
	}
	return models.SeriesKey{Protocol: protocol, Chain: chain}, nil
}

func (m *Module) Start(ctx context.Context) error {
	m.mu.Lock()
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.mu.Unlock()

	if m.consumer != nil {
		m.consumer.start(runCtx)
	}

	m.loop = scheduler.New("feed_maintenance", m.cfg.MaintenanceInterval, m.purge, m.logger)
	if err := m.loop.Start(runCtx); err != nil {
		cancel()
		return err
	}
	m.logger.Info("feed module started")
	return nil
}

func (m *Module) Stop(ctx context.Context) error {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if m.loop != nil {
		_ = m.loop.StopContext(ctx)
	}
	if m.consumer != nil {
		m.consumer.wait()
	}
	if m.writer != nil {
		if err := m.writer.close(); err != nil {
			m.logger.Warn("closing kafka writer", zap.Error(err))
		}
	}
	m.logger.Info("feed module stopped")
	return nil
}

func (m *Module) purge(ctx context.Context) error {
	points, probes, err := m.store.PurgeBefore(ctx, m.now().Add(-m.cfg.Retention))
	if err != nil {
		return err
	}
	if points > 0 || probes > 0 {
		m.logger.Info("feed retention purge",
			zap.Int64("points", points),
			zap.Int64("probes", probes),
		)
	}
	return nil
}

// Ingest validates and stores points. Probe points mark their probe
// observed instead of being stored. Returns how many data points were stored.
func (m *Module) Ingest(ctx context.Context, points []models.DataPoint) (int, error) {
	if len(points) > m.cfg.MaxBatch && m.cfg.MaxBatch > 0 {
		return 0, fmt.Errorf("batch of %d points exceeds limit %d", len(points), m.cfg.MaxBatch)
	}
	now := m.now()
	data := make([]models.DataPoint, 0, len(points))
	for i := range points {
		p := points[i]
		if p.ProbeID != "" {
			if _, err := m.store.MarkProbeObserved(ctx, p.ProbeID, now); err != nil {
				m.logger.Warn("marking probe observed", zap.String("probe_id", p.ProbeID), zap.Error(err))
			}
			continue
		}
		if p.Source == "" || p.Protocol == "" || p.Chain == "" {
			return 0, fmt.Errorf("point %d: source, protocol and chain are required", i)
		}
		if p.Timestamp.IsZero() {
			p.Timestamp = now
		}
		data = append(data, p)
	}
	if len(data) == 0 {
		return 0, nil
	}
	if err := m.store.InsertPoints(ctx, data, now); err != nil {
		return 0, err
	}
	for i := range data {
		pointsProcessed.WithLabelValues(data[i].Protocol, data[i].Chain).Inc()
	}
	return len(data), nil
}

// Sources implements roles.SignalCollector.
func (m *Module) Sources() []string {
	out := make([]string, len(m.cfg.Sources))
	copy(out, m.cfg.Sources)
	return out
}

// FetchFromSource implements roles.SignalCollector.
func (m *Module) FetchFromSource(ctx context.Context, source string) (map[models.SeriesKey]models.Observation, error) {
	known := false
	for _, s := range m.cfg.Sources {
		if s == source {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	return m.store.LatestBySource(ctx, source, m.now().Add(-m.cfg.Freshness))
}

// ExpectedKeys implements roles.SignalCollector.
func (m *Module) ExpectedKeys(ctx context.Context) ([]models.SeriesKey, error) {
	return m.store.ExpectedKeys(ctx)
}

// SetExpectedKeys replaces the expected-key manifest.
func (m *Module) SetExpectedKeys(ctx context.Context, keys []models.SeriesKey) error {
	for _, k := range keys {
		if k.Protocol == "" || k.Chain == "" {
			return fmt.Errorf("expected key %q: protocol and chain are required", k)
		}
	}
	return m.store.ReplaceExpected(ctx, keys)
}

// CurrentDataPoints implements roles.SignalCollector.
func (m *Module) CurrentDataPoints(ctx context.Context) ([]models.DataPoint, error) {
	return m.store.Latest(ctx, m.now().Add(-m.cfg.Freshness))
}

// RecentHistory implements roles.SignalCollector.
func (m *Module) RecentHistory(ctx context.Context, window time.Duration) ([]models.DataPoint, error) {
	return m.store.History(ctx, m.now().Add(-window))
}

// InjectProbe implements roles.LatencyProber. With Kafka enabled the probe
// is published to the ingest topic and observed when the consumer reads it
// back; otherwise the store round trip is the observation.
func (m *Module) InjectProbe(ctx context.Context) (string, error) {
	id := uuid.NewString()
	now := m.now()
	if err := m.store.InsertProbe(ctx, id, now); err != nil {
		return "", err
	}
	if m.writer != nil {
		probe := models.DataPoint{Source: ProbeSource, Protocol: ProbeSource, Chain: ProbeSource, Timestamp: now, ProbeID: id}
		if err := m.writer.publish(ctx, probe); err != nil {
			return "", err
		}
	}
	return id, nil
}

// ProbeObserved implements roles.LatencyProber.
func (m *Module) ProbeObserved(ctx context.Context, id string) (bool, error) {
	if m.writer == nil {
		found, err := m.store.MarkProbeObserved(ctx, id, m.now())
		if err != nil {
			return false, err
		}
		if !found {
			return false, fmt.Errorf("probe %s not found", id)
		}
		return true, nil
	}
	at, found, err := m.store.ProbeObservedAt(ctx, id)
	if err != nil {
		return false, err
	}
	if !found {
		return false, fmt.Errorf("probe %s not found", id)
	}
	return at != nil, nil
}
