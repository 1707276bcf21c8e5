package quality

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/HerbHall/qualitywatch/internal/alerts"
	"github.com/HerbHall/qualitywatch/internal/config"
	"github.com/HerbHall/qualitywatch/internal/event"
	"github.com/HerbHall/qualitywatch/pkg/models"
	"github.com/HerbHall/qualitywatch/pkg/plugin"
	"github.com/HerbHall/qualitywatch/pkg/roles"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// fakeFeed fills the signal collector and latency prober roles.
type fakeFeed struct {
	*fakeCollector
	*stubProber
}

func (f *fakeFeed) Info() plugin.PluginInfo                         { return plugin.PluginInfo{Name: "feed"} }
func (f *fakeFeed) Init(context.Context, plugin.Dependencies) error { return nil }
func (f *fakeFeed) Start(context.Context) error                     { return nil }
func (f *fakeFeed) Stop(context.Context) error                      { return nil }

type fakeUptime struct {
	fakeFeed
	ratio float64
}

func (u *fakeUptime) UptimeRatio() float64 { return u.ratio }

type fakeResolver struct {
	byRole map[string][]plugin.Plugin
}

func (r fakeResolver) Resolve(string) (plugin.Plugin, bool)      { return nil, false }
func (r fakeResolver) ResolveByRole(role string) []plugin.Plugin { return r.byRole[role] }

type moduleHarness struct {
	m         *Module
	alerts    *alerts.Module
	collector *fakeCollector
	prober    *stubProber
	bus       *event.Bus
}

func newModuleHarness(t *testing.T, extra map[string][]plugin.Plugin) *moduleHarness {
	t.Helper()
	ctx := context.Background()

	am := alerts.New()
	if err := am.Init(ctx, plugin.Dependencies{Logger: zap.NewNop()}); err != nil {
		t.Fatalf("alerts Init: %v", err)
	}

	collector := healthyCollector()
	prober := &stubProber{after: 0}
	feed := &fakeFeed{fakeCollector: collector, stubProber: prober}
	byRole := map[string][]plugin.Plugin{
		roles.RoleSignalCollector: {feed},
		roles.RoleLatencyProber:   {feed},
		roles.RoleAlertSink:       {am},
	}
	for role, ps := range extra {
		byRole[role] = ps
	}

	bus := event.NewBus(zap.NewNop())
	m := New()
	err := m.Init(ctx, plugin.Dependencies{
		Logger:  zap.NewNop(),
		Bus:     bus,
		Plugins: fakeResolver{byRole: byRole},
	})
	if err != nil {
		t.Fatalf("quality Init: %v", err)
	}
	m.cfg.ProbePoll = time.Millisecond
	m.cfg.ProbeTimeout = 200 * time.Millisecond
	m.wire()
	return &moduleHarness{m: m, alerts: am, collector: collector, prober: prober, bus: bus}
}

func TestCycle_RaisesAccuracyAlertThenAutoResolves(t *testing.T) {
	h := newModuleHarness(t, nil)
	ctx := context.Background()

	// One outlier on three of five series: 12 of 15 comparisons agree.
	h.collector.setAPY("api", keyAave, 9)
	h.collector.setAPY("api", keyCurve, 9)
	h.collector.setAPY("api", keyComp, 9)

	snap, err := h.m.Cycle(ctx)
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if snap.Accuracy < 0.7999 || snap.Accuracy > 0.8001 {
		t.Fatalf("Accuracy = %v, want 0.80", snap.Accuracy)
	}

	active := h.alerts.Manager().Active()
	if len(active) != 1 {
		t.Fatalf("active alerts = %d, want 1", len(active))
	}
	a := active[0]
	if a.Title != TitleAccuracy || a.Severity != models.SeverityHigh || a.Type != models.AlertTypeDataQuality {
		t.Errorf("alert = %+v", a)
	}

	// A second degraded cycle inside the dedup window adds nothing.
	if _, err := h.m.Cycle(ctx); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if n := len(h.alerts.Manager().All()); n != 1 {
		t.Errorf("stored alerts = %d after repeat, want 1", n)
	}

	// Sources agree again; the data_quality rule auto-resolves.
	h.collector.setAPY("api", keyAave, 5)
	h.collector.setAPY("api", keyCurve, 5)
	h.collector.setAPY("api", keyComp, 5)
	if _, err := h.m.Cycle(ctx); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if n := len(h.alerts.Manager().Active()); n != 0 {
		t.Errorf("active alerts = %d after recovery, want 0", n)
	}
	got, ok := h.alerts.Manager().Get(a.ID)
	if !ok || !got.Resolved || got.ResolvedAt == nil {
		t.Errorf("alert after recovery = %+v", got)
	}
}

func TestCycle_HealthyRaisesNothing(t *testing.T) {
	h := newModuleHarness(t, nil)
	snap, err := h.m.Cycle(context.Background())
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if snap.Status != models.QualityExcellent {
		t.Errorf("Status = %s", snap.Status)
	}
	if n := len(h.alerts.Manager().All()); n != 0 {
		t.Errorf("alerts = %d, want 0", n)
	}
}

func TestCycle_AnomalyAlert(t *testing.T) {
	h := newModuleHarness(t, nil)
	h.m.cfg.AnomalyAlert = 1
	h.collector.current = append(h.collector.current, models.DataPoint{
		Source: "api", Protocol: "rug", Chain: "bsc", APY: 400, TVL: 1e6, Timestamp: time.Now(),
	})
	if _, err := h.m.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	var found *models.Alert
	for _, a := range h.alerts.Manager().Active() {
		if a.Title == TitleAnomalies {
			found = a
		}
	}
	if found == nil {
		t.Fatal("no anomaly alert raised")
	}
	if found.Type != models.AlertTypeYieldAnomaly || found.Severity != models.SeverityMedium {
		t.Errorf("anomaly alert = %+v", found)
	}
	if found.Details[AnomalyAPYOutOfRange] != 1 {
		t.Errorf("details = %v", found.Details)
	}
}

func TestCycle_CancelledMidProbe_RaisesNothing(t *testing.T) {
	h := newModuleHarness(t, nil)
	h.prober.after = -1
	h.m.cfg.ProbeTimeout = time.Minute
	h.m.wire()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	_, err := h.m.Cycle(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Cycle() error = %v, want context.Canceled", err)
	}
	if n := len(h.alerts.Manager().All()); n != 0 {
		t.Errorf("alerts = %d after a cancelled cycle, want 0", n)
	}
	if snap, ok := h.m.LatestSnapshot(); ok {
		t.Errorf("cancelled cycle recorded snapshot %+v", snap)
	}
}

func TestCycle_PublishesSnapshot(t *testing.T) {
	h := newModuleHarness(t, nil)
	got := make(chan models.QualitySnapshot, 1)
	h.bus.Subscribe(TopicSnapshot, func(_ context.Context, e plugin.Event) {
		if s, ok := e.Payload.(models.QualitySnapshot); ok {
			got <- s
		}
	})
	snap, _ := h.m.Cycle(context.Background())
	select {
	case s := <-got:
		if !s.Timestamp.Equal(snap.Timestamp) {
			t.Errorf("published %v, returned %v", s.Timestamp, snap.Timestamp)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("snapshot event not published")
	}
}

func TestCycle_BeforeStart(t *testing.T) {
	m := New()
	if err := m.Init(context.Background(), plugin.Dependencies{Logger: zap.NewNop()}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := m.Cycle(context.Background()); err == nil {
		t.Error("expected error before wiring")
	}
	if _, ok := m.LatestSnapshot(); ok {
		t.Error("no snapshot expected before the first cycle")
	}
}

func TestSLA_UsesUptimeSource(t *testing.T) {
	up := &fakeUptime{ratio: 0.98}
	h := newModuleHarness(t, map[string][]plugin.Plugin{roles.RoleUptimeSource: {up}})
	if _, ok := h.m.SLA(); ok {
		t.Error("SLA should be unavailable before the first cycle")
	}
	if _, err := h.m.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	r, ok := h.m.SLA()
	if !ok {
		t.Fatal("SLA unavailable after a cycle")
	}
	if r.Uptime != 0.98 || r.UptimeMet || r.OverallCompliant {
		t.Errorf("report = %+v, want uptime breach", r)
	}
	if !r.AccuracyMet || !r.LatencyMet {
		t.Errorf("report = %+v, want accuracy and latency met", r)
	}
}

func TestHandlers(t *testing.T) {
	h := newModuleHarness(t, nil)

	rec := httptest.NewRecorder()
	h.m.handleLatest(rec, httptest.NewRequest(http.MethodGet, "/api/v1/quality/latest", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("latest before cycle = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.m.handleEvaluate(rec, httptest.NewRequest(http.MethodPost, "/api/v1/quality/evaluate", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("evaluate = %d: %s", rec.Code, rec.Body.String())
	}
	var snap models.QualitySnapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Status != models.QualityExcellent {
		t.Errorf("evaluate status = %s", snap.Status)
	}

	rec = httptest.NewRecorder()
	h.m.handleLatest(rec, httptest.NewRequest(http.MethodGet, "/api/v1/quality/latest", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("latest = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.m.handleHistory(rec, httptest.NewRequest(http.MethodGet, "/api/v1/quality/history?limit=5", nil))
	var hist []models.QualitySnapshot
	if err := json.NewDecoder(rec.Body).Decode(&hist); err != nil || len(hist) != 1 {
		t.Errorf("history = %v, %v", hist, err)
	}

	rec = httptest.NewRecorder()
	h.m.handleHistory(rec, httptest.NewRequest(http.MethodGet, "/api/v1/quality/history?limit=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit = %d, want 400", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q", ct)
	}

	rec = httptest.NewRecorder()
	h.m.handleThresholds(rec, httptest.NewRequest(http.MethodGet, "/api/v1/quality/thresholds", nil))
	var th thresholdsResponse
	if err := json.NewDecoder(rec.Body).Decode(&th); err != nil {
		t.Fatalf("decode thresholds: %v", err)
	}
	if th.Tiers.Accuracy.Alert != 0.95 || th.Grades["accuracy"] != "excellent" {
		t.Errorf("thresholds = %+v", th)
	}

	rec = httptest.NewRecorder()
	h.m.handleSLA(rec, httptest.NewRequest(http.MethodGet, "/api/v1/quality/sla", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("sla = %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	h := newModuleHarness(t, nil)
	if got := h.m.Health(context.Background()).Status; got != "healthy" {
		t.Errorf("health before cycle = %q", got)
	}
	h.collector.histErr = context.DeadlineExceeded
	if _, err := h.m.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if got := h.m.Health(context.Background()).Status; got != "degraded" {
		t.Errorf("health with a failed measurement = %q, want degraded", got)
	}
}

func TestInit_ReadsConfig(t *testing.T) {
	v := viper.New()
	v.Set("plugins.quality.interval", "30s")
	v.Set("plugins.quality.tiers.accuracy.alert", 0.9)

	m := New()
	if err := m.Init(context.Background(), plugin.Dependencies{Logger: zap.NewNop(), Config: config.New(v).Sub("plugins.quality")}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if m.cfg.Interval != 30*time.Second {
		t.Errorf("Interval = %v, want 30s", m.cfg.Interval)
	}
	if m.cfg.Tiers.Accuracy.Alert != 0.9 || m.cfg.Tiers.Latency.Alert != 30 {
		t.Errorf("Tiers = %+v, want overridden accuracy and default latency", m.cfg.Tiers)
	}
}

func TestInit_RejectsBadConfig(t *testing.T) {
	v := viper.New()
	v.Set("plugins.quality.history_size", 0)
	err := New().Init(context.Background(), plugin.Dependencies{Logger: zap.NewNop(), Config: config.New(v).Sub("plugins.quality")})
	if err == nil {
		t.Error("expected error for history_size 0")
	}
}
