package alerts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/HerbHall/qualitywatch/internal/event"
	"github.com/HerbHall/qualitywatch/pkg/models"
	"github.com/HerbHall/qualitywatch/pkg/plugin"
	"go.uber.org/zap"
)

// fakeNotifier records every alert it is asked to send.
type fakeNotifier struct {
	name       string
	configured bool
	err        error

	mu   sync.Mutex
	sent []*models.Alert
}

func newFake(name string) *fakeNotifier {
	return &fakeNotifier{name: name, configured: true}
}

func (f *fakeNotifier) Name() string     { return f.name }
func (f *fakeNotifier) Configured() bool { return f.configured }
func (f *fakeNotifier) Send(_ context.Context, a *models.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, a)
	return f.err
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// testClock is a settable clock for the manager.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type harness struct {
	m         *Manager
	clock     *testClock
	notifiers map[string]*fakeNotifier
}

func newHarness(t *testing.T, cfg AlertsConfig) *harness {
	t.Helper()
	fakes := map[string]*fakeNotifier{
		ChannelPagerDuty: newFake(ChannelPagerDuty),
		ChannelChat:      newFake(ChannelChat),
		ChannelEmail:     newFake(ChannelEmail),
		ChannelWebhook:   newFake(ChannelWebhook),
	}
	notifiers := make([]Notifier, 0, len(fakes))
	for _, f := range fakes {
		notifiers = append(notifiers, f)
	}
	d := NewDispatcher(notifiers, 0, time.Second, zap.NewNop())
	m := NewManager(cfg, NewRouter(nil), d, nil, zap.NewNop())
	clock := &testClock{t: time.Unix(1_700_000_000, 0)}
	m.now = clock.now
	return &harness{m: m, clock: clock, notifiers: fakes}
}

func accuracyRequest() models.AlertRequest {
	return models.AlertRequest{
		Type:     models.AlertTypeDataQuality,
		Severity: models.SeverityHigh,
		Title:    "Data Accuracy Degraded",
		Message:  "Data accuracy 80.00% is below threshold 95.00%",
		Details:  map[string]any{"metric": "accuracy", "value": 0.8, "threshold": 0.95},
	}
}

func TestCreate_DeduplicatesWithinWindow(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	ctx := context.Background()

	first, err := h.m.Create(ctx, accuracyRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.Deduplicated || first.Alert == nil {
		t.Fatalf("first Create = %+v, want a new alert", first)
	}

	h.clock.advance(10 * time.Second)
	second, err := h.m.Create(ctx, accuracyRequest())
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if !second.Deduplicated || second.Alert != nil {
		t.Errorf("second Create = %+v, want deduplicated", second)
	}
	if got := len(h.m.All()); got != 1 {
		t.Errorf("store size = %d, want 1", got)
	}
	if got := h.notifiers[ChannelChat].count(); got != 1 {
		t.Errorf("chat sends = %d, want 1 (suppressed request must not dispatch)", got)
	}

	h.clock.advance(300 * time.Second)
	third, err := h.m.Create(ctx, accuracyRequest())
	if err != nil {
		t.Fatalf("third Create: %v", err)
	}
	if third.Deduplicated {
		t.Error("third Create after the window should create a new alert")
	}
	if third.Alert.ID == first.Alert.ID {
		t.Error("third alert must have a fresh id")
	}
	if got := len(h.m.All()); got != 2 {
		t.Errorf("store size = %d, want 2", got)
	}
}

func TestCreate_FingerprintIsTypeAndTitle(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	ctx := context.Background()

	req := accuracyRequest()
	if _, err := h.m.Create(ctx, req); err != nil {
		t.Fatal(err)
	}
	req.Title = "Data Completeness Low"
	out, err := h.m.Create(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if out.Deduplicated {
		t.Error("different title must not be deduplicated")
	}
	req.Type = models.AlertTypePerformance
	req.Title = "Data Accuracy Degraded"
	out, err = h.m.Create(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if out.Deduplicated {
		t.Error("different type must not be deduplicated")
	}
}

func TestCreate_ConfiguredDedupWindow_AppliesToEveryType(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DedupWindow = 60 * time.Second
	h := newHarness(t, cfg)
	ctx := context.Background()

	if _, err := h.m.Create(ctx, accuracyRequest()); err != nil {
		t.Fatal(err)
	}
	h.clock.advance(120 * time.Second)
	out, err := h.m.Create(ctx, accuracyRequest())
	if err != nil {
		t.Fatal(err)
	}
	if out.Deduplicated || out.Alert == nil {
		t.Errorf("Create after 120s with a 60s dedup window = %+v, want a new alert", out)
	}
	if got := len(h.m.All()); got != 2 {
		t.Errorf("store size = %d, want 2", got)
	}
}

func TestCreate_RuleCooldown_DoesNotShortenWindow(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	ctx := context.Background()
	req := models.AlertRequest{Type: "liquidity_crisis", Severity: models.SeverityCritical, Title: "Pool Drained"}

	if _, err := h.m.Create(ctx, req); err != nil {
		t.Fatal(err)
	}
	h.clock.advance(90 * time.Second)
	out, err := h.m.Create(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Deduplicated {
		t.Error("second alert inside the 300s dedup window should be deduplicated")
	}
}

func TestCreate_RejectsInvalidRequests(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	tests := []struct {
		name string
		req  models.AlertRequest
		want error
	}{
		{"missing type", models.AlertRequest{Severity: models.SeverityLow, Title: "x"}, ErrInvalidRequest},
		{"missing title", models.AlertRequest{Type: "t", Severity: models.SeverityLow}, ErrInvalidRequest},
		{"zero severity", models.AlertRequest{Type: "t", Title: "x"}, models.ErrInvalidSeverity},
		{"out of range severity", models.AlertRequest{Type: "t", Title: "x", Severity: 9}, models.ErrInvalidSeverity},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.m.Create(context.Background(), tc.req)
			if !errors.Is(err, tc.want) {
				t.Errorf("Create error = %v, want %v", err, tc.want)
			}
		})
	}
	if len(h.m.All()) != 0 {
		t.Error("invalid requests must not be stored")
	}
}

func TestCreate_RoutesBySeverity(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	out, err := h.m.Create(context.Background(), accuracyRequest())
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Channels) != 2 || out.Channels[0] != ChannelChat || out.Channels[1] != ChannelEmail {
		t.Errorf("channels = %v, want [chat email]", out.Channels)
	}
	for name, want := range map[string]int{ChannelChat: 1, ChannelEmail: 1, ChannelPagerDuty: 0, ChannelWebhook: 0} {
		if got := h.notifiers[name].count(); got != want {
			t.Errorf("%s sends = %d, want %d", name, got, want)
		}
	}
}

func TestCreate_ChannelFailureIsIsolated(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.notifiers[ChannelChat].err = errors.New("connection refused")

	out, err := h.m.Create(context.Background(), accuracyRequest())
	if err != nil {
		t.Fatalf("Create must not fail on channel error: %v", err)
	}
	if out.Alert == nil {
		t.Fatal("alert should be stored despite channel failure")
	}
	if h.notifiers[ChannelEmail].count() != 1 {
		t.Error("email delivery should proceed when chat fails")
	}
	var chat, email DeliveryResult
	for _, d := range out.Deliveries {
		switch d.Channel {
		case ChannelChat:
			chat = d
		case ChannelEmail:
			email = d
		}
	}
	if chat.Delivered || chat.Error == "" {
		t.Errorf("chat delivery = %+v, want failure", chat)
	}
	if !email.Delivered {
		t.Errorf("email delivery = %+v, want delivered", email)
	}
}

func TestCreate_UnconfiguredChannelIsSkipped(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.notifiers[ChannelEmail].configured = false

	out, err := h.m.Create(context.Background(), accuracyRequest())
	if err != nil {
		t.Fatal(err)
	}
	if h.notifiers[ChannelEmail].count() != 0 {
		t.Error("unconfigured channel must not be called")
	}
	for _, d := range out.Deliveries {
		if d.Channel == ChannelEmail && (!d.Skipped || d.Error != "") {
			t.Errorf("email delivery = %+v, want skipped without error", d)
		}
	}
}

func TestAcknowledge(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	ctx := context.Background()
	out, _ := h.m.Create(ctx, accuracyRequest())

	if h.m.Acknowledge(ctx, "missing") {
		t.Error("Acknowledge(unknown) = true, want false")
	}
	for i := 0; i < 2; i++ {
		if !h.m.Acknowledge(ctx, out.Alert.ID) {
			t.Fatalf("Acknowledge call %d = false", i+1)
		}
	}
	a, _ := h.m.Get(out.Alert.ID)
	if !a.Acknowledged || a.AcknowledgedAt == nil {
		t.Errorf("alert = %+v, want acknowledged", a)
	}
	if a.Resolved {
		t.Error("acknowledging must not resolve")
	}
	if len(h.m.Active()) != 1 {
		t.Error("acknowledged alert is still active")
	}
}

func TestResolve_IsIdempotent(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	ctx := context.Background()
	out, _ := h.m.Create(ctx, accuracyRequest())

	h.clock.advance(90 * time.Second)
	if !h.m.Resolve(ctx, out.Alert.ID) {
		t.Fatal("first Resolve = false")
	}
	first, _ := h.m.Get(out.Alert.ID)

	h.clock.advance(30 * time.Second)
	if !h.m.Resolve(ctx, out.Alert.ID) {
		t.Fatal("second Resolve = false")
	}
	second, _ := h.m.Get(out.Alert.ID)
	if !second.Resolved || !second.ResolvedAt.Equal(*first.ResolvedAt) {
		t.Errorf("second resolve changed state: first=%v second=%v", first.ResolvedAt, second.ResolvedAt)
	}

	for i := 0; i < 2; i++ {
		if h.m.Resolve(ctx, "unknown") {
			t.Errorf("Resolve(unknown) call %d = true, want false", i+1)
		}
	}
	if len(h.m.Active()) != 0 {
		t.Error("resolved alert must not be active")
	}

	// A resolved alert is immutable.
	h.m.Acknowledge(ctx, out.Alert.ID)
	after, _ := h.m.Get(out.Alert.ID)
	if after.Acknowledged {
		t.Error("acknowledging a resolved alert must not change it")
	}
}

func TestStatistics_MTTR(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	ctx := context.Background()

	if got := h.m.Statistics(); got.Total != 0 || got.MTTRSeconds != 0 {
		t.Errorf("empty statistics = %+v", got)
	}

	a, _ := h.m.Create(ctx, models.AlertRequest{Type: "performance", Severity: models.SeverityMedium, Title: "High CPU"})
	b, _ := h.m.Create(ctx, models.AlertRequest{Type: "performance", Severity: models.SeverityHigh, Title: "High Disk"})
	_, _ = h.m.Create(ctx, models.AlertRequest{Type: models.AlertTypeSystemHealth, Severity: models.SeverityCritical, Title: "System Health Check Failed"})

	h.clock.advance(60 * time.Second)
	h.m.Resolve(ctx, a.Alert.ID)
	h.clock.advance(120 * time.Second)
	h.m.Resolve(ctx, b.Alert.ID)

	stats := h.m.Statistics()
	if stats.Total != 3 || stats.Active != 1 || stats.Resolved != 2 {
		t.Errorf("counts = %+v", stats)
	}
	if stats.MTTRSeconds != 120 {
		t.Errorf("MTTRSeconds = %v, want 120 (mean of 60 and 180)", stats.MTTRSeconds)
	}
	if stats.BySeverity["CRITICAL"] != 1 || stats.ByType[models.AlertTypeSystemHealth] != 1 {
		t.Errorf("breakdowns = %v %v", stats.BySeverity, stats.ByType)
	}
}

func TestRetentionSweep(t *testing.T) {
	cfg := DefaultConfig()
	h := newHarness(t, cfg)
	ctx := context.Background()
	ret := cfg.RetentionPeriod

	open, _ := h.m.Create(ctx, accuracyRequest())
	resolved, _ := h.m.Create(ctx, models.AlertRequest{Type: "performance", Severity: models.SeverityLow, Title: "High Memory"})
	h.m.Resolve(ctx, resolved.Alert.ID)

	h.clock.advance(ret - time.Second)
	if purged, _ := h.m.RetentionSweep(ctx); purged != 0 {
		t.Errorf("purged %d at T+retention-1, want 0", purged)
	}
	if _, ok := h.m.Get(open.Alert.ID); !ok {
		t.Error("alert should be present at T+retention-1")
	}

	h.clock.advance(2 * time.Second)
	purged, compacted := h.m.RetentionSweep(ctx)
	if purged != 2 {
		t.Errorf("purged %d at T+retention+1, want 2 (state does not matter)", purged)
	}
	if compacted != 2 {
		t.Errorf("compacted %d fingerprints, want 2", compacted)
	}
	if _, ok := h.m.Get(open.Alert.ID); ok {
		t.Error("alert should be absent at T+retention+1")
	}
	if len(h.m.Active()) != 0 {
		t.Error("active list should be empty after purge")
	}
}

func TestRetentionSweep_KeepsLiveFingerprints(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	ctx := context.Background()
	_, _ = h.m.Create(ctx, accuracyRequest())

	h.clock.advance(10 * time.Second)
	if _, compacted := h.m.RetentionSweep(ctx); compacted != 0 {
		t.Errorf("compacted %d, want 0 while inside dedup window", compacted)
	}
	out, _ := h.m.Create(ctx, accuracyRequest())
	if !out.Deduplicated {
		t.Error("fingerprint inside its window must survive compaction")
	}
}

func TestEscalate(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	ctx := context.Background()

	stale, _ := h.m.Create(ctx, models.AlertRequest{Type: models.AlertTypeDataQuality, Severity: models.SeverityMedium, Title: "Data Latency High"})
	acked, _ := h.m.Create(ctx, accuracyRequest())
	h.m.Acknowledge(ctx, acked.Alert.ID)
	untyped, _ := h.m.Create(ctx, models.AlertRequest{Type: "custom", Severity: models.SeverityLow, Title: "Custom"})

	h.clock.advance(1799 * time.Second)
	if n := h.m.Escalate(ctx); n != 0 {
		t.Errorf("escalated %d before window, want 0", n)
	}

	h.clock.advance(time.Second)
	if n := h.m.Escalate(ctx); n != 1 {
		t.Errorf("escalated %d, want 1", n)
	}
	a, _ := h.m.Get(stale.Alert.ID)
	if a.Severity != models.SeverityHigh || !a.Escalated {
		t.Errorf("stale alert = %v escalated=%v, want HIGH escalated", a.Severity, a.Escalated)
	}
	if got, _ := h.m.Get(untyped.Alert.ID); got.Escalated {
		t.Error("alert without a rule must not escalate")
	}
	if got, _ := h.m.Get(acked.Alert.ID); got.Escalated {
		t.Error("acknowledged alert must not escalate")
	}

	if n := h.m.Escalate(ctx); n != 0 {
		t.Errorf("second Escalate = %d, want 0 (escalates once)", n)
	}
}

func TestAutoResolve(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	ctx := context.Background()

	_, _ = h.m.Create(ctx, accuracyRequest())
	_, _ = h.m.Create(ctx, models.AlertRequest{Type: models.AlertTypeSystemError, Severity: models.SeverityHigh, Title: "Evaluation Failed"})

	if n := h.m.AutoResolve(ctx, models.AlertTypeDataQuality, "Data Accuracy Degraded"); n != 1 {
		t.Errorf("AutoResolve(data_quality) = %d, want 1", n)
	}
	if n := h.m.AutoResolve(ctx, models.AlertTypeSystemError, "Evaluation Failed"); n != 0 {
		t.Errorf("AutoResolve(system_error) = %d, want 0 (rule disallows)", n)
	}
	if len(h.m.Active()) != 1 {
		t.Errorf("active = %d, want 1", len(h.m.Active()))
	}
}

func TestCreate_PublishesEvents(t *testing.T) {
	bus := event.NewBus(zap.NewNop())
	var mu sync.Mutex
	var topics []string
	bus.SubscribePrefix("alerts.", func(_ context.Context, e plugin.Event) {
		mu.Lock()
		topics = append(topics, e.Topic)
		mu.Unlock()
	})

	h := newHarness(t, DefaultConfig())
	h.m.bus = bus
	ctx := context.Background()
	out, _ := h.m.Create(ctx, accuracyRequest())
	h.m.Acknowledge(ctx, out.Alert.ID)
	h.m.Resolve(ctx, out.Alert.ID)

	mu.Lock()
	defer mu.Unlock()
	want := []string{TopicAlertCreated, TopicAlertAcknowledged, TopicAlertResolved}
	if len(topics) != len(want) {
		t.Fatalf("topics = %v, want %v", topics, want)
	}
	for i := range want {
		if topics[i] != want[i] {
			t.Errorf("topics[%d] = %q, want %q", i, topics[i], want[i])
		}
	}
}

func TestAlertIDs_AreUniqueWithinOneSecond(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	ctx := context.Background()
	seen := make(map[string]bool)
	for _, title := range []string{"A", "B", "C"} {
		out, err := h.m.Create(ctx, models.AlertRequest{Type: "custom", Severity: models.SeverityLow, Title: title, Message: "same"})
		if err != nil {
			t.Fatal(err)
		}
		if seen[out.Alert.ID] {
			t.Fatalf("duplicate id %s", out.Alert.ID)
		}
		seen[out.Alert.ID] = true
	}
}

func TestConcurrentCreate_SingleAlertPerFingerprint(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = h.m.Create(ctx, accuracyRequest())
		}()
	}
	wg.Wait()
	if got := len(h.m.All()); got != 1 {
		t.Errorf("store size = %d, want 1", got)
	}
}
