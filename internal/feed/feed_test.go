package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/HerbHall/qualitywatch/internal/store"
	"github.com/HerbHall/qualitywatch/pkg/models"
	"github.com/HerbHall/qualitywatch/pkg/plugin"
	"go.uber.org/zap"
)

var t0 = time.Unix(1_700_000_000, 0).UTC()

func newTestModule(t *testing.T) *Module {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "feed.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	m := New()
	m.now = func() time.Time { return t0 }
	if err := m.Init(context.Background(), plugin.Dependencies{Logger: zap.NewNop(), Store: s}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return m
}

func point(source, protocol string, apy, tvl float64, at time.Time) models.DataPoint {
	return models.DataPoint{Source: source, Protocol: protocol, Chain: "ethereum", APY: apy, TVL: tvl, Timestamp: at}
}

func TestInit_RequiresStore(t *testing.T) {
	if err := New().Init(context.Background(), plugin.Dependencies{Logger: zap.NewNop()}); err == nil {
		t.Error("expected error without a store")
	}
}

func TestParseSeriesKey(t *testing.T) {
	tests := []struct {
		in      string
		want    models.SeriesKey
		wantErr bool
	}{
		{"aave/ethereum", models.SeriesKey{Protocol: "aave", Chain: "ethereum"}, false},
		{" curve/arbitrum ", models.SeriesKey{Protocol: "curve", Chain: "arbitrum"}, false},
		{"aave", models.SeriesKey{}, true},
		{"/ethereum", models.SeriesKey{}, true},
		{"aave/", models.SeriesKey{}, true},
	}
	for _, tc := range tests {
		got, err := ParseSeriesKey(tc.in)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Errorf("ParseSeriesKey(%q) = %v, %v", tc.in, got, err)
		}
	}
}

func TestIngest_And_FetchFromSource(t *testing.T) {
	m := newTestModule(t)
	ctx := context.Background()

	n, err := m.Ingest(ctx, []models.DataPoint{
		point("chainlink", "aave", 4.0, 1e6, t0.Add(-2*time.Minute)),
		point("chainlink", "aave", 4.1, 1e6, t0.Add(-time.Minute)),
		point("api", "aave", 4.2, 1e6, t0.Add(-time.Minute)),
		point("chainlink", "curve", 3.0, 2e6, t0.Add(-time.Hour)), // outside freshness
	})
	if err != nil || n != 4 {
		t.Fatalf("Ingest = %d, %v", n, err)
	}

	got, err := m.FetchFromSource(ctx, "chainlink")
	if err != nil {
		t.Fatalf("FetchFromSource: %v", err)
	}
	aave := models.SeriesKey{Protocol: "aave", Chain: "ethereum"}
	if len(got) != 1 || got[aave].APY != 4.1 {
		t.Errorf("chainlink = %v, want latest aave only", got)
	}

	if _, err := m.FetchFromSource(ctx, "oracle9"); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("unknown source error = %v", err)
	}

	current, err := m.CurrentDataPoints(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(current) != 2 {
		t.Errorf("current = %d points, want 2 (aave from chainlink and api)", len(current))
	}

	hist, err := m.RecentHistory(ctx, 2*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 4 {
		t.Errorf("history = %d points, want 4", len(hist))
	}
}

func TestIngest_Validation(t *testing.T) {
	m := newTestModule(t)
	if _, err := m.Ingest(context.Background(), []models.DataPoint{{Protocol: "aave", Chain: "ethereum"}}); err == nil {
		t.Error("expected error for missing source")
	}
	m.cfg.MaxBatch = 1
	if _, err := m.Ingest(context.Background(), []models.DataPoint{point("api", "a", 1, 1, t0), point("api", "b", 1, 1, t0)}); err == nil {
		t.Error("expected error for oversized batch")
	}
}

func TestIngest_DefaultsTimestamp(t *testing.T) {
	m := newTestModule(t)
	ctx := context.Background()
	if _, err := m.Ingest(ctx, []models.DataPoint{{Source: "api", Protocol: "aave", Chain: "ethereum", APY: 1, TVL: 1}}); err != nil {
		t.Fatal(err)
	}
	pts, _ := m.CurrentDataPoints(ctx)
	if len(pts) != 1 || !pts[0].Timestamp.Equal(t0) {
		t.Errorf("points = %+v, want timestamp %v", pts, t0)
	}
}

func TestExpectedKeys(t *testing.T) {
	m := newTestModule(t)
	ctx := context.Background()

	keys := []models.SeriesKey{{Protocol: "curve", Chain: "ethereum"}, {Protocol: "aave", Chain: "ethereum"}, {Protocol: "aave", Chain: "ethereum"}}
	if err := m.SetExpectedKeys(ctx, keys); err != nil {
		t.Fatal(err)
	}
	got, err := m.ExpectedKeys(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Protocol != "aave" {
		t.Errorf("ExpectedKeys = %v, want 2 sorted unique keys", got)
	}
	if err := m.SetExpectedKeys(ctx, []models.SeriesKey{{Protocol: "aave"}}); err == nil {
		t.Error("expected error for key without chain")
	}
}

func TestSeedExpected_OnlyWhenEmpty(t *testing.T) {
	m := newTestModule(t)
	ctx := context.Background()
	m.cfg.Expected = []string{"aave/ethereum", "curve/polygon"}
	if err := m.seedExpected(ctx); err != nil {
		t.Fatal(err)
	}
	keys, _ := m.ExpectedKeys(ctx)
	if len(keys) != 2 {
		t.Fatalf("seeded %d keys, want 2", len(keys))
	}

	_ = m.SetExpectedKeys(ctx, []models.SeriesKey{{Protocol: "lido", Chain: "ethereum"}})
	if err := m.seedExpected(ctx); err != nil {
		t.Fatal(err)
	}
	keys, _ = m.ExpectedKeys(ctx)
	if len(keys) != 1 || keys[0].Protocol != "lido" {
		t.Errorf("seed overwrote stored manifest: %v", keys)
	}
}

func TestProbe_Loopback(t *testing.T) {
	m := newTestModule(t)
	ctx := context.Background()

	id, err := m.InjectProbe(ctx)
	if err != nil {
		t.Fatalf("InjectProbe: %v", err)
	}
	ok, err := m.ProbeObserved(ctx, id)
	if err != nil || !ok {
		t.Errorf("ProbeObserved = %v, %v; want observed", ok, err)
	}
	if _, err := m.ProbeObserved(ctx, "missing"); err == nil {
		t.Error("expected error for unknown probe")
	}
}

func TestProbe_ObservedThroughIngest(t *testing.T) {
	m := newTestModule(t)
	ctx := context.Background()

	id, _ := m.InjectProbe(ctx)
	at, found, err := m.store.ProbeObservedAt(ctx, id)
	if err != nil || !found || at != nil {
		t.Fatalf("fresh probe = %v %v %v, want in flight", at, found, err)
	}

	n, err := m.Ingest(ctx, []models.DataPoint{{Source: ProbeSource, ProbeID: id}})
	if err != nil || n != 0 {
		t.Fatalf("Ingest(probe) = %d, %v; probe points are not stored", n, err)
	}
	at, _, _ = m.store.ProbeObservedAt(ctx, id)
	if at == nil || !at.Equal(t0) {
		t.Errorf("observed at = %v, want %v", at, t0)
	}
}

func TestPurge(t *testing.T) {
	m := newTestModule(t)
	ctx := context.Background()
	_, _ = m.Ingest(ctx, []models.DataPoint{
		point("api", "aave", 1, 1, t0.Add(-8*24*time.Hour)),
		point("api", "aave", 1, 1, t0.Add(-time.Hour)),
	})
	if err := m.purge(ctx); err != nil {
		t.Fatal(err)
	}
	hist, _ := m.RecentHistory(ctx, 30*24*time.Hour)
	if len(hist) != 1 {
		t.Errorf("history after purge = %d, want 1", len(hist))
	}
}

func TestDecodePoints(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int
		wantErr bool
	}{
		{"single", `{"source":"api","protocol":"aave","chain":"ethereum","apy":4}`, 1, false},
		{"batch", ` [{"source":"api"},{"source":"onchain"}]`, 2, false},
		{"empty", `  `, 0, true},
		{"garbage", `not json`, 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodePoints([]byte(tc.in))
			if (err != nil) != tc.wantErr || len(got) != tc.want {
				t.Errorf("decodePoints = %d points, err %v", len(got), err)
			}
		})
	}
}

func TestHandlers(t *testing.T) {
	m := newTestModule(t)
	mux := http.NewServeMux()
	for _, r := range m.Routes() {
		mux.HandleFunc(r.Method+" /api/v1/feed"+r.Path, r.Handler)
	}
	serve := func(method, path, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
		return rec
	}

	rec := serve("POST", "/api/v1/feed/points", `{"points":[{"source":"api","protocol":"aave","chain":"ethereum","apy":4.2,"tvl":1000000}]}`)
	if rec.Code != http.StatusAccepted || !strings.Contains(rec.Body.String(), `"accepted":1`) {
		t.Errorf("ingest = %d %s", rec.Code, rec.Body)
	}
	if rec := serve("POST", "/api/v1/feed/points", `{"points":[{"protocol":"aave"}]}`); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid ingest = %d, want 400", rec.Code)
	}

	rec = serve("PUT", "/api/v1/feed/expected", `{"keys":[{"protocol":"aave","chain":"ethereum"}]}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"protocol":"aave"`) {
		t.Errorf("put expected = %d %s", rec.Code, rec.Body)
	}
	if rec := serve("GET", "/api/v1/feed/points", ""); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "aave") {
		t.Errorf("current = %d %s", rec.Code, rec.Body)
	}
	if rec := serve("GET", "/api/v1/feed/sources", ""); !strings.Contains(rec.Body.String(), "chainlink") {
		t.Errorf("sources = %s", rec.Body)
	}
}
