package registry

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/HerbHall/qualitywatch/pkg/plugin"
	"go.uber.org/zap"
)

// testPlugin is a minimal plugin recording lifecycle calls.
type testPlugin struct {
	info     plugin.PluginInfo
	initErr  error
	startErr error
	panicOn  string
	calls    *[]string
	mu       *sync.Mutex
}

func newTestPlugin(name string, deps ...string) *testPlugin {
	return &testPlugin{
		info: plugin.PluginInfo{
			Name:         name,
			Version:      "1.0.0",
			Dependencies: deps,
			APIVersion:   plugin.APIVersionCurrent,
		},
	}
}

func (p *testPlugin) record(phase string) {
	if p.panicOn == phase {
		panic(phase + " exploded")
	}
	if p.calls != nil {
		p.mu.Lock()
		*p.calls = append(*p.calls, phase+":"+p.info.Name)
		p.mu.Unlock()
	}
}

func (p *testPlugin) Info() plugin.PluginInfo { return p.info }
func (p *testPlugin) Init(_ context.Context, _ plugin.Dependencies) error {
	p.record("init")
	return p.initErr
}
func (p *testPlugin) Start(_ context.Context) error { p.record("start"); return p.startErr }
func (p *testPlugin) Stop(_ context.Context) error  { p.record("stop"); return nil }

type routedPlugin struct{ *testPlugin }

func (p routedPlugin) Routes() []plugin.Route {
	return []plugin.Route{{Method: http.MethodGet, Path: "/latest", Handler: func(http.ResponseWriter, *http.Request) {}}}
}

func (p routedPlugin) Health(context.Context) plugin.HealthStatus {
	return plugin.HealthStatus{Status: "healthy"}
}

func newRegistry(t *testing.T, plugins ...plugin.Plugin) *Registry {
	t.Helper()
	r := New(zap.NewNop())
	for _, p := range plugins {
		if err := r.Register(p); err != nil {
			t.Fatalf("Register(%s): %v", p.Info().Name, err)
		}
	}
	return r
}

func noDeps(string) plugin.Dependencies { return plugin.Dependencies{Logger: zap.NewNop()} }

func TestRegister_RejectsEmptyAndDuplicate(t *testing.T) {
	r := New(zap.NewNop())
	if err := r.Register(newTestPlugin("")); err == nil {
		t.Error("expected error for empty name")
	}
	if err := r.Register(newTestPlugin("alerts")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(newTestPlugin("alerts")); err == nil {
		t.Error("expected error for duplicate name")
	}
}

func TestValidate_OrdersByDependency(t *testing.T) {
	r := newRegistry(t,
		newTestPlugin("quality", "feed", "alerts"),
		newTestPlugin("alerts"),
		newTestPlugin("feed"),
		newTestPlugin("health", "alerts"),
	)
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	pos := make(map[string]int)
	for i, name := range r.order {
		pos[name] = i
	}
	if pos["alerts"] > pos["quality"] || pos["feed"] > pos["quality"] {
		t.Errorf("order %v: dependencies must come before quality", r.order)
	}
	if pos["alerts"] > pos["health"] {
		t.Errorf("order %v: alerts must come before health", r.order)
	}
}

func TestValidate_Cycle(t *testing.T) {
	r := newRegistry(t, newTestPlugin("a", "b"), newTestPlugin("b", "a"))
	err := r.Validate()
	if err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Fatalf("Validate error = %v, want cycle error", err)
	}
}

func TestValidate_MissingDependency(t *testing.T) {
	t.Run("optional plugin is disabled", func(t *testing.T) {
		r := newRegistry(t, newTestPlugin("perf", "alerts"))
		if err := r.Validate(); err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if !r.IsDisabled("perf") {
			t.Error("perf should be disabled")
		}
	})
	t.Run("required plugin fails validation", func(t *testing.T) {
		p := newTestPlugin("quality", "alerts")
		p.info.Required = true
		r := newRegistry(t, p)
		if err := r.Validate(); err == nil {
			t.Error("expected error for required plugin with missing dependency")
		}
	})
}

func TestValidate_CascadesAdministrativeDisable(t *testing.T) {
	r := newRegistry(t,
		newTestPlugin("alerts"),
		newTestPlugin("perf", "alerts"),
		newTestPlugin("statsink", "perf"),
	)
	r.Disable("alerts")
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	for _, name := range []string{"alerts", "perf", "statsink"} {
		if !r.IsDisabled(name) {
			t.Errorf("%s should be disabled", name)
		}
	}
	if len(r.All()) != 0 {
		t.Errorf("All() = %d plugins, want 0", len(r.All()))
	}
}

func TestAPIVersion_OutOfRange(t *testing.T) {
	for _, v := range []int{plugin.APIVersionMin - 1, plugin.APIVersionCurrent + 1} {
		p := newTestPlugin("old")
		p.info.APIVersion = v
		r := newRegistry(t, p)
		if err := r.Validate(); err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if !r.IsDisabled("old") {
			t.Errorf("APIVersion %d: plugin should be disabled", v)
		}
	}
}

func TestLifecycle_OrderAndReverseStop(t *testing.T) {
	var calls []string
	var mu sync.Mutex
	mk := func(name string, deps ...string) *testPlugin {
		p := newTestPlugin(name, deps...)
		p.calls, p.mu = &calls, &mu
		return p
	}
	r := newRegistry(t, mk("quality", "alerts"), mk("alerts"))
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := r.InitAll(context.Background(), noDeps); err != nil {
		t.Fatalf("InitAll: %v", err)
	}
	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	r.StopAll(context.Background())

	want := []string{
		"init:alerts", "init:quality",
		"start:alerts", "start:quality",
		"stop:quality", "stop:alerts",
	}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestInitAll_Failures(t *testing.T) {
	t.Run("optional failure disables plugin", func(t *testing.T) {
		p := newTestPlugin("statsink")
		p.initErr = errors.New("redis unreachable")
		r := newRegistry(t, p)
		_ = r.Validate()
		if err := r.InitAll(context.Background(), noDeps); err != nil {
			t.Fatalf("InitAll: %v", err)
		}
		if _, ok := r.Get("statsink"); ok {
			t.Error("Get should not return a disabled plugin")
		}
	})
	t.Run("required failure aborts", func(t *testing.T) {
		p := newTestPlugin("alerts")
		p.info.Required = true
		p.initErr = errors.New("bad config")
		r := newRegistry(t, p)
		_ = r.Validate()
		if err := r.InitAll(context.Background(), noDeps); err == nil {
			t.Error("expected error from required plugin")
		}
	})
	t.Run("panic is recovered", func(t *testing.T) {
		p := newTestPlugin("feed")
		p.panicOn = "init"
		r := newRegistry(t, p)
		_ = r.Validate()
		if err := r.InitAll(context.Background(), noDeps); err != nil {
			t.Fatalf("InitAll: %v", err)
		}
		if !r.IsDisabled("feed") {
			t.Error("panicking optional plugin should be disabled")
		}
	})
}

func TestStopAll_PanicDoesNotBlockOthers(t *testing.T) {
	var calls []string
	var mu sync.Mutex
	a := newTestPlugin("alerts")
	a.calls, a.mu = &calls, &mu
	q := newTestPlugin("quality", "alerts")
	q.panicOn = "stop"
	r := newRegistry(t, a, q)
	_ = r.Validate()

	r.StopAll(context.Background())
	if len(calls) != 1 || calls[0] != "stop:alerts" {
		t.Errorf("calls = %v, want [stop:alerts]", calls)
	}
}

func TestRoutes_Health_AndRoles(t *testing.T) {
	q := routedPlugin{newTestPlugin("quality")}
	a := newTestPlugin("alerts")
	a.info.Roles = []string{"alert_sink"}
	r := newRegistry(t, q, a)
	_ = r.Validate()

	routes := r.AllRoutes()
	if len(routes["quality"]) != 1 {
		t.Errorf("quality routes = %d, want 1", len(routes["quality"]))
	}
	if _, ok := routes["alerts"]; ok {
		t.Error("alerts has no routes and should be absent")
	}

	health := r.Health(context.Background())
	if health["quality"].Status != "healthy" {
		t.Errorf("quality health = %+v", health["quality"])
	}

	sinks := r.ResolveByRole("alert_sink")
	if len(sinks) != 1 || sinks[0].Info().Name != "alerts" {
		t.Errorf("ResolveByRole(alert_sink) = %v", sinks)
	}
	if _, ok := r.Resolve("quality"); !ok {
		t.Error("Resolve(quality) should succeed")
	}
}
