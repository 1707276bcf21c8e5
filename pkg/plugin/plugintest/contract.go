// Package plugintest provides shared contract tests that verify any
// plugin.Plugin implementation behaves correctly. Every module's test
// file should call TestPluginContract to ensure conformance.
package plugintest

import (
	"context"
	"testing"

	"github.com/HerbHall/qualitywatch/pkg/plugin"
	"go.uber.org/zap"
)

// Option adjusts how the contract suite builds a plugin's dependencies.
type Option func(*options)

type options struct {
	deps func(t *testing.T, name string) plugin.Dependencies
}

// WithDeps supplies the dependencies handed to Init. Modules that need a
// store or a resolver pass their own builder; the default is a named
// no-op logger and nothing else.
func WithDeps(fn func(t *testing.T, name string) plugin.Dependencies) Option {
	return func(o *options) { o.deps = fn }
}

// TestPluginContract runs a suite of behavioral contract tests against
// any plugin.Plugin implementation. Call this from each module's _test.go:
//
//	func TestContract(t *testing.T) {
//	    plugintest.TestPluginContract(t, func() plugin.Plugin { return alerts.New() })
//	}
func TestPluginContract(t *testing.T, factory func() plugin.Plugin, opts ...Option) {
	t.Helper()

	o := options{deps: defaultDeps}
	for _, opt := range opts {
		opt(&o)
	}

	t.Run("Info_returns_valid_metadata", func(t *testing.T) {
		p := factory()
		info := p.Info()
		if info.Name == "" {
			t.Error("Info().Name must not be empty")
		}
		if info.Version == "" {
			t.Error("Info().Version must not be empty")
		}
		if info.APIVersion < plugin.APIVersionMin {
			t.Errorf("Info().APIVersion = %d, below minimum %d", info.APIVersion, plugin.APIVersionMin)
		}
		for _, dep := range info.Dependencies {
			if dep == info.Name {
				t.Errorf("Info().Dependencies lists the plugin itself (%q)", dep)
			}
		}
	})

	t.Run("Init_succeeds_with_valid_deps", func(t *testing.T) {
		p := factory()
		if err := p.Init(context.Background(), o.deps(t, p.Info().Name)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
	})

	t.Run("Start_after_Init", func(t *testing.T) {
		p := factory()
		if err := p.Init(context.Background(), o.deps(t, p.Info().Name)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		if err := p.Start(context.Background()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if err := p.Stop(context.Background()); err != nil {
			t.Errorf("Stop() after Start error = %v", err)
		}
	})

	t.Run("Stop_without_Start_does_not_panic", func(t *testing.T) {
		p := factory()
		if err := p.Init(context.Background(), o.deps(t, p.Info().Name)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		if err := p.Stop(context.Background()); err != nil {
			t.Fatalf("Stop() without Start error = %v", err)
		}
	})

	t.Run("Health_reports_known_status", func(t *testing.T) {
		p := factory()
		hc, ok := p.(plugin.HealthChecker)
		if !ok {
			t.Skip("plugin does not report health")
		}
		if err := p.Init(context.Background(), o.deps(t, p.Info().Name)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		switch st := hc.Health(context.Background()); st.Status {
		case "healthy", "degraded", "unhealthy":
		default:
			t.Errorf("Health().Status = %q, want healthy, degraded or unhealthy", st.Status)
		}
	})

	t.Run("Info_is_idempotent", func(t *testing.T) {
		p := factory()
		a := p.Info()
		b := p.Info()
		if a.Name != b.Name || a.Version != b.Version {
			t.Error("Info() must return consistent results")
		}
	})
}

func defaultDeps(_ *testing.T, name string) plugin.Dependencies {
	return plugin.Dependencies{
		Logger: zap.NewNop().Named(name),
	}
}
