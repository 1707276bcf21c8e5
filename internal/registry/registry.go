// Package registry manages module lifecycle: registration, dependency
// resolution, initialization, and shutdown of QualityWatch plugins.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/HerbHall/qualitywatch/pkg/plugin"
	"go.uber.org/zap"
)

// Registry manages the lifecycle of all registered plugins.
type Registry struct {
	mu       sync.RWMutex
	plugins  map[string]plugin.Plugin
	infos    map[string]plugin.PluginInfo
	order    []string // topological order after Validate
	disabled map[string]bool
	logger   *zap.Logger
}

// New creates a new plugin registry.
func New(logger *zap.Logger) *Registry {
	return &Registry{
		plugins:  make(map[string]plugin.Plugin),
		infos:    make(map[string]plugin.PluginInfo),
		disabled: make(map[string]bool),
		logger:   logger,
	}
}

// Register adds a plugin to the registry. Must be called before Validate.
func (r *Registry) Register(p plugin.Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	info := p.Info()
	if info.Name == "" {
		return fmt.Errorf("plugin has empty name")
	}
	if _, exists := r.plugins[info.Name]; exists {
		return fmt.Errorf("plugin %q already registered", info.Name)
	}

	r.plugins[info.Name] = p
	r.infos[info.Name] = info
	r.logger.Debug("plugin registered",
		zap.String("name", info.Name),
		zap.String("version", info.Version),
	)
	return nil
}

// Disable marks a plugin as administratively disabled (for example through
// plugins.<name>.enabled=false). Dependents are cascaded off by Validate.
func (r *Registry) Disable(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plugins[name]; ok {
		r.disabled[name] = true
	}
}

// Validate checks API versions and dependencies, cascades disables through
// dependents and computes the start order.
func (r *Registry) Validate() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range r.sortedNames() {
		info := r.infos[name]
		if err := checkAPIVersion(info); err != nil {
			if err := r.disableLocked(name, "api version", err); err != nil {
				return err
			}
		}
	}

	// Repeat until stable so a disable propagates through chains of dependents.
	for changed := true; changed; {
		changed = false
		for _, name := range r.sortedNames() {
			if r.disabled[name] {
				continue
			}
			for _, dep := range r.infos[name].Dependencies {
				var reason error
				if _, ok := r.plugins[dep]; !ok {
					reason = fmt.Errorf("plugin %q depends on %q which is not registered", name, dep)
				} else if r.disabled[dep] {
					reason = fmt.Errorf("plugin %q depends on %q which is disabled", name, dep)
				}
				if reason == nil {
					continue
				}
				if err := r.disableLocked(name, "dependency", reason); err != nil {
					return err
				}
				changed = true
				break
			}
		}
	}

	order, err := r.topologicalSort()
	if err != nil {
		return err
	}
	r.order = order

	r.logger.Info("plugin dependency resolution complete",
		zap.Strings("start_order", r.order),
		zap.Int("disabled", len(r.disabled)),
	)
	return nil
}

func (r *Registry) disableLocked(name, why string, reason error) error {
	if r.infos[name].Required {
		return reason
	}
	r.logger.Warn("disabling plugin",
		zap.String("name", name),
		zap.String("reason", why),
		zap.Error(reason),
	)
	r.disabled[name] = true
	return nil
}

// InitAll initializes all active plugins in dependency order.
func (r *Registry) InitAll(ctx context.Context, depsFn func(name string) plugin.Dependencies) error {
	return r.each(false, "initialize", func(p plugin.Plugin) error {
		return p.Init(ctx, depsFn(p.Info().Name))
	})
}

// StartAll starts all initialized plugins in dependency order.
func (r *Registry) StartAll(ctx context.Context) error {
	return r.each(false, "start", func(p plugin.Plugin) error {
		return p.Start(ctx)
	})
}

// StopAll stops all active plugins in reverse dependency order. A failing
// or panicking plugin does not prevent the rest from stopping.
func (r *Registry) StopAll(ctx context.Context) {
	_ = r.each(true, "stop", func(p plugin.Plugin) error {
		return p.Stop(ctx)
	})
}

// each runs fn for every active plugin. Failures of optional plugins disable
// them; a required plugin's failure aborts the walk, except when stopping.
func (r *Registry) each(reverse bool, verb string, fn func(plugin.Plugin) error) error {
	r.mu.Lock()
	order := make([]string, len(r.order))
	copy(order, r.order)
	r.mu.Unlock()

	if reverse {
		for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
	}

	for _, name := range order {
		r.mu.RLock()
		p, skip, info := r.plugins[name], r.disabled[name], r.infos[name]
		r.mu.RUnlock()
		if skip {
			continue
		}

		r.logger.Info(verb+" plugin", zap.String("name", name))
		err := safeRun(func() error { return fn(p) })
		if err == nil {
			continue
		}
		if verb == "stop" {
			r.logger.Error("failed to stop plugin", zap.String("name", name), zap.Error(err))
			continue
		}
		if info.Required {
			return fmt.Errorf("required plugin %q failed to %s: %w", name, verb, err)
		}
		r.logger.Error("optional plugin failed, disabling",
			zap.String("name", name),
			zap.String("phase", verb),
			zap.Error(err),
		)
		r.mu.Lock()
		r.disabled[name] = true
		r.mu.Unlock()
	}
	return nil
}

func safeRun(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn()
}

// Get returns an active plugin by name.
func (r *Registry) Get(name string) (plugin.Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	if !ok || r.disabled[name] {
		return nil, false
	}
	return p, true
}

// All returns all active plugins in dependency order.
func (r *Registry) All() []plugin.Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]plugin.Plugin, 0, len(r.order))
	for _, name := range r.order {
		if !r.disabled[name] {
			result = append(result, r.plugins[name])
		}
	}
	return result
}

// AllRoutes returns HTTP routes keyed by plugin name for every active
// plugin implementing plugin.HTTPProvider.
func (r *Registry) AllRoutes() map[string][]plugin.Route {
	routes := make(map[string][]plugin.Route)
	for _, p := range r.All() {
		if hp, ok := p.(plugin.HTTPProvider); ok {
			if pr := hp.Routes(); len(pr) > 0 {
				routes[p.Info().Name] = pr
			}
		}
	}
	return routes
}

// Health collects the self-reported health of every active plugin that
// implements plugin.HealthChecker.
func (r *Registry) Health(ctx context.Context) map[string]plugin.HealthStatus {
	out := make(map[string]plugin.HealthStatus)
	for _, p := range r.All() {
		if hc, ok := p.(plugin.HealthChecker); ok {
			out[p.Info().Name] = hc.Health(ctx)
		}
	}
	return out
}

// Resolve returns a plugin by name (implements plugin.PluginResolver).
func (r *Registry) Resolve(name string) (plugin.Plugin, bool) {
	return r.Get(name)
}

// ResolveByRole returns all active plugins that declare the given role.
func (r *Registry) ResolveByRole(role string) []plugin.Plugin {
	var result []plugin.Plugin
	for _, p := range r.All() {
		for _, pr := range p.Info().Roles {
			if pr == role {
				result = append(result, p)
				break
			}
		}
	}
	return result
}

// IsDisabled returns whether a plugin has been disabled.
func (r *Registry) IsDisabled(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.disabled[name]
}

func checkAPIVersion(info plugin.PluginInfo) error {
	if info.APIVersion < plugin.APIVersionMin || info.APIVersion > plugin.APIVersionCurrent {
		return fmt.Errorf("plugin %q targets Plugin API v%d, server supports v%d..v%d",
			info.Name, info.APIVersion, plugin.APIVersionMin, plugin.APIVersionCurrent)
	}
	return nil
}

func (r *Registry) sortedNames() []string {
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// topologicalSort returns active plugin names in dependency order using
// Kahn's algorithm. Ties are broken by name so the order is stable.
func (r *Registry) topologicalSort() ([]string, error) {
	inDegree := make(map[string]int)
	dependents := make(map[string][]string)

	for _, name := range r.sortedNames() {
		if r.disabled[name] {
			continue
		}
		inDegree[name] += 0
		for _, dep := range r.infos[name].Dependencies {
			if !r.disabled[dep] {
				inDegree[name]++
				dependents[dep] = append(dependents[dep], name)
			}
		}
	}

	var queue []string
	for _, name := range r.sortedNames() {
		if d, ok := inDegree[name]; ok && d == 0 {
			queue = append(queue, name)
		}
	}

	order := make([]string, 0, len(inDegree))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		order = append(order, name)
		for _, dependent := range dependents[name] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(order) != len(inDegree) {
		var cycled []string
		for name, d := range inDegree {
			if d > 0 {
				cycled = append(cycled, name)
			}
		}
		sort.Strings(cycled)
		return nil, fmt.Errorf("dependency cycle detected among plugins: %v", cycled)
	}
	return order, nil
}
