// Package config provides a Viper-backed implementation of the plugin.Config
// interface and the process logger.
package config

import (
	"sync"
	"time"

	"github.com/HerbHall/qualitywatch/pkg/plugin"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Compile-time interface guards.
var (
	_ plugin.Config        = (*ViperConfig)(nil)
	_ plugin.ConfigWatcher = (*ViperConfig)(nil)
)

// ViperConfig exposes one subtree of a Viper instance as plugin.Config.
// Reads always go to the root instance so values reloaded from disk are
// visible to every Sub view without re-deriving it.
type ViperConfig struct {
	root     *viper.Viper
	prefix   string
	watchers *watchers
}

type watchers struct {
	mu      sync.Mutex
	started bool
	fns     []func()
}

// New creates a Config backed by the given Viper instance.
// Returns the concrete type; callers assign to plugin.Config where needed.
func New(v *viper.Viper) *ViperConfig {
	if v == nil {
		v = viper.New()
	}
	return &ViperConfig{root: v, watchers: &watchers{}}
}

func (c *ViperConfig) key(k string) string {
	if c.prefix == "" {
		return k
	}
	if k == "" {
		return c.prefix
	}
	return c.prefix + "." + k
}

func (c *ViperConfig) Unmarshal(target any) error {
	if c.prefix == "" {
		return c.root.Unmarshal(target)
	}
	return c.root.UnmarshalKey(c.prefix, target)
}

func (c *ViperConfig) Get(key string) any {
	return c.root.Get(c.key(key))
}

func (c *ViperConfig) GetString(key string) string {
	return c.root.GetString(c.key(key))
}

func (c *ViperConfig) GetInt(key string) int {
	return c.root.GetInt(c.key(key))
}

func (c *ViperConfig) GetBool(key string) bool {
	return c.root.GetBool(c.key(key))
}

func (c *ViperConfig) GetDuration(key string) time.Duration {
	return c.root.GetDuration(c.key(key))
}

func (c *ViperConfig) IsSet(key string) bool {
	return c.root.IsSet(c.key(key))
}

// Sub returns a view rooted at key. The view shares the root instance and
// its change watchers.
func (c *ViperConfig) Sub(key string) plugin.Config {
	return &ViperConfig{root: c.root, prefix: c.key(key), watchers: c.watchers}
}

// OnChange registers fn to run after the config file is re-read. Callbacks
// only fire once Watch has been called on any view of the same root.
func (c *ViperConfig) OnChange(fn func()) {
	c.watchers.mu.Lock()
	c.watchers.fns = append(c.watchers.fns, fn)
	c.watchers.mu.Unlock()
}

// Watch starts watching the config file backing the root instance. Calling
// it more than once is a no-op. Without a config file nothing is watched.
func (c *ViperConfig) Watch() {
	w := c.watchers
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || c.root.ConfigFileUsed() == "" {
		return
	}
	w.started = true
	c.root.OnConfigChange(func(fsnotify.Event) { w.fire() })
	c.root.WatchConfig()
}

func (w *watchers) fire() {
	w.mu.Lock()
	fns := make([]func(), len(w.fns))
	copy(fns, w.fns)
	w.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Viper returns the underlying root Viper instance for direct access
// (e.g., by the server for top-level config like server.port).
func (c *ViperConfig) Viper() *viper.Viper {
	return c.root
}
