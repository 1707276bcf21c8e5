package testutil

import (
	"path/filepath"
	"testing"

	"github.com/HerbHall/qualitywatch/internal/store"
	"github.com/HerbHall/qualitywatch/pkg/plugin"
)

// NewStore opens a SQLite store in a per-test temp directory and closes it
// when the test ends.
func NewStore(t *testing.T) *store.SQLStore {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// Resolver is a static plugin.PluginResolver keyed by role.
type Resolver map[string][]plugin.Plugin

func (r Resolver) Resolve(name string) (plugin.Plugin, bool) {
	for _, ps := range r {
		for _, p := range ps {
			if p.Info().Name == name {
				return p, true
			}
		}
	}
	return nil, false
}

func (r Resolver) ResolveByRole(role string) []plugin.Plugin { return r[role] }
