package perf

import (
	"testing"

	"github.com/HerbHall/qualitywatch/pkg/plugin"
	"github.com/HerbHall/qualitywatch/pkg/plugin/plugintest"
)

func TestContract(t *testing.T) {
	plugintest.TestPluginContract(t, func() plugin.Plugin {
		m := New()
		m.sampler = &stubSampler{metrics: map[string]float64{MetricGoroutines: 1}}
		return m
	})
}
