package perf

import "github.com/prometheus/client_golang/prometheus"

var performanceGauge = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "qualitywatch_performance",
		Help: "Latest performance sample by metric.",
	},
	[]string{"metric"},
)

func init() {
	prometheus.MustRegister(performanceGauge)
}
