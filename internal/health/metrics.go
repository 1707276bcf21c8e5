package health

import "github.com/prometheus/client_golang/prometheus"

var (
	systemUptime = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "qualitywatch_system_uptime",
		Help: "Fraction of recent health check runs where every component was healthy.",
	})
	componentUp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "qualitywatch_component_up",
			Help: "1 if the component passed its last health check.",
		},
		[]string{"component", "type"},
	)
)

func init() {
	prometheus.MustRegister(systemUptime, componentUp)
}
