package feed

import "github.com/prometheus/client_golang/prometheus"

var pointsProcessed = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "qualitywatch_data_points_processed_total",
		Help: "Data points accepted by the feed, by protocol and chain.",
	},
	[]string{"protocol", "chain"},
)

func init() {
	prometheus.MustRegister(pointsProcessed)
}
