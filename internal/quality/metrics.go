package quality

import "github.com/prometheus/client_golang/prometheus"

var (
	dataAccuracy = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "qualitywatch_data_accuracy",
			Help: "Cross-source accuracy ratio, overall and per source.",
		},
		[]string{"source"},
	)
	updateLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "qualitywatch_update_latency_seconds",
		Help:    "Time for a probe to travel through the ingest pipeline.",
		Buckets: []float64{1, 5, 10, 20, 30, 60, 120},
	})
	qualityScore = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "qualitywatch_quality_score",
		Help: "Weighted data quality score of the latest cycle.",
	})
	anomalyCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "qualitywatch_data_anomalies",
		Help: "Anomalous data points found in the latest cycle.",
	})
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qualitywatch_errors_total",
			Help: "Quality cycle errors by type and severity.",
		},
		[]string{"type", "severity"},
	)
)

func init() {
	prometheus.MustRegister(dataAccuracy, updateLatency, qualityScore, anomalyCount, errorsTotal)
}
