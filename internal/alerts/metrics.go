package alerts

import "github.com/prometheus/client_golang/prometheus"

var (
	alertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qualitywatch_alerts_total",
			Help: "Alerts created, by type and severity.",
		},
		[]string{"type", "severity"},
	)
	alertsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "qualitywatch_alerts_active",
		Help: "Alerts currently open.",
	})
	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qualitywatch_notifications_total",
			Help: "Notification delivery attempts by channel and outcome.",
		},
		[]string{"channel", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(alertsTotal, alertsActive, notificationsTotal)
}
