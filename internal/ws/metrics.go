package ws

import "github.com/prometheus/client_golang/prometheus"

var (
	connectedClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "qualitywatch_ws_clients",
		Help: "Connected WebSocket clients.",
	})
	droppedMessages = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qualitywatch_ws_dropped_messages_total",
		Help: "Messages dropped because a client's buffer was full.",
	})
)

func init() {
	prometheus.MustRegister(connectedClients, droppedMessages)
}
