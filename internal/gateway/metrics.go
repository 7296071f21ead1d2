package gateway

import "github.com/prometheus/client_golang/prometheus"

var (
	connections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "team_inbox_gateway_connections",
			Help: "Current number of authenticated gateway connections.",
		},
	)
	evictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "team_inbox_gateway_evictions_total",
			Help: "Connections kicked because the same user reconnected.",
		},
	)
	eventsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "team_inbox_gateway_events_emitted_total",
			Help: "Room-scoped events emitted by the gateway.",
		},
		[]string{"event"},
	)
)

func init() {
	prometheus.MustRegister(connections, evictions, eventsEmitted)
}
