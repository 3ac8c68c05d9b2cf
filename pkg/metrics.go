package pkg

import "github.com/prometheus/client_golang/prometheus"

const (
	dropReasonClosed = "closed"
	dropReasonFull   = "buffer_full"
)

var (
	RelayConnectionsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relay_connections",
		Help: "A gauge of connections open on the relay.",
	})

	RelayRoomsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relay_rooms",
		Help: "A gauge of rooms with at least one member.",
	})

	RelayEventsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_events_total",
		Help: "A counter for inbound events accepted by the relay.",
	}, []string{"type"})

	RelayMalformedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_malformed_messages_total",
		Help: "A counter for inbound frames dropped as malformed.",
	})

	RelayDroppedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_dropped_deliveries_total",
		Help: "A counter for broadcast deliveries skipped because a peer was not writable.",
	}, []string{"reason"})

	RelayInFlightGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relay_in_flight_requests",
		Help: "A gauge of requests being handled by the relay.",
	})

	RelayRequestsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_requests_total",
		Help: "A counter for requests to the relay.",
	}, []string{"code", "method"})
)

func init() {
	prometheus.MustRegister(
		RelayConnectionsGauge,
		RelayRoomsGauge,
		RelayEventsCounter,
		RelayMalformedCounter,
		RelayDroppedCounter,
		RelayInFlightGauge,
		RelayRequestsCounter,
	)
}
