// Package metrics provides Prometheus instrumentation for the matchlink
// server: gauges for live connections, counters for message and match
// throughput, and a fanout histogram for room broadcasts.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ActiveConnections tracks the current number of live WebSocket
	// connections registered in the presence registry.
	ActiveConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "matchlink_active_connections",
		Help: "Current number of active WebSocket connections",
	})

	// MessagesTotal counts persisted message operations, labeled by
	// type: "sent", "edited", or "deleted".
	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "matchlink_messages_total",
		Help: "Total number of message operations",
	}, []string{"type"})

	// MatchesTotal counts completed mutual matches.
	MatchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "matchlink_matches_total",
		Help: "Total number of mutual matches formed",
	})

	// BroadcastFanout records how many connections each room broadcast
	// reached.
	BroadcastFanout = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "matchlink_broadcast_fanout",
		Help:    "Number of connections reached per room broadcast",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
	})
)

func init() {
	prometheus.MustRegister(
		ActiveConnections,
		MessagesTotal,
		MatchesTotal,
		BroadcastFanout,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
