package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Store metrics
	NotesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "notewire_notes_total",
			Help: "Number of notes in the active store",
		},
	)

	StoreOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notewire_store_ops_total",
			Help: "Total number of store operations by op and outcome",
		},
		[]string{"op", "status"},
	)

	// Event metrics
	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notewire_events_published_total",
			Help: "Total number of events delivered to the hub by type",
		},
		[]string{"type"},
	)

	// Realtime metrics
	ConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "notewire_connections_active",
			Help: "Number of live websocket connections",
		},
	)

	RoomsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "notewire_rooms_active",
			Help: "Number of rooms with at least one connection",
		},
	)

	BroadcastsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notewire_broadcasts_total",
			Help: "Total number of payloads fanned out by event name",
		},
		[]string{"event"},
	)

	AuthFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notewire_auth_failures_total",
			Help: "Total number of rejected realtime handshakes",
		},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notewire_api_requests_total",
			Help: "Total number of API requests by method and status",
		},
		[]string{"method", "status"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(NotesTotal)
	prometheus.MustRegister(StoreOpsTotal)
	prometheus.MustRegister(EventsPublishedTotal)
	prometheus.MustRegister(ConnectionsActive)
	prometheus.MustRegister(RoomsActive)
	prometheus.MustRegister(BroadcastsTotal)
	prometheus.MustRegister(AuthFailuresTotal)
	prometheus.MustRegister(APIRequestsTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
