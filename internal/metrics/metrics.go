package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	OpenConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relay_open_connections",
		Help: "Number of currently open client connections",
	})

	Requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_requests_total",
		Help: "Requests dispatched by path and response status",
	}, []string{"path", "status"})

	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "relay_request_duration_seconds",
		Help:    "Time to dispatch a request",
		Buckets: prometheus.DefBuckets,
	}, []string{"path"})

	WaitingPlayers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relay_waiting_players",
		Help: "Players waiting in the matchmaking queue",
	})

	ActiveGames = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relay_active_games",
		Help: "Games currently held by the store",
	})

	EventPublishFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_event_publish_failures_total",
		Help: "Lifecycle events that could not be delivered",
	}, []string{"driver"})
)

func init() {
	prometheus.MustRegister(OpenConnections)
	prometheus.MustRegister(Requests)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(WaitingPlayers)
	prometheus.MustRegister(ActiveGames)
	prometheus.MustRegister(EventPublishFailures)
}
