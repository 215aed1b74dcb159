package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's prometheus collectors
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RoomsCreated    prometheus.Counter
	RoomsJoined     prometheus.Counter
	RoundsResolved  *prometheus.CounterVec
	ViewersOnline   prometheus.Gauge
	WatchersActive  prometheus.Gauge
}

// New creates the collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rpsroom",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rpsroom",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		RoomsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "rpsroom",
			Name:      "rooms_created_total",
			Help:      "Rooms created.",
		}),
		RoomsJoined: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "rpsroom",
			Name:      "rooms_joined_total",
			Help:      "Successful joins into slot2.",
		}),
		RoundsResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rpsroom",
			Name:      "rounds_resolved_total",
			Help:      "Rounds resolved by outcome, as counted server side.",
		}, []string{"outcome"}),
		ViewersOnline: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "rpsroom",
			Name:      "viewers_online",
			Help:      "Live viewers connected to the presence endpoint.",
		}),
		WatchersActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "rpsroom",
			Name:      "watchers_active",
			Help:      "Active room event stream subscriptions.",
		}),
	}
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
