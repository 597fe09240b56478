package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	InvitesAccepted     prometheus.Counter
	InvitesRejected     prometheus.Counter
	InvitesExpired      prometheus.Counter
	ConnectionsAccepted prometheus.Counter
	ConnectionsRemoved  prometheus.Counter
	RequestDuration     *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		InvitesAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cheerconnect_invites_accepted_total",
			Help: "Total number of team invites accepted",
		}),
		InvitesRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cheerconnect_invites_rejected_total",
			Help: "Total number of team invites rejected",
		}),
		InvitesExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cheerconnect_invites_expired_total",
			Help: "Total number of team invites lazily marked expired on access",
		}),
		ConnectionsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cheerconnect_connections_accepted_total",
			Help: "Total number of connection requests accepted",
		}),
		ConnectionsRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cheerconnect_connections_removed_total",
			Help: "Total number of connections removed or cancelled",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cheerconnect_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "status"}),
	}
}

// ObserveRequest records one HTTP request's latency.
func (m *Metrics) ObserveRequest(route, status string, d time.Duration) {
	m.RequestDuration.WithLabelValues(route, status).Observe(d.Seconds())
}
