package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:        "augur_build_info",
			Help:        "Build information",
			ConstLabels: prometheus.Labels{"component": "server"},
		},
		[]string{"date", "sha", "version"},
	)

	relayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "augur_relay_requests_total",
			Help: "Number of relayed prediction requests",
		},
		[]string{"provider", "outcome"},
	)

	relayFragments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "augur_relay_fragments_total",
			Help: "Response events delivered to clients per provider",
		},
		[]string{"provider"},
	)

	relayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "augur_relay_duration_seconds",
			Help:    "Time from request to terminal event",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
		[]string{"provider"},
	)

	relayInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "augur_relay_inflight",
			Help: "Number of prediction streams currently open",
		},
	)

	connections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "augur_connections_total",
			Help: "Client connections accepted per transport",
		},
		[]string{"transport"},
	)
)

// Register registers all collectors on r.
func Register(r prometheus.Registerer) {
	r.MustRegister(buildInfo, relayRequests, relayFragments, relayDuration, relayInflight, connections)
}

// SetServerBuildInfo sets the build info metric for the server.
func SetServerBuildInfo(version, sha, date string) {
	buildInfo.WithLabelValues(date, sha, version).Set(1)
}

// RelayStart marks a stream as in flight.
func RelayStart() { relayInflight.Inc() }

// RelayEnd records the outcome of a stream started with RelayStart.
func RelayEnd(provider string, success bool, d time.Duration) {
	relayInflight.Dec()
	outcome := "success"
	if !success {
		outcome = "error"
	}
	relayRequests.WithLabelValues(provider, outcome).Inc()
	relayDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// RecordFragment counts one response event sent for provider.
func RecordFragment(provider string) {
	relayFragments.WithLabelValues(provider).Inc()
}

// RecordConnection counts an accepted client connection.
func RecordConnection(transport string) {
	connections.WithLabelValues(transport).Inc()
}
