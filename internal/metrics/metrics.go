// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// RequestsTotal counts API requests by method and status text.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sslguardian_http_requests_total",
			Help: "API requests served.",
		},
		[]string{"method", "status"},
	)

	// CacheHits and CacheMisses track the response cache per namespace.
	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sslguardian_cache_hits_total",
			Help: "Response cache hits.",
		},
		[]string{"namespace"},
	)
	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sslguardian_cache_misses_total",
			Help: "Response cache misses.",
		},
		[]string{"namespace"},
	)

	// ExpiringSoon is refreshed whenever the dashboard metrics are
	// recomputed.
	ExpiringSoon = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sslguardian_certificates_expiring_soon",
			Help: "Certificates expiring within the 30 day threshold.",
		},
	)
)

func init() {
	prometheus.MustRegister(RequestsTotal, CacheHits, CacheMisses, ExpiringSoon)
}
