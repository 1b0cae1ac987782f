package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// requestsTotal counts completed HTTP requests.
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casepilot_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"path", "method", "status"},
	)

	// requestDuration tracks handler latency.
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "casepilot_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	// attacksScheduled counts alert units scheduled by the injector.
	attacksScheduled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "casepilot_attack_units_scheduled_total",
			Help: "Total attack alert units scheduled via the inject endpoint",
		},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(requestDuration)
	prometheus.MustRegister(attacksScheduled)
}
