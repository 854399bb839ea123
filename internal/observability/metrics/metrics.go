package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	DeliveryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credential_delivery_attempts_total",
			Help: "Channel send attempts, by channel and outcome (ok, transient, permanent).",
		},
		[]string{"channel", "result"},
	)

	DispatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credential_dispatches_total",
			Help: "Issue requests by purpose and outcome (sent, suppressed, failed).",
		},
		[]string{"purpose", "result"},
	)

	ValidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credential_validations_total",
			Help: "Credential validations by result kind.",
		},
		[]string{"result"},
	)

	LiveCredentials = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "credential_store_live_records",
			Help: "Live credentials held in memory, sampled after each commit.",
		},
	)
)

var registerOnce sync.Once

// MustRegister registers all collectors with the default registry. Safe to call more than once.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			DeliveryAttemptsTotal,
			DispatchesTotal,
			ValidationsTotal,
			LiveCredentials,
		)
	})
}
