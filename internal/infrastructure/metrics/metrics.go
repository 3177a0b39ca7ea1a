package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Media-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campus",
			Subsystem: "media_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "campus",
			Subsystem: "media_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	// Registry writes per outcome ("created", "updated", "conflict_retry")
	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campus",
			Subsystem: "media_api",
			Name:      "registrations_total",
			Help:      "Total media object registrations",
		},
		[]string{"outcome"},
	)

	// Provider call counters
	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campus",
			Subsystem: "media_api",
			Name:      "provider_calls_total",
			Help:      "Total hosting provider API calls",
		},
		[]string{"operation", "status"},
	)

	// Provider call duration
	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "campus",
			Subsystem: "media_api",
			Name:      "provider_duration_seconds",
			Help:      "Hosting provider call duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"operation"},
	)

	// Bytes streamed through the redirect endpoint
	StreamedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "campus",
			Subsystem: "media_api",
			Name:      "streamed_bytes_total",
			Help:      "Total bytes proxied from the hosting provider",
		},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordRegistration records a media object registration outcome
func RecordRegistration(outcome string) {
	RegistrationsTotal.WithLabelValues(outcome).Inc()
}

// RecordProviderCall records one hosting provider API call
func RecordProviderCall(operation, status string, durationSec float64) {
	ProviderCallsTotal.WithLabelValues(operation, status).Inc()
	ProviderDuration.WithLabelValues(operation).Observe(durationSec)
}
