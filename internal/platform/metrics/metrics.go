package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casemon_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "casemon_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	FHIRWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casemon_fhir_writes_total",
			Help: "FHIR create/update attempts by resource type and result",
		},
		[]string{"resource_type", "interaction", "result"},
	)
)

func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordWrite counts a FHIR write by outcome ("created", "updated",
// "invalid", "forbidden", "conflict", "too_large", "error").
func RecordWrite(resourceType, interaction, result string) {
	FHIRWritesTotal.WithLabelValues(resourceType, interaction, result).Inc()
}
