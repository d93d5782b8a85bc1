package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	upstreamRequests  *prometheus.CounterVec
	retries           *prometheus.CounterVec
	cacheOps          *prometheus.CounterVec
	admissionRejected *prometheus.CounterVec
	latency           *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		upstreamRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chenex_upstream_requests_total",
				Help: "Upstream provider requests by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		retries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chenex_upstream_retries_total",
				Help: "Retried upstream requests by reason",
			},
			[]string{"reason"},
		),
		cacheOps: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chenex_cache_lookups_total",
				Help: "Response cache lookups by resource and result",
			},
			[]string{"resource", "result"},
		),
		admissionRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chenex_admission_rejected_total",
				Help: "Admission control rejections by resource class",
			},
			[]string{"class"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chenex_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordUpstreamRequest records an upstream request outcome.
func (r *Recorder) RecordUpstreamRequest(endpoint, outcome string) {
	r.upstreamRequests.WithLabelValues(endpoint, outcome).Inc()
}

// RecordRetry records a retried upstream request.
func (r *Recorder) RecordRetry(reason string) {
	r.retries.WithLabelValues(reason).Inc()
}

// RecordCache records a response-cache lookup.
func (r *Recorder) RecordCache(resource string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheOps.WithLabelValues(resource, result).Inc()
}

// RecordAdmissionRejected records an admission rejection.
func (r *Recorder) RecordAdmissionRejected(class string) {
	r.admissionRejected.WithLabelValues(class).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
