// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "claimease"

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	HTTPInFlight     prometheus.Gauge
	UsersRegistered  prometheus.Counter
	LoginAttempts    *prometheus.CounterVec
	ClaimsSubmitted  *prometheus.CounterVec
	ClaimNumberRetry prometheus.Counter
	ClaimTransitions *prometheus.CounterVec
	DocumentsStored  prometheus.Counter
	DocumentBytes    prometheus.Histogram
	FallbackServed   *prometheus.CounterVec
	AuditedAccess    *prometheus.CounterVec
}

// New creates the collectors on a fresh registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		HTTPInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Requests currently being served.",
		}),
		UsersRegistered: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "users_registered_total",
			Help:      "Users created through registration.",
		}),
		LoginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by result (success, invalid).",
		}, []string{"result"}),
		ClaimsSubmitted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_submitted_total",
			Help:      "Claims persisted, by claim type.",
		}, []string{"claim_type"}),
		ClaimNumberRetry: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claim_number_collisions_total",
			Help:      "Claim inserts retried after a claim_number collision.",
		}),
		ClaimTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claim_transitions_total",
			Help:      "Adjudication transitions by target status.",
		}, []string{"to"}),
		DocumentsStored: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_uploaded_total",
			Help:      "Claim documents stored.",
		}),
		DocumentBytes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_size_bytes",
			Help:      "Size of uploaded claim documents.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		}),
		FallbackServed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_responses_total",
			Help:      "Reference data responses served from the fallback snapshot.",
		}, []string{"dataset"}),
		AuditedAccess: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audited_access_total",
			Help:      "Audited accesses to user data by resource, action and outcome.",
		}, []string{"resource", "action", "outcome"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
