package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "siret", Name: "requests_total", Help: "Handled SIRET API requests by operation and HTTP status."},
		[]string{"operation", "status"},
	)
	AuditWriteFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "siret", Name: "audit_write_failures_total", Help: "Audit entries that could not be written, by action."},
		[]string{"action"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "siret", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "siret", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(Requests)
	reg.MustRegister(AuditWriteFailures)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
