// Package metrics declares the Prometheus collectors shared by the
// verifier, the cache and the identity client. Collectors register with
// the default registry on import; expose them with promhttp.Handler.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "authn"

// Verification outcomes.
const (
	OutcomeSuccess              = "success"
	OutcomeMissingToken         = "missing_token"
	OutcomeMalformedToken       = "malformed_token"
	OutcomeDomainMissing        = "domain_missing"
	OutcomeExpired              = "expired"
	OutcomeInvalid              = "invalid"
	OutcomeKeyResolution        = "key_resolution"
	OutcomePermissionResolution = "permission_resolution"
)

// Cache lookup results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

var (
	VerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Total number of token verifications, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	VerificationDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "verification_duration_seconds",
			Help:      "Latency of a full verification including cache and identity calls (seconds).",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"outcome"},
	)

	CacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Total number of cache lookups, labeled by alias and result.",
		},
		[]string{"alias", "result"},
	)

	IdentityCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identity_calls_total",
			Help:      "Total number of identity service calls, labeled by method and outcome.",
		},
		[]string{"method", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		VerificationsTotal,
		VerificationDurationSeconds,
		CacheRequestsTotal,
		IdentityCallsTotal,
	)
}

// ObserveVerification records one verification outcome and its latency.
func ObserveVerification(outcome string, seconds float64) {
	VerificationsTotal.WithLabelValues(outcome).Inc()
	VerificationDurationSeconds.WithLabelValues(outcome).Observe(seconds)
}

// ObserveCache records one cache lookup for alias.
func ObserveCache(alias, result string) {
	CacheRequestsTotal.WithLabelValues(alias, result).Inc()
}

// ObserveIdentityCall records one identity service call. outcome is
// "success" or "error".
func ObserveIdentityCall(method string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	IdentityCallsTotal.WithLabelValues(method, outcome).Inc()
}
