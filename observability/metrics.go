// Package observability provides Prometheus metrics for the auth core.
package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	// AuthAttemptsTotal counts authentication pipeline outcomes.
	AuthAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatekeeper_auth_attempts_total",
			Help: "Authentication attempts",
		},
		[]string{"outcome"},
	)

	// RateLimitRejectedTotal counts requests rejected by the rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatekeeper_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
		[]string{"scope"},
	)

	// ChallengeVerificationsTotal counts wallet signature verifications.
	ChallengeVerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatekeeper_challenge_verifications_total",
			Help: "Wallet challenge verifications",
		},
		[]string{"result"},
	)

	// CacheReadFailuresTotal counts cache reads degraded to a miss.
	CacheReadFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatekeeper_cache_read_failures_total",
			Help: "Cache reads degraded to a miss",
		},
		[]string{"op"},
	)

	// HTTPRequestsTotal counts handled HTTP requests.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatekeeper_http_requests_total",
			Help: "HTTP requests by route and status class",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration observes HTTP request latency.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gatekeeper_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ActivityDroppedTotal counts last-active updates dropped by a full queue.
	ActivityDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gatekeeper_activity_dropped_total",
			Help: "Dropped last-active updates",
		},
	)
)

func init() {
	prometheus.MustRegister(
		AuthAttemptsTotal,
		RateLimitRejectedTotal,
		ChallengeVerificationsTotal,
		CacheReadFailuresTotal,
		ActivityDroppedTotal,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}
