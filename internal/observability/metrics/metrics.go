package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trainingsystem_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trainingsystem_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	loginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trainingsystem_logins_total",
		Help: "Count of login attempts by result",
	}, []string{"result"})

	tokenVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trainingsystem_token_verifications_total",
		Help: "Count of token verifications by result",
	}, []string{"result"})

	authzDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trainingsystem_authorization_decisions_total",
		Help: "Count of authorization policy decisions",
	}, []string{"capability", "decision"})
)

// ObserveHTTPRequest records an HTTP request metric.
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveLogin counts a login attempt with a result label.
func ObserveLogin(result string) {
	loginsTotal.WithLabelValues(result).Inc()
}

// ObserveTokenVerification counts a token verification with a result label.
func ObserveTokenVerification(result string) {
	tokenVerifications.WithLabelValues(result).Inc()
}

// ObserveAuthzDecision counts an authorization decision.
func ObserveAuthzDecision(capability string, allowed bool) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	authzDecisions.WithLabelValues(capability, decision).Inc()
}
