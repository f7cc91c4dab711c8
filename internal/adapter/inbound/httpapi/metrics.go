package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the API server.
// Pass to components that need to record metrics.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	AuthFailures    prometheus.Counter
	RefreshFailures prometheus.Counter
	RateLimited     prometheus.Counter
	ActiveSessions  prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taskdeck",
				Name:      "requests_total",
				Help:      "Total number of API requests processed",
			},
			[]string{"method", "status"}, // status=ok/error
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "taskdeck",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		AuthFailures: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "taskdeck",
				Name:      "auth_failures_total",
				Help:      "Requests rejected for a missing or invalid bearer token",
			},
		),
		RefreshFailures: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "taskdeck",
				Name:      "refresh_failures_total",
				Help:      "Refresh attempts with an invalid or expired refresh token",
			},
		),
		RateLimited: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "taskdeck",
				Name:      "rate_limited_total",
				Help:      "Credential requests rejected by the per-IP rate limiter",
			},
		),
		ActiveSessions: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "taskdeck",
				Name:      "active_sessions",
				Help:      "Sessions opened minus sessions explicitly logged out",
			},
		),
	}
}
