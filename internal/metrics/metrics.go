// Package metrics exposes Prometheus instrumentation for the served dashboard.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concerto_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "concerto_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "concerto_http_active_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// Session metrics
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "concerto_active_sessions",
			Help: "Number of browser sessions held in memory",
		},
	)

	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concerto_logins_total",
			Help: "Login attempts by result",
		},
		[]string{"result"}, // "success", "unknown_identity", "invalid_credentials", "validation"
	)

	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concerto_registrations_total",
			Help: "Registration attempts by result",
		},
		[]string{"result"},
	)

	// Rating metrics
	RatingsChanged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "concerto_ratings_changed_total",
			Help: "Total number of rating changes",
		},
	)

	RatingSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concerto_rating_saves_total",
			Help: "Rating file saves by result",
		},
		[]string{"result"},
	)

	RatingLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concerto_rating_loads_total",
			Help: "Rating file loads by result",
		},
		[]string{"result"},
	)

	CatalogPrograms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "concerto_catalog_programs",
			Help: "Number of distinct programs in the loaded catalog",
		},
	)
)

// Result labels shared by the outcome counters.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// RecordHTTPRequest records an HTTP request metric
func RecordHTTPRequest(method, route, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight HTTP requests
func TrackActiveRequest(inc bool) {
	if inc {
		HTTPActiveRequests.Inc()
	} else {
		HTTPActiveRequests.Dec()
	}
}

// RecordLogin records a login attempt. An empty reason means success.
func RecordLogin(reason string) {
	if reason == "" {
		reason = ResultSuccess
	}
	LoginsTotal.WithLabelValues(reason).Inc()
}

// RecordRegistration records a registration attempt.
func RecordRegistration(reason string) {
	if reason == "" {
		reason = ResultSuccess
	}
	RegistrationsTotal.WithLabelValues(reason).Inc()
}

// RecordSave records a rating save.
func RecordSave(err error) {
	RatingSaves.WithLabelValues(result(err)).Inc()
}

// RecordLoad records a rating load. Warnings count as their own reason.
func RecordLoad(reason string) {
	if reason == "" {
		reason = ResultSuccess
	}
	RatingLoads.WithLabelValues(reason).Inc()
}

func result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
