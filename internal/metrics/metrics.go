// Package metrics holds the Prometheus collectors for the auth and record
// endpoints.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "expense_tracker_login_attempts_total",
		Help: "The total number of login attempts",
	}, []string{"result"})

	RegistrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "expense_tracker_registrations_total",
		Help: "The total number of registration attempts",
	}, []string{"result"})

	TokenRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "expense_tracker_token_refresh_total",
		Help: "The total number of access token refreshes",
	}, []string{"result"})

	LogoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "expense_tracker_logouts_total",
		Help: "The total number of logouts",
	})

	RevokedTokenRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "expense_tracker_revoked_token_rejections_total",
		Help: "Requests rejected because their access token was revoked",
	})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "expense_tracker_request_duration_seconds",
		Help:    "The request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

func Result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
