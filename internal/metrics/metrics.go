// internal/metrics/metrics.go
//
// Prometheus collectors for rounds, guesses and the rate limiter.
// Registered once on the default registry; exposed by the HTTP server on /metrics.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RoundsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "numberduel_rounds_started_total",
			Help: "Total rounds started",
		},
	)
	Outcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "numberduel_outcomes_total",
			Help: "Evaluated guesses by outcome kind and player",
		},
		[]string{"kind", "player"},
	)
	Rejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "numberduel_guesses_rejected_total",
			Help: "Guesses rejected before evaluation",
		},
		[]string{"reason"},
	)
	AbandonedMoves = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "numberduel_computer_moves_abandoned_total",
			Help: "Scheduled computer moves dropped because their round ended or was replaced",
		},
	)
	ActiveMatches = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "numberduel_matches",
			Help: "Matches currently held in the store",
		},
	)
	RLRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limiter_requests_total",
			Help: "Total requests seen by the rate limiter",
		},
		[]string{"endpoint"},
	)
	RLBlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limiter_blocked_total",
			Help: "Total requests blocked by the rate limiter",
		},
		[]string{"endpoint"},
	)
)

func init() {
	prometheus.MustRegister(RoundsStarted, Outcomes, Rejected, AbandonedMoves, ActiveMatches)
	prometheus.MustRegister(RLRequests, RLBlocked)
}
