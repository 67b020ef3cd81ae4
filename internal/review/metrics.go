package review

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CandidatesReturned tracks how many candidates a ranking call returns.
	CandidatesReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "reflectd",
			Subsystem: "review",
			Name:      "candidates_returned",
			Help:      "Number of candidates returned per ranking call",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		},
	)

	// CandidatesByReason counts ranked candidates by weight tier.
	// Labels: reason
	CandidatesByReason = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reflectd",
			Subsystem: "review",
			Name:      "candidates_total",
			Help:      "Total number of ranked candidates by reason",
		},
		[]string{"reason"},
	)

	// PromotionsTotal counts promotion attempts.
	// Labels: result (success, not_found, merge_error, error)
	PromotionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reflectd",
			Subsystem: "review",
			Name:      "promotions_total",
			Help:      "Total number of promotion attempts by result",
		},
		[]string{"result"},
	)

	// PropagationPublishFailures counts propagation messages that could not
	// be published after a successful hub merge.
	PropagationPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "reflectd",
			Subsystem: "review",
			Name:      "propagation_publish_failures_total",
			Help:      "Total number of propagation messages that failed to publish",
		},
	)

	// DismissalsTotal counts dismissal attempts.
	// Labels: result (success, not_found, error)
	DismissalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reflectd",
			Subsystem: "review",
			Name:      "dismissals_total",
			Help:      "Total number of dismissal attempts by result",
		},
		[]string{"result"},
	)
)
