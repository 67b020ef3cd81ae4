package propagation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesHandled counts consumed propagation messages.
	// Labels: result (success, error, invalid)
	MessagesHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reflectd",
			Subsystem: "propagation",
			Name:      "messages_handled_total",
			Help:      "Total number of propagation messages handled by the worker",
		},
		[]string{"result"},
	)

	// HandleDuration tracks how long a propagation takes.
	HandleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "reflectd",
			Subsystem: "propagation",
			Name:      "handle_duration_seconds",
			Help:      "Duration of propagation handling in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)
)
