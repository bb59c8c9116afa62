package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	VotesRegistered *prometheus.CounterVec
	VotesDropped    prometheus.Counter
	VotesFailed     prometheus.Counter
	LoadErrors      prometheus.Counter
	VoteDuration    prometheus.Histogram
}

// New registers the vote metrics with reg. Use a fresh prometheus.Registry in
// tests, the same collectors cannot be registered twice.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		VotesRegistered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "votes_registered_total",
				Help:      "Total number of votes saved to the store",
			},
			[]string{"album"},
		),
		VotesDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "votes_dropped_total",
				Help:      "Total number of votes for rows that no longer exist",
			},
		),
		VotesFailed: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "votes_failed_total",
				Help:      "Total number of votes that could not be loaded or saved",
			},
		),
		LoadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_load_errors_total",
				Help:      "Total number of failed table loads",
			},
		),
		VoteDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "vote_duration_seconds",
				Help:      "Histogram of vote transaction times (load, increment, save)",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
			},
		),
	}
}
