package oddsfeed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchesTotal counts odds API fetches by result.
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surebet_oddsfeed_fetches_total",
			Help: "Total number of odds API fetch attempts",
		},
		[]string{"result"},
	)

	// FetchDurationSeconds tracks odds API request latency.
	FetchDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "surebet_oddsfeed_fetch_duration_seconds",
		Help:    "Duration of odds API fetch requests",
		Buckets: prometheus.DefBuckets,
	})
)
