package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesPublishedTotal counts notification batches published.
	MessagesPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "surebet_notify_messages_published_total",
		Help: "Total number of surebet notifications published",
	})

	// MessagesDroppedTotal counts messages dropped for slow subscribers.
	MessagesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "surebet_notify_messages_dropped_total",
		Help: "Total number of notifications dropped due to slow subscribers",
	})

	// SubscribersConnected tracks currently connected websocket subscribers.
	SubscribersConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "surebet_notify_subscribers_connected",
		Help: "Number of currently connected notification subscribers",
	})
)
