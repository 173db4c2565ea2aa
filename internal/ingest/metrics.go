package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsIngestedTotal counts events successfully upserted.
	EventsIngestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "surebet_ingest_events_total",
		Help: "Total number of events successfully ingested",
	})

	// EventsRejectedTotal counts payloads rejected by validation or storage.
	EventsRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "surebet_ingest_events_rejected_total",
		Help: "Total number of event payloads rejected during ingestion",
	})

	// NotificationsFailedTotal counts best-effort notification failures.
	NotificationsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "surebet_ingest_notifications_failed_total",
		Help: "Total number of post-ingest notification publish failures",
	})
)
