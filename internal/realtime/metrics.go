package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	relayedChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "riddle",
		Subsystem: "realtime",
		Name:      "relayed_changes_total",
		Help:      "Row-change notifications forwarded from Postgres to the bus.",
	}, []string{"table", "result"})

	droppedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "riddle",
		Subsystem: "realtime",
		Name:      "dropped_events_total",
		Help:      "Bus messages a feed could not decode or did not belong to the watched room.",
	}, []string{"kind"})
)
