package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	roomsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "riddle",
		Subsystem: "session",
		Name:      "rooms_created_total",
		Help:      "Rooms created by session clients.",
	})

	joins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "riddle",
		Subsystem: "session",
		Name:      "joins_total",
		Help:      "Join attempts by outcome.",
	}, []string{"result"})

	answers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "riddle",
		Subsystem: "session",
		Name:      "answers_total",
		Help:      "Submitted answers by outcome.",
	}, []string{"result"})

	scoreWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "riddle",
		Subsystem: "session",
		Name:      "score_write_failures_total",
		Help:      "Score writes that failed after retrying.",
	})

	staleAdvances = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "riddle",
		Subsystem: "session",
		Name:      "stale_advances_total",
		Help:      "Question advances rejected because another writer moved the room first.",
	})

	droppedSnapshots = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "riddle",
		Subsystem: "session",
		Name:      "dropped_snapshots_total",
		Help:      "Remote room snapshots ignored by a session.",
	}, []string{"reason"})
)
