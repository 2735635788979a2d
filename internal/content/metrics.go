package content

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	riddleSource = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "riddle",
		Subsystem: "content",
		Name:      "riddle_sets_total",
		Help:      "Riddle sets handed out, by where they came from.",
	}, []string{"source"})

	providerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "riddle",
		Subsystem: "content",
		Name:      "provider_failures_total",
		Help:      "Failed content provider calls.",
	}, []string{"op"})

	prefetchedPacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "riddle",
		Subsystem: "content",
		Name:      "prefetched_packs_total",
		Help:      "Riddle sets generated ahead of time and pushed into the pool.",
	})
)
