package ws

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_active_connections",
		Help: "Number of open WebSocket connections",
	})

	droppedMessages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ws_dropped_messages_total",
		Help: "Outgoing messages dropped because a send queue was full",
	})
)
