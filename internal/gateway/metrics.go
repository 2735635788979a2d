package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	wsMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_ws_messages_total",
		Help: "Incoming WebSocket messages by type",
	}, []string{"type"})

	roomLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_room_lookups_total",
		Help: "Room HTTP lookups by endpoint and outcome",
	}, []string{"endpoint", "outcome"})
)
