package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConnectionsActive counts live websocket sessions.
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_connections_active",
		Help: "Number of live websocket connections.",
	})

	// BroadcastFrames counts chat-message broadcasts routed to rooms.
	BroadcastFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_broadcast_frames_total",
		Help: "Chat message frames routed to rooms.",
	})

	// DroppedFrames counts per-recipient drops due to full send buffers.
	DroppedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_frames_dropped_total",
		Help: "Frames dropped for slow consumers.",
	})

	// TypingSessions counts new typing sessions (not keystroke refreshes).
	TypingSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_typing_sessions_total",
		Help: "New typing sessions started.",
	})
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
