package ws

import (
	"log/slog"
	"sync"

	"teamchat/pkg/metrics"
)

// Broadcaster fans one frame out to a room's current member set. All routing
// runs under a single mutex so two broadcasts to the same channel reach
// every member in the order they were routed; each member's buffered out
// channel preserves that order to the transport.
type Broadcaster struct {
	mu  sync.Mutex
	reg *RoomRegistry
	log *slog.Logger

	// echoToSender controls whether a chat message is resent to the
	// connection that sent it. The clients append optimistically, so the
	// echo is redundant but harmless; it is a fixed deployment choice,
	// not per-event.
	echoToSender bool
}

// NewBroadcaster builds a broadcaster over the registry.
func NewBroadcaster(reg *RoomRegistry, log *slog.Logger, echoToSender bool) *Broadcaster {
	return &Broadcaster{reg: reg, log: log, echoToSender: echoToSender}
}

// RouteMessage delivers a chat frame to the channel's members. Delivery is
// best-effort per recipient: a member with a full send buffer is skipped
// and the rest still receive the frame. A channel with no members is a
// no-op, not an error.
func (b *Broadcaster) RouteMessage(channelID string, frame []byte, sender *Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, c := range b.reg.Members(channelID) {
		if c == sender && !b.echoToSender {
			continue
		}
		b.deliver(channelID, frame, c)
	}
	metrics.BroadcastFrames.Inc()
}

// RouteOthers delivers a frame to every member except the origin
// connection. Used for typing relays, which a client must never receive
// about itself.
func (b *Broadcaster) RouteOthers(channelID string, frame []byte, origin *Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, c := range b.reg.Members(channelID) {
		if c == origin {
			continue
		}
		b.deliver(channelID, frame, c)
	}
}

// RouteAll delivers a frame to every member. Used for bus frames and sweep
// notifications, where the origin is not a local connection.
func (b *Broadcaster) RouteAll(channelID string, frame []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, c := range b.reg.Members(channelID) {
		b.deliver(channelID, frame, c)
	}
}

func (b *Broadcaster) deliver(channelID string, frame []byte, c *Conn) {
	if !c.Enqueue(frame) {
		// Slow consumer; drop for this recipient only.
		metrics.DroppedFrames.Inc()
		b.log.Debug("broadcast.drop", "channel", channelID, "conn", c.ID())
	}
}
