package ws

import (
	"context"
	"net/http"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"teamchat/pkg/metrics"
)

// AuthFunc resolves the verified identity for an incoming /ws request. The
// hub calls it before upgrading and never re-derives identity from
// client-sent data afterwards.
type AuthFunc func(r *http.Request) (Identity, error)

// Options tunes the hub; zero values fall back to defaults.
type Options struct {
	TypingTTL    time.Duration
	SweepEvery   time.Duration
	EchoToSender bool
}

// Hub owns the room registry, the typing tracker and the broadcaster. It
// accepts connections, dispatches their events, and tears down memberships
// and typing state on disconnect. Each connection moves through handshake,
// the active read loop, and the terminal cleanup path; no room operation is
// accepted before the handshake finishes.
type Hub struct {
	id     string
	log    *slog.Logger
	bus    *RedisBus // nil when running single-instance
	auth   AuthFunc
	reg    *RoomRegistry
	typing *TypingTracker
	bcast  *Broadcaster

	sweepEvery time.Duration
}

// NewHub sets up the hub with its auth collaborator, optional redis bus,
// and options.
func NewHub(logger *slog.Logger, auth AuthFunc, bus *RedisBus, opts Options) *Hub {
	if opts.SweepEvery <= 0 {
		opts.SweepEvery = time.Second
	}
	reg := NewRoomRegistry()
	return &Hub{
		id:         uuid.NewString(),
		log:        logger,
		bus:        bus,
		auth:       auth,
		reg:        reg,
		typing:     NewTypingTracker(opts.TypingTTL),
		bcast:      NewBroadcaster(reg, logger, opts.EchoToSender),
		sweepEvery: opts.SweepEvery,
	}
}

// Run drives the cross-instance bus subscription and the typing sweep.
// Blocks until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	if h.bus != nil {
		go h.bus.Subscribe(ctx, func(f BusFrame) {
			if f.Origin == h.id {
				// Local members were already served on the direct path.
				return
			}
			h.bcast.RouteAll(f.ChannelID, f.Payload)
		})
	}

	t := time.NewTicker(h.sweepEvery)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			h.sweepTyping(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// sweepTyping tells rooms about typing sessions that timed out without a
// client-sent stop. TTL is the backstop for clients whose disconnect was
// never observed.
func (h *Hub) sweepTyping(ctx context.Context) {
	for _, e := range h.typing.SweepExpired() {
		frame := EncodeUserStopTyping(e.ChannelID, e.UserID)
		h.bcast.RouteAll(e.ChannelID, frame)
		h.publish(ctx, e.ChannelID, frame)
	}
}

// ServeWS handles a new /ws connection: resolve identity, upgrade, then run
// the read loop until the transport closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ident, err := h.auth(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := Accept(w, r)
	if err != nil {
		h.log.Error("ws.accept", "err", err)
		return
	}

	ctx := r.Context()
	c := NewConn(conn, ident)
	metrics.ConnectionsActive.Inc()
	h.log.Info("ws.connected", "conn", c.ID(), "user", ident.UserID)

	go c.WriteLoop(ctx)

	for {
		raw, ok := c.Read(ctx)
		if !ok {
			break
		}
		h.handleEvent(ctx, c, raw)
	}

	// The request context dies with the transport; cleanup still needs to
	// publish stop-typing frames.
	h.disconnect(context.WithoutCancel(ctx), c)
	_ = c.Close()
	metrics.ConnectionsActive.Dec()
	h.log.Info("ws.disconnected", "conn", c.ID(), "user", ident.UserID)
}

// handleEvent dispatches one inbound frame. Malformed frames and events
// whose declared identity does not match the connection's bound identity
// are dropped; nothing here closes the connection or fails the hub.
func (h *Hub) handleEvent(ctx context.Context, c *Conn, raw []byte) {
	ev, err := DecodeEnvelope(raw)
	if err != nil {
		h.log.Debug("ws.event.malformed", "conn", c.ID())
		return
	}
	ident := c.Identity()

	switch ev.Type {
	case EvJoinChannel:
		h.reg.Join(ev.ChannelID, c)

	case EvLeaveChannel:
		h.reg.Leave(ev.ChannelID, c)
		h.stopTypingAndRelay(ctx, ev.ChannelID, c)

	case EvSendMessage:
		m := *ev.Message
		if m.UserID != ident.UserID {
			h.log.Warn("ws.event.identity_mismatch",
				"conn", c.ID(), "bound", ident.UserID, "claimed", m.UserID)
			return
		}
		frame := EncodeReceiveMessage(m)
		h.bcast.RouteMessage(m.ChannelID, frame, c)
		h.publish(ctx, m.ChannelID, frame)

	case EvTyping:
		if h.typing.Start(ev.ChannelID, ident) {
			metrics.TypingSessions.Inc()
			frame := EncodeUserTyping(ev.ChannelID, ident)
			h.bcast.RouteOthers(ev.ChannelID, frame, c)
			h.publish(ctx, ev.ChannelID, frame)
		}

	case EvStopTyping:
		h.stopTypingAndRelay(ctx, ev.ChannelID, c)
	}
}

// disconnect is the terminal cleanup path: drop every room membership, then
// clear the user's typing state for the rooms it just left so other members
// are not left watching a stale indicator for the TTL window.
func (h *Hub) disconnect(ctx context.Context, c *Conn) {
	ident := c.Identity()
	for _, channelID := range h.reg.RemoveAll(c) {
		if h.typing.Stop(channelID, ident.UserID) {
			frame := EncodeUserStopTyping(channelID, ident.UserID)
			h.bcast.RouteAll(channelID, frame)
			h.publish(ctx, channelID, frame)
		}
	}
}

// stopTypingAndRelay ends a live typing session and tells the other room
// members. Stopping an already-expired or absent session relays nothing.
func (h *Hub) stopTypingAndRelay(ctx context.Context, channelID string, c *Conn) {
	ident := c.Identity()
	if !h.typing.Stop(channelID, ident.UserID) {
		return
	}
	frame := EncodeUserStopTyping(channelID, ident.UserID)
	h.bcast.RouteOthers(channelID, frame, c)
	h.publish(ctx, channelID, frame)
}

func (h *Hub) publish(ctx context.Context, channelID string, frame []byte) {
	if h.bus == nil {
		return
	}
	if err := h.bus.Publish(ctx, BusFrame{ChannelID: channelID, Origin: h.id, Payload: frame}); err != nil {
		h.log.Error("bus.publish", "channel", channelID, "err", err)
	}
}

// ActiveTypers exposes the live typers in a channel, excluding the given
// user. Useful for the channel REST surface.
func (h *Hub) ActiveTypers(channelID, excludingUserID string) []TypingEntry {
	return h.typing.ActiveTypers(channelID, excludingUserID)
}
