package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
)

// Conn is one live client session bound to a verified identity. The hub is
// the only component holding a long-lived reference; rooms see it through
// RoomRegistry snapshots.
type Conn struct {
	id       string
	identity Identity
	ws       *websocket.Conn
	out      chan []byte
}

// Accept upgrades HTTP to websocket (allow all origins)
func Accept(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  []string{"*"},
		CompressionMode: websocket.CompressionDisabled,
	})
}

// NewConn wraps a WS connection already bound to a verified identity
func NewConn(wsc *websocket.Conn, id Identity) *Conn {
	return &Conn{
		id:       uuid.NewString(),
		identity: id,
		ws:       wsc,
		out:      make(chan []byte, 256),
	}
}

// ID is the opaque per-session identifier.
func (c *Conn) ID() string { return c.id }

// Identity returns the user bound at accept time, immutable for the
// connection's lifetime.
func (c *Conn) Identity() Identity { return c.identity }

// Enqueue queues an outbound frame without blocking. Returns false when the
// send buffer is full; the frame is dropped for this recipient only.
func (c *Conn) Enqueue(b []byte) bool {
	select {
	case c.out <- b:
		return true
	default:
		return false
	}
}

// Read blocks until it receives a text/binary message
// Returns false if connection is closed
func (c *Conn) Read(ctx context.Context) ([]byte, bool) {
	for {
		typ, data, err := c.ws.Read(ctx)
		if err != nil {
			return nil, false
		}
		if typ == websocket.MessageText || typ == websocket.MessageBinary {
			return data, true
		}
	}
}

// WriteLoop sends outbound messages + periodic pings
// Exits when ctx is cancelled
func (c *Conn) WriteLoop(ctx context.Context) {
	t := time.NewTicker(20 * time.Second)
	defer t.Stop()

	for {
		select {
		case b := <-c.out:
			_ = c.ws.Write(ctx, websocket.MessageText, b)
		case <-t.C:
			_ = c.ws.Ping(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Close closes the WS connection normally
func (c *Conn) Close() error { return c.ws.Close(websocket.StatusNormalClosure, "bye") }
