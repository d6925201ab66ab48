package ws

import (
	"encoding/json"
	"io"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testConn builds a Conn with no transport behind it; tests read delivered
// frames straight off the out channel.
func testConn(userID, username string) *Conn {
	return testConnBuf(userID, username, 16)
}

func testConnBuf(userID, username string, buf int) *Conn {
	return &Conn{
		id:       uuid.NewString(),
		identity: Identity{UserID: userID, Username: username},
		out:      make(chan []byte, buf),
	}
}

// recvFrame pops one delivered frame or fails the test.
func recvFrame(t *testing.T, c *Conn) []byte {
	t.Helper()
	select {
	case b := <-c.out:
		return b
	default:
		t.Fatalf("expected a frame for conn %s, got none", c.id)
		return nil
	}
}

func expectNoFrame(t *testing.T, c *Conn) {
	t.Helper()
	select {
	case b := <-c.out:
		t.Fatalf("expected no frame for conn %s, got %s", c.id, b)
	default:
	}
}

// decodeFrame unmarshals a delivered frame into a generic map for
// assertions on type and fields.
func decodeFrame(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("frame is not valid JSON: %v", err)
	}
	return m
}

// fakeClock is an adjustable time source for TTL tests.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }
