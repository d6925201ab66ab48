package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func newTestHub() (*Hub, *fakeClock) {
	h := NewHub(testLogger(), nil, nil, Options{EchoToSender: true})
	clk := newFakeClock()
	h.typing.now = clk.now
	return h, clk
}

func join(h *Hub, c *Conn, channelID string) {
	h.handleEvent(context.Background(), c, []byte(`{"type":"joinChannel","channelId":"`+channelID+`"}`))
}

func sendMessage(h *Hub, c *Conn, m Message) {
	raw, _ := json.Marshal(Envelope{Type: EvSendMessage, Message: &m})
	h.handleEvent(context.Background(), c, raw)
}

func TestHubJoinLeaveEvents(t *testing.T) {
	h, _ := newTestHub()
	c := testConn("u1", "alice")

	join(h, c, "general")
	if len(h.reg.Members("general")) != 1 {
		t.Fatal("join event did not register membership")
	}

	h.handleEvent(context.Background(), c, []byte(`{"type":"leaveChannel","channelId":"general"}`))
	if len(h.reg.Members("general")) != 0 {
		t.Fatal("leave event did not remove membership")
	}
}

func TestHubDropsMalformedEvents(t *testing.T) {
	h, _ := newTestHub()
	c := testConn("u1", "alice")
	join(h, c, "general")

	for _, raw := range []string{
		`not json`,
		`{}`,
		`{"type":"joinChannel"}`,
		`{"type":"sendMessage"}`,
		`{"type":"unknownEvent","channelId":"general"}`,
	} {
		h.handleEvent(context.Background(), c, []byte(raw))
	}

	// Nothing was relayed and the connection is still a member
	expectNoFrame(t, c)
	if len(h.reg.Members("general")) != 1 {
		t.Fatal("malformed events must not disturb membership")
	}
}

func TestHubRejectsIdentityMismatch(t *testing.T) {
	h, _ := newTestHub()
	a := testConn("u1", "alice")
	b := testConn("u2", "bob")
	join(h, a, "general")
	join(h, b, "general")

	// alice's connection claims bob's identity; the hub must drop it
	sendMessage(h, a, Message{ID: "m1", Content: "hi", UserID: "u2", Username: "bob", ChannelID: "general"})

	expectNoFrame(t, a)
	expectNoFrame(t, b)
}

func TestHubBroadcastsChatMessages(t *testing.T) {
	h, _ := newTestHub()
	a := testConn("u1", "alice")
	b := testConn("u2", "bob")
	c := testConn("u3", "carol")
	join(h, a, "general")
	join(h, b, "general")
	join(h, c, "general")

	sent := Message{ID: "m1", Content: "hello", UserID: "u1", Username: "alice", ChannelID: "general", Timestamp: time.Now().UTC()}
	sendMessage(h, a, sent)

	for _, conn := range []*Conn{a, b, c} {
		frame := decodeFrame(t, recvFrame(t, conn))
		if frame["type"] != EvReceiveMessage {
			t.Fatalf("expected receiveMessage, got %v", frame["type"])
		}
		msg := frame["message"].(map[string]any)
		if msg["id"] != "m1" || msg["content"] != "hello" || msg["channelId"] != "general" {
			t.Fatalf("relayed envelope mangled: %v", msg)
		}
	}
}

func TestHubMessageOrderPerChannel(t *testing.T) {
	h, _ := newTestHub()
	a := testConn("u1", "alice")
	b := testConn("u2", "bob")
	join(h, a, "general")
	join(h, b, "general")

	sendMessage(h, a, Message{ID: "m1", Content: "first", UserID: "u1", ChannelID: "general"})
	sendMessage(h, a, Message{ID: "m2", Content: "second", UserID: "u1", ChannelID: "general"})

	for _, conn := range []*Conn{a, b} {
		first := decodeFrame(t, recvFrame(t, conn))["message"].(map[string]any)
		second := decodeFrame(t, recvFrame(t, conn))["message"].(map[string]any)
		if first["id"] != "m1" || second["id"] != "m2" {
			t.Fatalf("order violated: got %v then %v", first["id"], second["id"])
		}
	}
}

func TestHubTypingRelaysOncePerSession(t *testing.T) {
	h, _ := newTestHub()
	a := testConn("u1", "alice")
	b := testConn("u2", "bob")
	join(h, a, "general")
	join(h, b, "general")

	typing := []byte(`{"type":"typing","channelId":"general"}`)
	h.handleEvent(context.Background(), a, typing)
	h.handleEvent(context.Background(), a, typing) // keystroke refresh
	h.handleEvent(context.Background(), a, typing)

	frame := decodeFrame(t, recvFrame(t, b))
	if frame["type"] != EvUserTyping || frame["userId"] != "u1" || frame["username"] != "alice" {
		t.Fatalf("unexpected typing frame: %v", frame)
	}
	// One session, one notification; and the typer never hears itself
	expectNoFrame(t, b)
	expectNoFrame(t, a)
}

func TestHubStopTypingRelays(t *testing.T) {
	h, _ := newTestHub()
	a := testConn("u1", "alice")
	b := testConn("u2", "bob")
	join(h, a, "general")
	join(h, b, "general")

	h.handleEvent(context.Background(), a, []byte(`{"type":"typing","channelId":"general"}`))
	recvFrame(t, b) // userTyping

	h.handleEvent(context.Background(), a, []byte(`{"type":"stopTyping","channelId":"general"}`))
	frame := decodeFrame(t, recvFrame(t, b))
	if frame["type"] != EvUserStopTyping || frame["userId"] != "u1" {
		t.Fatalf("unexpected stop frame: %v", frame)
	}

	// A second stop has nothing to relay
	h.handleEvent(context.Background(), a, []byte(`{"type":"stopTyping","channelId":"general"}`))
	expectNoFrame(t, b)
}

func TestHubDisconnectCleansUp(t *testing.T) {
	h, _ := newTestHub()
	a := testConn("u1", "alice")
	b := testConn("u2", "bob")
	join(h, a, "general")
	join(h, a, "random")
	join(h, b, "general")

	h.handleEvent(context.Background(), a, []byte(`{"type":"typing","channelId":"general"}`))
	recvFrame(t, b) // userTyping

	// Hard disconnect while typing: members see the stop right away,
	// without waiting out the TTL
	h.disconnect(context.Background(), a)

	frame := decodeFrame(t, recvFrame(t, b))
	if frame["type"] != EvUserStopTyping || frame["userId"] != "u1" {
		t.Fatalf("expected userStopTyping on disconnect, got %v", frame)
	}
	if len(h.reg.Members("general")) != 1 || len(h.reg.Members("random")) != 0 {
		t.Fatal("disconnect did not clear memberships")
	}
	if len(h.ActiveTypers("general", "")) != 0 {
		t.Fatal("disconnect did not clear typing state")
	}
}

func TestHubSweepNotifiesTimedOutTypers(t *testing.T) {
	h, clk := newTestHub()
	a := testConn("u1", "alice")
	b := testConn("u2", "bob")
	join(h, a, "general")
	join(h, b, "general")

	h.handleEvent(context.Background(), a, []byte(`{"type":"typing","channelId":"general"}`))
	recvFrame(t, b) // userTyping

	clk.advance(DefaultTypingTTL + time.Second)
	h.sweepTyping(context.Background())

	frame := decodeFrame(t, recvFrame(t, b))
	if frame["type"] != EvUserStopTyping || frame["userId"] != "u1" {
		t.Fatalf("sweep should relay userStopTyping, got %v", frame)
	}
	// The typer hears about its own timeout too; the room state is shared
	frame = decodeFrame(t, recvFrame(t, a))
	if frame["type"] != EvUserStopTyping {
		t.Fatalf("unexpected frame for typer: %v", frame)
	}
}

func TestHubCrossChannelIsolation(t *testing.T) {
	h, _ := newTestHub()
	x := testConn("ux", "x")
	y := testConn("uy", "y")
	z := testConn("uz", "z")
	join(h, x, "c1")
	join(h, y, "c1")
	join(h, y, "c2")
	join(h, z, "c2")

	sendMessage(h, x, Message{ID: "m1", Content: "hi c1", UserID: "ux", ChannelID: "c1"})

	recvFrame(t, x)
	recvFrame(t, y)
	expectNoFrame(t, z)
}
