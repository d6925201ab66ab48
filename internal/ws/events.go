package ws

import (
	"encoding/json"
	"errors"
	"time"
)

// Inbound event types sent by clients.
const (
	EvJoinChannel  = "joinChannel"
	EvLeaveChannel = "leaveChannel"
	EvSendMessage  = "sendMessage"
	EvTyping       = "typing"
	EvStopTyping   = "stopTyping"
)

// Outbound event types relayed to room members.
const (
	EvReceiveMessage = "receiveMessage"
	EvUserTyping     = "userTyping"
	EvUserStopTyping = "userStopTyping"
)

// Identity is the verified user bound to a connection at accept time.
// The hub never trusts a client-declared identity after that.
type Identity struct {
	UserID   string
	Username string
}

// Message is the already-persisted chat message envelope. The hub relays it
// as-is; the API layer persisted it and filled ID + Timestamp before asking
// the hub to broadcast.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	ChannelID string    `json:"channelId"`
	Timestamp time.Time `json:"timestamp"`
	Avatar    string    `json:"avatar,omitempty"`
}

// Envelope is the wire frame for every inbound client event.
type Envelope struct {
	Type      string   `json:"type"`
	ChannelID string   `json:"channelId,omitempty"`
	Message   *Message `json:"message,omitempty"`
}

var errBadEnvelope = errors.New("malformed event envelope")

// DecodeEnvelope parses an inbound frame and checks the fields the given
// event type requires are present.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var ev Envelope
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Envelope{}, errBadEnvelope
	}
	switch ev.Type {
	case EvJoinChannel, EvLeaveChannel, EvTyping, EvStopTyping:
		if ev.ChannelID == "" {
			return Envelope{}, errBadEnvelope
		}
	case EvSendMessage:
		if ev.Message == nil || ev.Message.ChannelID == "" {
			return Envelope{}, errBadEnvelope
		}
	default:
		return Envelope{}, errBadEnvelope
	}
	return ev, nil
}

type receiveMessageFrame struct {
	Type    string  `json:"type"`
	Message Message `json:"message"`
}

type typingFrame struct {
	Type      string `json:"type"`
	UserID    string `json:"userId"`
	Username  string `json:"username,omitempty"`
	ChannelID string `json:"channelId"`
}

// EncodeReceiveMessage builds the receiveMessage frame for room members.
func EncodeReceiveMessage(m Message) []byte {
	b, _ := json.Marshal(receiveMessageFrame{Type: EvReceiveMessage, Message: m})
	return b
}

// EncodeUserTyping builds the userTyping frame for the other room members.
func EncodeUserTyping(channelID string, id Identity) []byte {
	b, _ := json.Marshal(typingFrame{
		Type: EvUserTyping, UserID: id.UserID, Username: id.Username, ChannelID: channelID,
	})
	return b
}

// EncodeUserStopTyping builds the userStopTyping frame.
func EncodeUserStopTyping(channelID, userID string) []byte {
	b, _ := json.Marshal(typingFrame{Type: EvUserStopTyping, UserID: userID, ChannelID: channelID})
	return b
}
