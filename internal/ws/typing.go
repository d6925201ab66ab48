package ws

import (
	"sync"
	"time"
)

// DefaultTypingTTL matches the client-side inactivity window: a typing
// session with no refresh for this long is treated as stopped.
const DefaultTypingTTL = 3 * time.Second

type typingKey struct {
	channelID string
	userID    string
}

type typingState struct {
	username  string
	expiresAt time.Time
}

// TypingEntry identifies one live typing session, returned by SweepExpired
// so the hub can relay userStopTyping for sessions that timed out.
type TypingEntry struct {
	ChannelID string
	UserID    string
	Username  string
}

// TypingTracker holds the ephemeral (channel, user) typing state. Entries
// past their TTL are logically absent whether or not they have been purged;
// reads skip and drop them lazily, and the hub runs SweepExpired on a ticker
// so watchers are told about timeouts.
type TypingTracker struct {
	mu      sync.Mutex
	entries map[typingKey]typingState
	ttl     time.Duration
	now     func() time.Time
}

// NewTypingTracker creates a tracker with the given TTL. A zero ttl falls
// back to DefaultTypingTTL.
func NewTypingTracker(ttl time.Duration) *TypingTracker {
	if ttl <= 0 {
		ttl = DefaultTypingTTL
	}
	return &TypingTracker{
		entries: make(map[typingKey]typingState),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Start inserts or refreshes the typing entry for (channel, user) and
// returns true when this begins a new session, i.e. the previous entry was
// absent or already expired. Repeated keystrokes within the TTL refresh the
// window without starting a new session, so the room is notified only once.
func (t *TypingTracker) Start(channelID string, id Identity) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	key := typingKey{channelID: channelID, userID: id.UserID}
	prev, ok := t.entries[key]
	t.entries[key] = typingState{username: id.Username, expiresAt: now.Add(t.ttl)}
	return !ok || !prev.expiresAt.After(now)
}

// Stop removes the entry if a live one exists and reports whether it did.
// Stopping an absent or expired entry is a no-op.
func (t *TypingTracker) Stop(channelID, userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := typingKey{channelID: channelID, userID: userID}
	prev, ok := t.entries[key]
	if !ok {
		return false
	}
	delete(t.entries, key)
	return prev.expiresAt.After(t.now())
}

// ActiveTypers returns the users with a live typing entry in the channel,
// excluding the given user. Expired entries found along the way are purged.
func (t *TypingTracker) ActiveTypers(channelID, excludingUserID string) []TypingEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	var out []TypingEntry
	for key, st := range t.entries {
		if key.channelID != channelID {
			continue
		}
		if !st.expiresAt.After(now) {
			delete(t.entries, key)
			continue
		}
		if key.userID == excludingUserID {
			continue
		}
		out = append(out, TypingEntry{ChannelID: key.channelID, UserID: key.userID, Username: st.username})
	}
	return out
}

// SweepExpired purges every expired entry and returns them.
func (t *TypingTracker) SweepExpired() []TypingEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	var out []TypingEntry
	for key, st := range t.entries {
		if st.expiresAt.After(now) {
			continue
		}
		delete(t.entries, key)
		out = append(out, TypingEntry{ChannelID: key.channelID, UserID: key.userID, Username: st.username})
	}
	return out
}
