package ws

import "sync"

// RoomRegistry maps channel IDs to the connections subscribed to them.
// Rooms are created lazily on first join; an empty room is just a missing
// map entry. A reverse index keeps disconnect cleanup atomic with respect
// to concurrent joins for the same connection.
type RoomRegistry struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Conn]struct{}
	byConn map[*Conn]map[string]struct{}
}

// NewRoomRegistry creates an empty registry
func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms:  make(map[string]map[*Conn]struct{}),
		byConn: make(map[*Conn]map[string]struct{}),
	}
}

// Join adds a connection to a channel's room. Re-joining is a no-op.
func (r *RoomRegistry) Join(channelID string, c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room := r.rooms[channelID]
	if room == nil {
		room = make(map[*Conn]struct{})
		r.rooms[channelID] = room
	}
	room[c] = struct{}{}
	chans := r.byConn[c]
	if chans == nil {
		chans = make(map[string]struct{})
		r.byConn[c] = chans
	}
	chans[channelID] = struct{}{}
}

// Leave removes a connection from a channel's room. Leaving a room the
// connection is not in is a no-op.
func (r *RoomRegistry) Leave(channelID string, c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok := r.rooms[channelID]; ok {
		delete(room, c)
	}
	if chans, ok := r.byConn[c]; ok {
		delete(chans, channelID)
		if len(chans) == 0 {
			delete(r.byConn, c)
		}
	}
}

// Members returns a snapshot of the room's current connections. Callers may
// iterate it freely; concurrent joins and leaves never touch the returned
// slice.
func (r *RoomRegistry) Members(channelID string) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room := r.rooms[channelID]
	out := make([]*Conn, 0, len(room))
	for c := range room {
		out = append(out, c)
	}
	return out
}

// Channels returns a snapshot of the channel IDs the connection has joined.
func (r *RoomRegistry) Channels(c *Conn) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byConn[c]))
	for id := range r.byConn[c] {
		out = append(out, id)
	}
	return out
}

// RemoveAll removes the connection from every room it belongs to and returns
// the channels it left. After it returns no snapshot contains the connection
// until a new Join.
func (r *RoomRegistry) RemoveAll(c *Conn) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	chans := r.byConn[c]
	out := make([]string, 0, len(chans))
	for id := range chans {
		if room, ok := r.rooms[id]; ok {
			delete(room, c)
		}
		out = append(out, id)
	}
	delete(r.byConn, c)
	return out
}
