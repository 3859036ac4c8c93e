package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/voxly/voxly/internal/domain"
)

// VoiceRegistry tracks voice room presence. Each room keeps its roster
// in join order; a connection is in at most one room at any moment and
// a room move broadcasts the leave before the join, so no observer
// ever sees the connection in two rosters.
//
// All mutation and the broadcasts it triggers happen under one mutex;
// sends are non-blocking so nothing slow runs while it is held.
type VoiceRegistry struct {
	global Publisher

	mu    sync.Mutex
	rooms map[domain.RoomName][]*Conn
}

func NewVoiceRegistry(global Publisher) *VoiceRegistry {
	return &VoiceRegistry{
		global: global,
		rooms:  make(map[domain.RoomName][]*Conn),
	}
}

// Join moves c into room. Re-joining the current room is a no-op.
// Existing members get a "connecting" hint before the roster update so
// UIs can show a placeholder while negotiation runs, then a "joined"
// event telling each of them to initiate toward c. The joiner itself
// learns the peers from the roster, not from the join event.
func (r *VoiceRegistry) Join(c *Conn, room domain.RoomName) {
	if room == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.room == room {
		return
	}
	if c.room != "" {
		r.leaveLocked(c)
	}

	existing := append([]*Conn(nil), r.rooms[room]...)
	r.rooms[room] = append(r.rooms[room], c)
	c.room = room

	connecting := UserConnectingEvent(c.ID)
	for _, m := range existing {
		deliver(m, connecting)
	}
	r.broadcastRosterLocked(room)
	joined := UserJoinedVoiceEvent(c.ID)
	for _, m := range existing {
		deliver(m, joined)
	}
	log.Info().Str("module", "core.voice").Str("cid", string(c.ID)).Str("room", string(room)).Msg("joined voice")
}

// Leave removes c from its room, if any. Safe to call repeatedly and
// after Disconnect; cleanup happens at most once.
func (r *VoiceRegistry) Leave(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.room == "" {
		return
	}
	r.leaveLocked(c)
}

// Disconnect performs the same cleanup as Leave. The registry must
// never retain a roster entry for a closed transport, whether or not
// the client sent an explicit leave first.
func (r *VoiceRegistry) Disconnect(c *Conn) {
	r.Leave(c)
}

// RoomOf returns the room c currently occupies.
func (r *VoiceRegistry) RoomOf(c *Conn) (domain.RoomName, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.room == "" {
		return "", false
	}
	return c.room, true
}

// Peers returns the other members of c's room, in roster order.
func (r *VoiceRegistry) Peers(c *Conn) []*Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.room == "" {
		return nil
	}
	out := make([]*Conn, 0, len(r.rooms[c.room]))
	for _, m := range r.rooms[c.room] {
		if m.ID != c.ID {
			out = append(out, m)
		}
	}
	return out
}

// Roster returns the room's member list in join order.
func (r *VoiceRegistry) Roster(room domain.RoomName) []domain.Member {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rosterLocked(room)
}

func (r *VoiceRegistry) rosterLocked(room domain.RoomName) []domain.Member {
	out := make([]domain.Member, 0, len(r.rooms[room]))
	for _, m := range r.rooms[room] {
		out = append(out, m.Member())
	}
	return out
}

func (r *VoiceRegistry) leaveLocked(c *Conn) {
	room := c.room
	members := r.rooms[room]
	for i, m := range members {
		if m.ID == c.ID {
			r.rooms[room] = append(members[:i], members[i+1:]...)
			break
		}
	}
	if len(r.rooms[room]) == 0 {
		delete(r.rooms, room)
	}
	c.room = ""

	// Global notice first, then the shrunken roster: sidebar observers
	// see the leave in the same order room members do.
	r.global.PublishAll(VoiceUserLeftEvent(c.ID))
	r.broadcastRosterLocked(room)
	log.Info().Str("module", "core.voice").Str("cid", string(c.ID)).Str("room", string(room)).Msg("left voice")
}

func (r *VoiceRegistry) broadcastRosterLocked(room domain.RoomName) {
	roster := r.rosterLocked(room)
	f := VoiceMembersEvent(room, roster)
	for _, m := range r.rooms[room] {
		deliver(m, f)
	}
	r.global.PublishAll(SidebarMembersEvent(roster))
}
