package core

import "github.com/voxly/voxly/internal/domain"

// Frame is an encoded outbound event ready for the transport.
type Frame []byte

// ID identifies one realtime connection for its lifetime.
type ID string

// SignalConnection abstracts the transport endpoint of a connection.
// Owned by the adapter; the adapter must Close() it. TrySend never
// blocks: when the peer cannot keep up the frame is dropped.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// Conn is the per-connection state record. One is created when an
// authenticated transport connects and destroyed on disconnect.
// Identity, ID and Seq are immutable; channel is guarded by the
// ChannelHub and room by the VoiceRegistry, each mutated only through
// those components.
type Conn struct {
	ID       ID
	Seq      uint64
	Identity string
	Signal   SignalConnection

	channel domain.ChannelName
	room    domain.RoomName
}

// Member returns the roster view of the connection.
func (c *Conn) Member() domain.Member {
	return domain.Member{ID: string(c.ID), Name: c.Identity}
}

// PoliteTo reports whether c is the polite peer toward other during
// offer glare. The later-connected peer yields; since connect sequence
// numbers are unique this is deterministic and anti-symmetric.
func (c *Conn) PoliteTo(other *Conn) bool {
	return c.Seq > other.Seq
}
