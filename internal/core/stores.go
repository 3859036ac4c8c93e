package core

import (
	"context"

	"github.com/voxly/voxly/internal/domain"
)

// HistoryLimit caps how many messages a channel retains. Stores evict
// the oldest entries first on every append.
const HistoryLimit = 100

// HistoryStore is the external message log, one ordered list per
// channel. Calls may be slow; the engine never invokes them while
// holding a membership lock.
type HistoryStore interface {
	Append(ctx context.Context, msg domain.Message) error
	History(ctx context.Context, channel domain.ChannelName) ([]domain.Message, error)
}

// CredentialStore is the external account registry. The engine itself
// only needs it at connect time, through the auth service.
type CredentialStore interface {
	FindUser(ctx context.Context, name string) (hash string, ok bool, err error)
	PutUser(ctx context.Context, name, hash string) error
}

// Publisher delivers an event to every live connection, whatever room
// or channel it is in. Used for the global presence notices.
type Publisher interface {
	PublishAll(Frame)
}

// Resolver maps a connection id to its live record.
type Resolver interface {
	Lookup(ID) (*Conn, bool)
}
