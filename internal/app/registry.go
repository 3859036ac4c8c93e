package app

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/voxly/voxly/internal/core"
)

// Registry owns the connection-state table: every live connection,
// keyed by its opaque id. It also hands out the connect-order sequence
// numbers that fix the polite/impolite total order.
type Registry struct {
	mu    sync.RWMutex
	conns map[core.ID]*core.Conn
	seq   uint64
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[core.ID]*core.Conn)}
}

// Bind creates the connection record for an authenticated transport.
// Identity is fixed for the record's lifetime.
func (r *Registry) Bind(identity string, sig core.SignalConnection) *core.Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	c := &core.Conn{
		ID:       core.ID(uuid.NewString()),
		Seq:      r.seq,
		Identity: identity,
		Signal:   sig,
	}
	r.conns[c.ID] = c
	log.Info().Str("module", "app.registry").Str("cid", string(c.ID)).Str("user", identity).Msg("bound connection")
	return c
}

// Unbind removes the record. Returns false if it was already gone, so
// disconnect cleanup runs exactly once even when the transport reports
// the close more than once.
func (r *Registry) Unbind(id core.ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; !ok {
		return false
	}
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Str("cid", string(id)).Msg("unbound connection")
	return true
}

// Lookup implements core.Resolver.
func (r *Registry) Lookup(id core.ID) (*core.Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

// PublishAll implements core.Publisher: fire-and-forget fan-out to
// every live connection.
func (r *Registry) PublishAll(f core.Frame) {
	if f == nil {
		return
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.conns {
		_ = c.Signal.TrySend(f)
	}
}

// Count reports how many connections are live.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
