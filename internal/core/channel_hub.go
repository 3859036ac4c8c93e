package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/voxly/voxly/internal/domain"
)

// ChannelHub tracks which connections sit in which text channel and
// fans chat events out to them. A connection is in at most one channel;
// joining a new one implicitly leaves the old one.
//
// mu guards the membership table only. Each channel additionally has a
// send mutex serializing append+broadcast, so per-channel ordering
// holds without doing store I/O under the membership lock.
type ChannelHub struct {
	history HistoryStore

	mu       sync.RWMutex
	channels map[domain.ChannelName]map[ID]*Conn

	sendMu sync.Mutex
	order  map[domain.ChannelName]*sync.Mutex
}

func NewChannelHub(history HistoryStore) *ChannelHub {
	return &ChannelHub{
		history:  history,
		channels: make(map[domain.ChannelName]map[ID]*Conn),
		order:    make(map[domain.ChannelName]*sync.Mutex),
	}
}

// Join registers c in the channel, replays the trailing history to c
// and announces the join to every member including c. Re-joining the
// same channel does not double-count membership; history and the
// notice are still emitted once per call.
func (h *ChannelHub) Join(ctx context.Context, c *Conn, name domain.ChannelName) {
	if name == "" {
		return
	}

	// History is fetched before membership mutates: a storage failure
	// aborts the whole join.
	msgs, err := h.history.History(ctx, name)
	if err != nil {
		log.Error().Err(err).Str("module", "core.channels").Str("channel", string(name)).Msg("history query failed, join aborted")
		return
	}

	h.mu.Lock()
	if c.channel != "" && c.channel != name {
		h.removeLocked(c)
	}
	members, ok := h.channels[name]
	if !ok {
		members = make(map[ID]*Conn)
		h.channels[name] = members
	}
	members[c.ID] = c
	c.channel = name
	snapshot := connsOf(members)
	h.mu.Unlock()

	deliver(c, HistoryEvent(msgs))
	notice := SystemEvent(fmt.Sprintf("%s joined %s", c.Identity, name))
	for _, m := range snapshot {
		deliver(m, notice)
	}
	log.Info().Str("module", "core.channels").Str("cid", string(c.ID)).Str("channel", string(name)).Msg("joined channel")
}

// Send persists a message and broadcasts it to every current member of
// the channel, sender included; the broadcast is the only delivery
// path. Empty text or channel is dropped silently, as is a message the
// store refused.
func (h *ChannelHub) Send(ctx context.Context, c *Conn, name domain.ChannelName, text string) {
	if name == "" || text == "" {
		return
	}
	msg := domain.NewMessage(name, c.Identity, text)

	// The per-channel lock is the single serialization point: whoever
	// appends first also broadcasts first.
	ord := h.orderMutex(name)
	ord.Lock()
	defer ord.Unlock()

	if err := h.history.Append(ctx, msg); err != nil {
		log.Error().Err(err).Str("module", "core.channels").Str("channel", string(name)).Msg("append failed, message dropped")
		return
	}
	h.broadcast(name, MessageEvent(msg))
}

// Drop removes c from its channel, if any. Called on disconnect.
func (h *ChannelHub) Drop(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

// Members returns the ids currently joined to the channel.
func (h *ChannelHub) Members(name domain.ChannelName) []ID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]ID, 0, len(h.channels[name]))
	for id := range h.channels[name] {
		out = append(out, id)
	}
	return out
}

func (h *ChannelHub) removeLocked(c *Conn) {
	if c.channel == "" {
		return
	}
	if members, ok := h.channels[c.channel]; ok {
		delete(members, c.ID)
		if len(members) == 0 {
			delete(h.channels, c.channel)
		}
	}
	c.channel = ""
}

func (h *ChannelHub) orderMutex(name domain.ChannelName) *sync.Mutex {
	h.sendMu.Lock()
	defer h.sendMu.Unlock()
	mu, ok := h.order[name]
	if !ok {
		mu = &sync.Mutex{}
		h.order[name] = mu
	}
	return mu
}

func (h *ChannelHub) broadcast(name domain.ChannelName, f Frame) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, m := range h.channels[name] {
		deliver(m, f)
	}
}

func connsOf(members map[ID]*Conn) []*Conn {
	out := make([]*Conn, 0, len(members))
	for _, m := range members {
		out = append(out, m)
	}
	return out
}

// deliver is fire-and-forget: a full peer buffer means the frame is
// lost for that peer, never that the caller blocks.
func deliver(c *Conn, f Frame) {
	if f == nil {
		return
	}
	if err := c.Signal.TrySend(f); err != nil {
		log.Debug().Err(err).Str("module", "core").Str("cid", string(c.ID)).Msg("frame dropped")
	}
}
