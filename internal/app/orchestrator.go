package app

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/voxly/voxly/internal/core"
	"github.com/voxly/voxly/internal/domain"
)

// Orchestrator fronts the realtime engine for the transport adapters.
// Every inbound event lands here after the session binder has vouched
// for the connection; the orchestrator routes it to the right
// component and keeps the shared connection record consistent.
type Orchestrator struct {
	Registry *Registry
	Channels *core.ChannelHub
	Voice    *core.VoiceRegistry
	Relay    *core.SignalRelay
	Speaking *core.SpeakingBroadcaster
}

// NewOrchestrator wires the engine around the given history store.
func NewOrchestrator(history core.HistoryStore) *Orchestrator {
	reg := NewRegistry()
	voice := core.NewVoiceRegistry(reg)
	return &Orchestrator{
		Registry: reg,
		Channels: core.NewChannelHub(history),
		Voice:    voice,
		Relay:    core.NewSignalRelay(reg, voice),
		Speaking: core.NewSpeakingBroadcaster(voice),
	}
}

// Connect binds an authenticated transport into the engine. The caller
// must already hold a verified identity; unauthenticated transports
// never get this far.
func (o *Orchestrator) Connect(identity string, sig core.SignalConnection) *core.Conn {
	return o.Registry.Bind(identity, sig)
}

func (o *Orchestrator) JoinChannel(ctx context.Context, c *core.Conn, name domain.ChannelName) {
	o.Channels.Join(ctx, c, name)
}

func (o *Orchestrator) SendMessage(ctx context.Context, c *core.Conn, name domain.ChannelName, text string) {
	o.Channels.Send(ctx, c, name, text)
}

func (o *Orchestrator) JoinVoice(c *core.Conn, room domain.RoomName) {
	o.Voice.Join(c, room)
}

func (o *Orchestrator) LeaveVoice(c *core.Conn) {
	o.Voice.Leave(c)
}

func (o *Orchestrator) RelaySignal(kind core.SignalKind, c *core.Conn, target core.ID, payload json.RawMessage) {
	if err := o.Relay.Relay(kind, c, target, payload); err != nil {
		// Dropped silently toward the client; the log is for operators.
		log.Debug().Err(err).Str("module", "app").Str("cid", string(c.ID)).Str("kind", string(kind)).Msg("relay dropped")
	}
}

func (o *Orchestrator) SetSpeaking(c *core.Conn, state bool) {
	o.Speaking.Set(c, state)
}

// Disconnect tears down all state for the connection. Idempotent: the
// registry unbinds first and only the first caller proceeds to room
// and channel cleanup.
func (o *Orchestrator) Disconnect(c *core.Conn) {
	if !o.Registry.Unbind(c.ID) {
		return
	}
	o.Voice.Disconnect(c)
	o.Channels.Drop(c)
	log.Info().Str("module", "app").Str("cid", string(c.ID)).Msg("disconnected")
}
