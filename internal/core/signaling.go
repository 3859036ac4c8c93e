package core

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"
)

var (
	ErrNotInVoice       = errors.New("sender not in a voice room")
	ErrTargetNotInVoice = errors.New("target not in a voice room")
	ErrUnknownTarget    = errors.New("unknown target connection")
)

// SignalRelay forwards offer/answer/ICE payloads between two
// connections. Payloads are opaque blobs; the relay only checks that
// both ends are currently in voice, which shuts out stale signaling
// after a leave. Delivery is best-effort with no acknowledgement: the
// negotiation protocol above this layer self-corrects by renegotiating.
type SignalRelay struct {
	conns Resolver
	voice *VoiceRegistry
}

func NewSignalRelay(conns Resolver, voice *VoiceRegistry) *SignalRelay {
	return &SignalRelay{conns: conns, voice: voice}
}

// Relay delivers payload plus the sender id to target. The receiver
// also gets its polite flag toward the sender: during offer glare the
// polite side answers the incoming offer and rolls back its own, the
// impolite side ignores the collision and waits for its answer.
func (s *SignalRelay) Relay(kind SignalKind, from *Conn, target ID, payload json.RawMessage) error {
	if _, ok := s.voice.RoomOf(from); !ok {
		return ErrNotInVoice
	}
	to, ok := s.conns.Lookup(target)
	if !ok {
		return ErrUnknownTarget
	}
	if _, ok := s.voice.RoomOf(to); !ok {
		return ErrTargetNotInVoice
	}

	deliver(to, SignalEvent(kind, from.ID, to.PoliteTo(from), payload))
	log.Debug().Str("module", "core.signaling").Str("kind", string(kind)).
		Str("from", string(from.ID)).Str("to", string(target)).Msg("relayed")
	return nil
}
