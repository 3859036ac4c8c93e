package core

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/voxly/voxly/internal/domain"
)

// Outbound event types. These are the wire names the original web
// client listens for, so they stay hyphenated.
const (
	EventHistory         = "history"
	EventMessage         = "message"
	EventSystem          = "system"
	EventVoiceMembers    = "voice-members"
	EventSidebarMembers  = "sidebar-members"
	EventUserConnecting  = "user-connecting"
	EventUserJoinedVoice = "user-joined-voice"
	EventVoiceUserLeft   = "voice-user-left"
	EventSpeaking        = "speaking"
)

// SignalKind discriminates the three relayed negotiation events.
type SignalKind string

const (
	SignalOffer        SignalKind = "offer"
	SignalAnswer       SignalKind = "answer"
	SignalICECandidate SignalKind = "ice-candidate"
)

func encode(v any) Frame {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "core.events").Msg("event marshal")
		return nil
	}
	return b
}

func HistoryEvent(msgs []domain.Message) Frame {
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return encode(struct {
		Type     string           `json:"type"`
		Messages []domain.Message `json:"messages"`
	}{EventHistory, msgs})
}

func MessageEvent(msg domain.Message) Frame {
	return encode(struct {
		Type string `json:"type"`
		domain.Message
	}{EventMessage, msg})
}

func SystemEvent(text string) Frame {
	return encode(struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{EventSystem, text})
}

func VoiceMembersEvent(room domain.RoomName, members []domain.Member) Frame {
	if members == nil {
		members = []domain.Member{}
	}
	return encode(struct {
		Type    string          `json:"type"`
		Room    domain.RoomName `json:"room"`
		Members []domain.Member `json:"members"`
	}{EventVoiceMembers, room, members})
}

func SidebarMembersEvent(members []domain.Member) Frame {
	if members == nil {
		members = []domain.Member{}
	}
	return encode(struct {
		Type    string          `json:"type"`
		Members []domain.Member `json:"members"`
	}{EventSidebarMembers, members})
}

func presenceEvent(typ string, id ID) Frame {
	return encode(struct {
		Type string `json:"type"`
		ID   ID     `json:"id"`
	}{typ, id})
}

func UserConnectingEvent(id ID) Frame  { return presenceEvent(EventUserConnecting, id) }
func UserJoinedVoiceEvent(id ID) Frame { return presenceEvent(EventUserJoinedVoice, id) }
func VoiceUserLeftEvent(id ID) Frame   { return presenceEvent(EventVoiceUserLeft, id) }

// SignalEvent wraps a relayed negotiation payload. Polite tells the
// receiver whether it must yield if this offer collides with one of
// its own; it is meaningful for offers and carried on all kinds for
// symmetry.
func SignalEvent(kind SignalKind, sender ID, polite bool, payload json.RawMessage) Frame {
	return encode(struct {
		Type    string          `json:"type"`
		Sender  ID              `json:"sender"`
		Polite  bool            `json:"polite"`
		Payload json.RawMessage `json:"payload"`
	}{string(kind), sender, polite, payload})
}

func SpeakingEvent(id ID, state bool) Frame {
	return encode(struct {
		Type  string `json:"type"`
		ID    ID     `json:"id"`
		State bool   `json:"state"`
	}{EventSpeaking, id, state})
}
