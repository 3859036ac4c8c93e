package ws

import (
	"context"
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/voxly/voxly/internal/core"
	"github.com/voxly/voxly/internal/domain"
)

// handleFrame dispatches one inbound event. Anything malformed is
// dropped without a response; a bad client cannot take the process
// down or learn anything from the failure.
func (ctl *Controller) handleFrame(ctx context.Context, bound *core.Conn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Debug().Err(err).Str("module", "ws").Msg("bad json")
		return
	}

	switch env.Type {
	case "join":
		ctl.handleJoin(ctx, bound, data)
	case "message":
		ctl.handleMessage(ctx, bound, data)
	case "join-voice":
		ctl.handleJoinVoice(bound, data)
	case "leave-voice":
		ctl.Orch.LeaveVoice(bound)
	case "offer":
		ctl.handleDescription(bound, core.SignalOffer, data)
	case "answer":
		ctl.handleDescription(bound, core.SignalAnswer, data)
	case "ice-candidate":
		ctl.handleCandidate(bound, data)
	case "speaking":
		ctl.handleSpeaking(bound, data)
	default:
		log.Debug().Str("module", "ws").Str("type", env.Type).Msg("unknown event")
	}
}

func (ctl *Controller) handleJoin(ctx context.Context, bound *core.Conn, data []byte) {
	var p struct {
		Channel string `json:"channel"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Channel == "" {
		log.Debug().Str("module", "ws").Msg("bad join payload")
		return
	}
	ctl.Orch.JoinChannel(ctx, bound, domain.ChannelName(p.Channel))
}

func (ctl *Controller) handleMessage(ctx context.Context, bound *core.Conn, data []byte) {
	var p struct {
		Channel string `json:"channel"`
		Text    string `json:"text"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Debug().Str("module", "ws").Msg("bad message payload")
		return
	}
	ctl.Orch.SendMessage(ctx, bound, domain.ChannelName(p.Channel), p.Text)
}

func (ctl *Controller) handleJoinVoice(bound *core.Conn, data []byte) {
	var p struct {
		Room string `json:"room"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		log.Debug().Str("module", "ws").Msg("bad join-voice payload")
		return
	}
	ctl.Orch.JoinVoice(bound, domain.RoomName(p.Room))
}

// handleDescription relays an offer or answer. The SDP is checked only
// for shape, with the same type the clients produce; its content
// passes through untouched.
func (ctl *Controller) handleDescription(bound *core.Conn, kind core.SignalKind, data []byte) {
	var p struct {
		Target string          `json:"target"`
		SDP    json.RawMessage `json:"sdp"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Target == "" || len(p.SDP) == 0 {
		log.Debug().Str("module", "ws").Str("kind", string(kind)).Msg("bad signal payload")
		return
	}
	var desc webrtc.SessionDescription
	if err := json.Unmarshal(p.SDP, &desc); err != nil {
		log.Debug().Err(err).Str("module", "ws").Str("kind", string(kind)).Msg("not a session description")
		return
	}
	ctl.Orch.RelaySignal(kind, bound, core.ID(p.Target), p.SDP)
}

func (ctl *Controller) handleCandidate(bound *core.Conn, data []byte) {
	var p struct {
		Target    string          `json:"target"`
		Candidate json.RawMessage `json:"candidate"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Target == "" || len(p.Candidate) == 0 {
		log.Debug().Str("module", "ws").Msg("bad candidate payload")
		return
	}
	var init webrtc.ICECandidateInit
	if err := json.Unmarshal(p.Candidate, &init); err != nil {
		log.Debug().Err(err).Str("module", "ws").Msg("not an ice candidate")
		return
	}
	ctl.Orch.RelaySignal(core.SignalICECandidate, bound, core.ID(p.Target), p.Candidate)
}

func (ctl *Controller) handleSpeaking(bound *core.Conn, data []byte) {
	var p struct {
		State bool `json:"state"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Debug().Str("module", "ws").Msg("bad speaking payload")
		return
	}
	ctl.Orch.SetSpeaking(bound, p.State)
}
