package core

// SpeakingBroadcaster relays the boolean "is speaking" flag to the
// other members of the sender's voice room. The server does no
// detection and no debouncing; it scopes the signal to the room and
// excludes the sender. Arbitrary call frequency is safe because
// delivery drops on full buffers instead of queuing.
type SpeakingBroadcaster struct {
	voice *VoiceRegistry
}

func NewSpeakingBroadcaster(voice *VoiceRegistry) *SpeakingBroadcaster {
	return &SpeakingBroadcaster{voice: voice}
}

// Set broadcasts {id, state} to c's room mates. No-op outside voice.
func (b *SpeakingBroadcaster) Set(c *Conn, state bool) {
	peers := b.voice.Peers(c)
	if peers == nil {
		return
	}
	f := SpeakingEvent(c.ID, state)
	for _, p := range peers {
		deliver(p, f)
	}
}
