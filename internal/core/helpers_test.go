package core

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voxly/voxly/internal/domain"
)

// fakeSignal records every frame delivered to a connection.
type fakeSignal struct {
	mu     sync.Mutex
	frames []Frame
	closed bool
	full   bool
}

func (f *fakeSignal) TrySend(fr Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("connection closed")
	}
	if f.full {
		return errors.New("backpressure")
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeSignal) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

// events decodes the recorded frames into generic maps.
func (f *fakeSignal) events(t *testing.T) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.frames))
	for _, fr := range f.frames {
		var m map[string]any
		require.NoError(t, json.Unmarshal(fr, &m))
		out = append(out, m)
	}
	return out
}

func (f *fakeSignal) reset() {
	f.mu.Lock()
	f.frames = nil
	f.mu.Unlock()
}

func eventTypes(evs []map[string]any) []string {
	out := make([]string, 0, len(evs))
	for _, e := range evs {
		out = append(out, e["type"].(string))
	}
	return out
}

func newTestConn(id string, seq uint64, identity string) (*Conn, *fakeSignal) {
	fs := &fakeSignal{}
	return &Conn{ID: ID(id), Seq: seq, Identity: identity, Signal: fs}, fs
}

// fakePublisher collects global broadcasts.
type fakePublisher struct {
	mu     sync.Mutex
	frames []Frame
}

func (p *fakePublisher) PublishAll(f Frame) {
	p.mu.Lock()
	p.frames = append(p.frames, f)
	p.mu.Unlock()
}

func (p *fakePublisher) events(t *testing.T) []map[string]any {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]map[string]any, 0, len(p.frames))
	for _, fr := range p.frames {
		var m map[string]any
		require.NoError(t, json.Unmarshal(fr, &m))
		out = append(out, m)
	}
	return out
}

// fakeResolver maps ids to connections for the relay.
type fakeResolver map[ID]*Conn

func (r fakeResolver) Lookup(id ID) (*Conn, bool) {
	c, ok := r[id]
	return c, ok
}

// memHistory is an in-memory history store with injectable failures.
type memHistory struct {
	mu       sync.Mutex
	logs     map[domain.ChannelName][]domain.Message
	failNext bool
}

func newMemHistory() *memHistory {
	return &memHistory{logs: make(map[domain.ChannelName][]domain.Message)}
}

func (m *memHistory) Append(_ context.Context, msg domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return errors.New("storage unavailable")
	}
	log := append(m.logs[msg.Channel], msg)
	if len(log) > HistoryLimit {
		log = log[len(log)-HistoryLimit:]
	}
	m.logs[msg.Channel] = log
	return nil
}

func (m *memHistory) History(_ context.Context, channel domain.ChannelName) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return nil, errors.New("storage unavailable")
	}
	return append([]domain.Message(nil), m.logs[channel]...), nil
}
