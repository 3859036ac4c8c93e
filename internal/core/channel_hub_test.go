package core

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxly/voxly/internal/domain"
)

func TestChannelJoinReplaysHistoryAndAnnounces(t *testing.T) {
	ctx := context.Background()
	hist := newMemHistory()
	require.NoError(t, hist.Append(ctx, domain.NewMessage("general", "bob", "hi")))
	hub := NewChannelHub(hist)

	x, xs := newTestConn("x", 1, "alice")
	hub.Join(ctx, x, "general")

	evs := xs.events(t)
	require.Equal(t, []string{EventHistory, EventSystem}, eventTypes(evs))
	msgs := evs[0]["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].(map[string]any)["text"])
	assert.Equal(t, "alice joined general", evs[1]["text"])
}

func TestChannelJoinNotifiesExistingMembers(t *testing.T) {
	ctx := context.Background()
	hub := NewChannelHub(newMemHistory())
	x, xs := newTestConn("x", 1, "alice")
	y, ys := newTestConn("y", 2, "bob")

	hub.Join(ctx, x, "general")
	xs.reset()
	hub.Join(ctx, y, "general")

	require.Equal(t, []string{EventSystem}, eventTypes(xs.events(t)))
	require.Equal(t, []string{EventHistory, EventSystem}, eventTypes(ys.events(t)))
}

func TestChannelDuplicateJoinKeepsSingleMembership(t *testing.T) {
	ctx := context.Background()
	hub := NewChannelHub(newMemHistory())
	x, xs := newTestConn("x", 1, "alice")

	hub.Join(ctx, x, "general")
	hub.Join(ctx, x, "general")

	assert.Len(t, hub.Members("general"), 1)
	// One history + one notice per call.
	assert.Equal(t,
		[]string{EventHistory, EventSystem, EventHistory, EventSystem},
		eventTypes(xs.events(t)))
}

func TestChannelJoinSwitchesChannel(t *testing.T) {
	ctx := context.Background()
	hub := NewChannelHub(newMemHistory())
	x, _ := newTestConn("x", 1, "alice")

	hub.Join(ctx, x, "general")
	hub.Join(ctx, x, "random")

	assert.Empty(t, hub.Members("general"))
	assert.Len(t, hub.Members("random"), 1)
}

func TestChannelSendDeliversToMembersOnly(t *testing.T) {
	ctx := context.Background()
	hub := NewChannelHub(newMemHistory())
	x, xs := newTestConn("x", 1, "alice")
	y, ys := newTestConn("y", 2, "bob")
	z, zs := newTestConn("z", 3, "carol")

	hub.Join(ctx, x, "general")
	hub.Join(ctx, y, "general")
	hub.Join(ctx, z, "random")
	xs.reset()
	ys.reset()
	zs.reset()

	hub.Send(ctx, x, "general", "hello")

	for _, s := range []*fakeSignal{xs, ys} {
		evs := s.events(t)
		require.Equal(t, []string{EventMessage}, eventTypes(evs), "sender and members share one delivery path")
		assert.Equal(t, "hello", evs[0]["text"])
		assert.Equal(t, "alice", evs[0]["user"])
	}
	assert.Empty(t, zs.events(t), "other channels must not see the message")
}

func TestChannelSendDropsEmptyAndMissing(t *testing.T) {
	ctx := context.Background()
	hist := newMemHistory()
	hub := NewChannelHub(hist)
	x, xs := newTestConn("x", 1, "alice")
	hub.Join(ctx, x, "general")
	xs.reset()

	hub.Send(ctx, x, "general", "")
	hub.Send(ctx, x, "", "hello")

	assert.Empty(t, xs.events(t))
	msgs, err := hist.History(ctx, "general")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestChannelSendAbortsOnStorageFailure(t *testing.T) {
	ctx := context.Background()
	hist := newMemHistory()
	hub := NewChannelHub(hist)
	x, xs := newTestConn("x", 1, "alice")
	hub.Join(ctx, x, "general")
	xs.reset()

	hist.failNext = true
	hub.Send(ctx, x, "general", "lost")

	assert.Empty(t, xs.events(t), "no broadcast when the append failed")
	assert.Len(t, hub.Members("general"), 1, "membership untouched")
}

func TestChannelJoinAbortsOnStorageFailure(t *testing.T) {
	ctx := context.Background()
	hist := newMemHistory()
	hub := NewChannelHub(hist)
	x, xs := newTestConn("x", 1, "alice")

	hist.failNext = true
	hub.Join(ctx, x, "general")

	assert.Empty(t, xs.events(t))
	assert.Empty(t, hub.Members("general"))
}

func TestChannelOrderingPreserved(t *testing.T) {
	ctx := context.Background()
	hub := NewChannelHub(newMemHistory())
	x, xs := newTestConn("x", 1, "alice")
	hub.Join(ctx, x, "general")
	xs.reset()

	for i := 0; i < 20; i++ {
		hub.Send(ctx, x, "general", fmt.Sprintf("m%d", i))
	}

	evs := xs.events(t)
	require.Len(t, evs, 20)
	for i, ev := range evs {
		assert.Equal(t, fmt.Sprintf("m%d", i), ev["text"])
	}
}

func TestChannelDropRemovesMembership(t *testing.T) {
	ctx := context.Background()
	hub := NewChannelHub(newMemHistory())
	x, _ := newTestConn("x", 1, "alice")
	hub.Join(ctx, x, "general")

	hub.Drop(x)
	hub.Drop(x)

	assert.Empty(t, hub.Members("general"))
}
