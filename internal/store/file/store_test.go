package file

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxly/voxly/internal/core"
	"github.com/voxly/voxly/internal/domain"
)

func TestHistoryCapKeepsLastHundred(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	for i := 0; i < core.HistoryLimit+1; i++ {
		msg := domain.NewMessage("general", "alice", fmt.Sprintf("m%d", i))
		require.NoError(t, s.Append(ctx, msg))
	}

	msgs, err := s.History(ctx, "general")
	require.NoError(t, err)
	require.Len(t, msgs, core.HistoryLimit)
	assert.Equal(t, "m1", msgs[0].Text, "oldest entry evicted first")
	assert.Equal(t, fmt.Sprintf("m%d", core.HistoryLimit), msgs[len(msgs)-1].Text)
}

func TestHistoryIsPerChannel(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Append(ctx, domain.NewMessage("general", "alice", "hi")))
	require.NoError(t, s.Append(ctx, domain.NewMessage("random", "bob", "yo")))

	msgs, err := s.History(ctx, "general")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Text)
}

func TestStateSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, domain.NewMessage("general", "alice", "hi")))
	require.NoError(t, s.PutUser(ctx, "alice", "hash"))

	s2, err := Open(dir)
	require.NoError(t, err)

	msgs, err := s2.History(ctx, "general")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "alice", msgs[0].Author)

	hash, ok, err := s2.FindUser(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hash", hash)
}

func TestFindUserUnknown(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	_, ok, err := s.FindUser(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}
