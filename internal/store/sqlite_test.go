package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionFlags_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	value, err := s.GetSessionFlag(ctx, "sess-1", "export_gate")
	require.NoError(t, err)
	assert.Equal(t, "", value, "absent flag reads as empty")

	require.NoError(t, s.SetSessionFlag(ctx, "sess-1", "export_gate", "unlocked"))

	value, err = s.GetSessionFlag(ctx, "sess-1", "export_gate")
	require.NoError(t, err)
	assert.Equal(t, "unlocked", value)

	// Flags are scoped per session.
	value, err = s.GetSessionFlag(ctx, "sess-2", "export_gate")
	require.NoError(t, err)
	assert.Equal(t, "", value)
}

func TestSessionFlags_Overwrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetSessionFlag(ctx, "sess-1", "k", "a"))
	require.NoError(t, s.SetSessionFlag(ctx, "sess-1", "k", "b"))

	value, err := s.GetSessionFlag(ctx, "sess-1", "k")
	require.NoError(t, err)
	assert.Equal(t, "b", value)
}

func TestActivity_AddAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddActivity(ctx, ActivityEntry{
		SessionID: "sess-1",
		Action:    ActionCaseOpened,
		Caso:      "C1",
		Details:   map[string]interface{}{"pericias": 3},
	}))
	require.NoError(t, s.AddActivity(ctx, ActivityEntry{
		SessionID: "sess-1",
		Action:    ActionGateMismatch,
	}))

	entries, err := s.GetActivity(ctx, "sess-1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	for _, e := range entries {
		assert.NotEmpty(t, e.ID, "entries get generated IDs")
		assert.Equal(t, "sess-1", e.SessionID)
	}

	entries, err = s.GetActivity(ctx, "other", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestActivity_Limit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.AddActivity(ctx, ActivityEntry{
			SessionID: "sess-1",
			Action:    ActionIndexLoaded,
		}))
	}

	entries, err := s.GetActivity(ctx, "sess-1", 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}
