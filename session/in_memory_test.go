package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duolog/core"
)

// Interface compliance (compile-time assertion)
var _ core.TranscriptStore = (*InMemoryStore)(nil)

func TestInMemoryStore_AppendAndTranscript(t *testing.T) {
	store := NewInMemoryStore()

	require.NoError(t, store.Append("s1", core.Round{Agent1Output: "a", Agent2Output: "b"}))
	require.NoError(t, store.Append("s1", core.Round{Agent1Output: "c", Agent2Output: "d"}))
	require.NoError(t, store.Append("s2", core.Round{Agent1Output: "x", Agent2Output: "y"}))

	got, err := store.Transcript("s1")
	require.NoError(t, err)
	assert.Equal(t, []core.Round{
		{Agent1Output: "a", Agent2Output: "b"},
		{Agent1Output: "c", Agent2Output: "d"},
	}, got)

	other, err := store.Transcript("s2")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestInMemoryStore_UnknownSessionEmpty(t *testing.T) {
	store := NewInMemoryStore()

	got, err := store.Transcript("nope")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestInMemoryStore_TranscriptIsACopy(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.Append("s1", core.Round{Agent1Output: "a"}))

	got, _ := store.Transcript("s1")
	got[0].Agent1Output = "mutated"

	again, _ := store.Transcript("s1")
	assert.Equal(t, "a", again[0].Agent1Output)
}
