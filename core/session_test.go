package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession() *Session {
	return NewSession("why is the sky blue?", 3, time.Minute, "alpha", "beta")
}

func TestSession_TryStartIdempotent(t *testing.T) {
	s := newTestSession()

	require.True(t, s.TryStart())
	assert.True(t, s.Running())
	assert.False(t, s.TryStart(), "second start must be a no-op")
}

func TestSession_FinishOnce(t *testing.T) {
	s := newTestSession()
	require.True(t, s.TryStart())

	require.True(t, s.Finish(StateCompleted))
	assert.Equal(t, StateCompleted, s.State())

	assert.False(t, s.Finish(StateFailed), "terminal states are mutually exclusive")
	assert.Equal(t, StateCompleted, s.State())
}

func TestSession_FinishRejectsNonTerminal(t *testing.T) {
	s := newTestSession()
	require.True(t, s.TryStart())
	assert.False(t, s.Finish(StateRunning))
	assert.True(t, s.Running())
}

func TestSession_FinishBeforeStart(t *testing.T) {
	s := newTestSession()
	assert.False(t, s.Finish(StateCancelled))
	assert.Equal(t, StateIdle, s.State())
}

func TestSession_CancelFlag(t *testing.T) {
	s := newTestSession()
	assert.False(t, s.Cancelled())
	s.Cancel()
	assert.True(t, s.Cancelled())
}

func TestSession_Reset(t *testing.T) {
	s := newTestSession()
	require.True(t, s.TryStart())
	s.Cancel()
	s.RecordRound()
	require.True(t, s.Finish(StateCancelled))

	s.Reset()
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, 0, s.Rounds())
	assert.False(t, s.Cancelled())
	assert.True(t, s.TryStart())
}

func TestSession_ResetIgnoredWhileRunning(t *testing.T) {
	s := newTestSession()
	require.True(t, s.TryStart())
	s.Reset()
	assert.True(t, s.Running())
}

func TestSessionState_Terminal(t *testing.T) {
	assert.False(t, StateIdle.Terminal())
	assert.False(t, StateRunning.Terminal())
	assert.True(t, StateCompleted.Terminal())
	assert.True(t, StateCancelled.Terminal())
	assert.True(t, StateFailed.Terminal())
}

func TestPromptState_SeededWithInitial(t *testing.T) {
	ps := NewPromptState("the question")
	assert.Equal(t, "the question", ps.Initial)
	assert.Equal(t, "the question", ps.Current)
}
