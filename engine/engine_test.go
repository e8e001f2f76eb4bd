package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duolog/core"
	"duolog/model"
	"duolog/session"
)

// invokerFunc adapts a function to model.Invoker for tests that need
// side effects during an invocation.
type invokerFunc func(ctx context.Context, ref model.Reference, prompt string) (string, error)

func (f invokerFunc) Invoke(ctx context.Context, ref model.Reference, prompt string) (string, error) {
	return f(ctx, ref, prompt)
}

// listerFunc adapts a function to ModelLister.
type listerFunc func(ctx context.Context) ([]string, error)

func (f listerFunc) ListModels(ctx context.Context) ([]string, error) { return f(ctx) }

func fastConfig() Config {
	return Config{
		MaxAttempts:         5,
		RetryBaseDelay:      time.Millisecond,
		InterTurnCooldown:   0,
		LanguageInstruction: DefaultConfig.LanguageInstruction,
		PollInterval:        time.Millisecond,
	}
}

func localRegistry() *model.Registry {
	r := model.NewRegistry()
	r.SetLocalModels([]string{"alpha", "beta"})
	return r
}

func newTestController(invoker model.Invoker) (*Controller, *core.EventChannel) {
	events := core.NewEventChannel()
	c := New(events, localRegistry(), invoker, model.StaticStore{}, WithConfig(fastConfig()))
	return c, events
}

// collectUntilFinished drains events until the finished event arrives,
// returning everything seen including it.
func collectUntilFinished(t *testing.T, events *core.EventChannel) []core.Event {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	var all []core.Event
	for time.Now().Before(deadline) {
		for _, ev := range events.Drain() {
			all = append(all, ev)
			if ev.Kind == core.EventFinished {
				return all
			}
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("no finished event before deadline")
	return nil
}

func countKind(events []core.Event, kind core.EventKind) int {
	n := 0
	for _, ev := range events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func hasNote(events []core.Event, substr string) bool {
	for _, ev := range events {
		if ev.Kind == core.EventSystemNote && strings.Contains(ev.Text, substr) {
			return true
		}
	}
	return false
}

func TestController_CompletesAllRounds(t *testing.T) {
	mock := model.NewMockInvoker()
	c, events := newTestController(mock)
	sess := core.NewSession("Why is the sky blue?", 2, 10*time.Second, "alpha", "beta")

	require.NoError(t, c.Start(sess))
	all := collectUntilFinished(t, events)

	assert.Equal(t, core.StateCompleted, sess.State())
	assert.Equal(t, 2, sess.Rounds())
	assert.Equal(t, 4, mock.CallCount())
	assert.Equal(t, 4, countKind(all, core.EventAgentOutput))
	assert.Equal(t, 1, countKind(all, core.EventFinished))
	assert.Equal(t, core.EventFinished, all[len(all)-1].Kind)
	assert.True(t, hasNote(all, "--- round 1/2 ---"))
	assert.True(t, hasNote(all, "--- round 2/2 ---"))
	assert.True(t, hasNote(all, "=== dialogue finished ==="))
}

func TestController_PromptPropagation(t *testing.T) {
	mock := model.NewMockInvoker().Respond("A1").Respond("A2").Respond("B1").Respond("B2")
	c, events := newTestController(mock)
	initial := "Why is the sky blue?"
	sess := core.NewSession(initial, 2, 10*time.Second, "alpha", "beta")

	require.NoError(t, c.Start(sess))
	collectUntilFinished(t, events)
	require.Equal(t, core.StateCompleted, sess.State())

	instr := fastConfig().LanguageInstruction + "\n\n"
	calls := mock.Calls()
	require.Len(t, calls, 4)

	// Round 1: agent 1 gets the initial prompt, agent 2 gets agent 1's
	// output paired with the immutable initial prompt.
	assert.Equal(t, instr+initial, calls[0].Prompt)
	assert.Equal(t, instr+agent2Prompt("A1", initial), calls[1].Prompt)

	// Round 2: the working prompt derives from both round-1 outputs plus
	// the initial prompt, never from the previous working prompt.
	assert.Equal(t, instr+nextRoundPrompt("A1", "A2", initial), calls[2].Prompt)
	assert.Equal(t, instr+agent2Prompt("B1", initial), calls[3].Prompt)
}

func TestController_CancelBetweenTurnsSkipsAgent2(t *testing.T) {
	var c *Controller
	sess := core.NewSession("prompt", 3, 10*time.Second, "alpha", "beta")

	calls := 0
	invoker := invokerFunc(func(ctx context.Context, ref model.Reference, prompt string) (string, error) {
		calls++
		c.Cancel(sess) // lands while agent 1's turn is in flight
		return "output", nil
	})
	c, events := newTestController(invoker)

	require.NoError(t, c.Start(sess))
	all := collectUntilFinished(t, events)

	assert.Equal(t, core.StateCancelled, sess.State())
	assert.Equal(t, 1, calls)
	assert.True(t, hasNote(all, "dialogue stopped before agent 2's turn"))
	assert.Equal(t, core.EventFinished, all[len(all)-1].Kind)
}

func TestController_CancelBeforeRoundStops(t *testing.T) {
	mock := model.NewMockInvoker()
	c, events := newTestController(mock)
	sess := core.NewSession("prompt", 3, 10*time.Second, "alpha", "beta")

	c.Cancel(sess)
	require.NoError(t, c.Start(sess))
	all := collectUntilFinished(t, events)

	assert.Equal(t, core.StateCancelled, sess.State())
	assert.Zero(t, mock.CallCount())
	assert.True(t, hasNote(all, "dialogue stopped"))
}

func TestController_TurnTimeoutFailsSession(t *testing.T) {
	mock := model.NewMockInvoker().Block()
	defer mock.Release()
	c, events := newTestController(mock)
	sess := core.NewSession("prompt", 1, 50*time.Millisecond, "alpha", "beta")

	require.NoError(t, c.Start(sess))
	all := collectUntilFinished(t, events)

	assert.Equal(t, core.StateFailed, sess.State())
	assert.Equal(t, core.EventFinished, all[len(all)-1].Kind)

	found := false
	for _, ev := range all {
		if ev.Kind == core.EventError && strings.Contains(ev.Text, "timed out") {
			found = true
		}
	}
	assert.True(t, found, "expected a timed-out error event")
}

func TestController_TurnFailureFailsSession(t *testing.T) {
	mock := model.NewMockInvoker().Fail(model.KindAuth)
	c, events := newTestController(mock)
	sess := core.NewSession("prompt", 2, 10*time.Second, "alpha", "beta")

	require.NoError(t, c.Start(sess))
	all := collectUntilFinished(t, events)

	assert.Equal(t, core.StateFailed, sess.State())
	assert.Equal(t, 1, mock.CallCount())
	assert.Equal(t, 1, countKind(all, core.EventError))
	assert.Equal(t, 1, countKind(all, core.EventFinished))
}

func TestController_ProviderPanicFailsSession(t *testing.T) {
	invoker := invokerFunc(func(ctx context.Context, ref model.Reference, prompt string) (string, error) {
		panic("provider exploded")
	})
	c, events := newTestController(invoker)
	sess := core.NewSession("prompt", 1, 10*time.Second, "alpha", "beta")

	require.NoError(t, c.Start(sess))
	all := collectUntilFinished(t, events)

	assert.Equal(t, core.StateFailed, sess.State())
	assert.Equal(t, core.EventFinished, all[len(all)-1].Kind)
	assert.Equal(t, 1, countKind(all, core.EventFinished))
}

func TestController_StartWhileRunningIsNoOp(t *testing.T) {
	mock := model.NewMockInvoker().Block()
	c, events := newTestController(mock)
	sess := core.NewSession("prompt", 1, 10*time.Second, "alpha", "beta")

	require.NoError(t, c.Start(sess))
	require.NoError(t, c.Start(sess)) // second start while running
	mock.Release()

	all := collectUntilFinished(t, events)
	assert.Equal(t, core.StateCompleted, sess.State())
	assert.Equal(t, 1, countKind(all, core.EventFinished))
	assert.Equal(t, 2, mock.CallCount())
}

func TestController_StartPreconditions(t *testing.T) {
	tests := []struct {
		name    string
		session *core.Session
		creds   model.CredentialStore
		wantErr string
	}{
		{
			name:    "empty prompt",
			session: core.NewSession("", 2, time.Second, "alpha", "beta"),
			creds:   model.StaticStore{},
			wantErr: "initial prompt is empty",
		},
		{
			name:    "non-positive rounds",
			session: core.NewSession("prompt", 0, time.Second, "alpha", "beta"),
			creds:   model.StaticStore{},
			wantErr: "max rounds",
		},
		{
			name:    "unknown model",
			session: core.NewSession("prompt", 2, time.Second, "alpha", "ghost"),
			creds:   model.StaticStore{},
			wantErr: `model "ghost" not found`,
		},
		{
			name:    "hosted model without credential",
			session: core.NewSession("prompt", 2, time.Second, "alpha", "GPT-4o (API)"),
			creds:   model.StaticStore{},
			wantErr: "no openai api key configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := core.NewEventChannel()
			c := New(events, localRegistry(), model.NewMockInvoker(), tt.creds, WithConfig(fastConfig()))

			err := c.Start(tt.session)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, core.StateIdle, tt.session.State())
			assert.Zero(t, events.Len())
		})
	}
}

func TestController_StartHostedWithCredential(t *testing.T) {
	events := core.NewEventChannel()
	creds := model.StaticStore{model.ProviderOpenAI: "sk-test"}
	c := New(events, localRegistry(), model.NewMockInvoker(), creds, WithConfig(fastConfig()))
	sess := core.NewSession("prompt", 1, 10*time.Second, "alpha", "GPT-4o (API)")

	require.NoError(t, c.Start(sess))
	collectUntilFinished(t, events)
	assert.Equal(t, core.StateCompleted, sess.State())
}

func TestController_RecordsTranscript(t *testing.T) {
	mock := model.NewMockInvoker().Respond("A1").Respond("A2").Respond("B1").Respond("B2")
	events := core.NewEventChannel()
	store := session.NewInMemoryStore()
	c := New(events, localRegistry(), mock, model.StaticStore{},
		WithConfig(fastConfig()), WithStore(store))
	sess := core.NewSession("prompt", 2, 10*time.Second, "alpha", "beta")

	require.NoError(t, c.Start(sess))
	collectUntilFinished(t, events)
	require.Equal(t, core.StateCompleted, sess.State())

	rounds, err := store.Transcript(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, []core.Round{
		{Agent1Output: "A1", Agent2Output: "A2"},
		{Agent1Output: "B1", Agent2Output: "B2"},
	}, rounds)
}

func TestController_RefreshLocalModels(t *testing.T) {
	mock := model.NewMockInvoker()
	c, events := newTestController(mock)

	c.RefreshLocalModels(context.Background(), listerFunc(func(ctx context.Context) ([]string, error) {
		return []string{"gamma"}, nil
	}))

	all := events.Drain()
	require.Len(t, all, 2)
	assert.Equal(t, core.EventStatusOK, all[0].Kind)
	assert.Equal(t, core.EventModelsDiscovered, all[1].Kind)
	assert.Contains(t, all[1].Models, "gamma")

	ref, ok := c.registry.Resolve("gamma")
	require.True(t, ok)
	assert.Equal(t, model.ProviderOllama, ref.Provider)
}

func TestController_RefreshLocalModels_Unreachable(t *testing.T) {
	mock := model.NewMockInvoker()
	c, events := newTestController(mock)

	c.RefreshLocalModels(context.Background(), listerFunc(func(ctx context.Context) ([]string, error) {
		return nil, errors.New("connection refused")
	}))

	all := events.Drain()
	require.Len(t, all, 1)
	assert.Equal(t, core.EventStatusError, all[0].Kind)
	assert.Contains(t, all[0].Text, "ollama serve")
}
