package core

import (
	"sync"
	"sync/atomic"
	"time"
)

// SessionState is the lifecycle state of a dialogue session.
type SessionState int

const (
	// StateIdle means the session has not been started.
	StateIdle SessionState = iota
	// StateRunning means the session worker is executing rounds.
	StateRunning
	// StateCompleted means all configured rounds finished normally.
	StateCompleted
	// StateCancelled means the session was stopped at a cancellation checkpoint.
	StateCancelled
	// StateFailed means a turn failure terminated the session.
	StateFailed
)

// String returns the string representation of the session state.
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is one of the three terminal states.
func (s SessionState) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// Session holds the configuration and lifecycle state of one agent-to-agent
// dialogue. Configuration fields are immutable after Start; lifecycle fields
// are written only by the session worker (state, rounds) or via the
// cooperative cancel flag, which any goroutine may set.
type Session struct {
	ID            string
	InitialPrompt string
	MaxRounds     int
	CallTimeout   time.Duration

	// Agent1 and Agent2 are display identifiers resolved against the model
	// registry once per turn, at invocation time.
	Agent1 string
	Agent2 string

	cancelled atomic.Bool

	mu     sync.Mutex
	state  SessionState
	rounds int
}

// NewSession creates an idle session with a fresh unique ID.
func NewSession(initialPrompt string, maxRounds int, callTimeout time.Duration, agent1, agent2 string) *Session {
	return &Session{
		ID:            NewID(),
		InitialPrompt: initialPrompt,
		MaxRounds:     maxRounds,
		CallTimeout:   callTimeout,
		Agent1:        agent1,
		Agent2:        agent2,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Running reports whether the session worker is active.
func (s *Session) Running() bool { return s.State() == StateRunning }

// TryStart transitions Idle -> Running. It returns false without side effects
// when the session is already running or finished, making start idempotent.
func (s *Session) TryStart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return false
	}
	s.state = StateRunning
	return true
}

// Finish transitions Running -> the given terminal state. The first call
// wins; later calls are ignored so each terminal state is reachable at most
// once.
func (s *Session) Finish(terminal SessionState) bool {
	if !terminal.Terminal() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return false
	}
	s.state = terminal
	return true
}

// Reset returns a terminal session to Idle so its configuration can be
// reused. It is a no-op while running.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		return
	}
	s.state = StateIdle
	s.rounds = 0
	s.cancelled.Store(false)
}

// Cancel sets the cooperative cancellation flag. It never interrupts an
// in-flight turn; the worker honors it at round and inter-turn checkpoints.
func (s *Session) Cancel() { s.cancelled.Store(true) }

// Cancelled reports whether cancellation has been requested.
func (s *Session) Cancelled() bool { return s.cancelled.Load() }

// RecordRound increments the completed-round counter.
func (s *Session) RecordRound() {
	s.mu.Lock()
	s.rounds++
	s.mu.Unlock()
}

// Rounds returns the number of fully completed rounds.
func (s *Session) Rounds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rounds
}

// Round is one completed agent-1-then-agent-2 exchange.
type Round struct {
	Agent1Output string
	Agent2Output string
}

// TranscriptStore persists the completed rounds of a session. The interface
// lives here so the engine depends only on the contract; concrete backends
// live in the session package.
type TranscriptStore interface {
	// Append records a completed round for the session.
	Append(sessionID string, r Round) error

	// Transcript returns the recorded rounds for the session in order.
	Transcript(sessionID string) ([]Round, error)
}

// PromptState threads the evolving shared prompt between rounds. Current is
// rebuilt after each completed round from that round's two outputs plus the
// immutable initial prompt, never from the previous working prompt, so
// context does not grow quadratically.
type PromptState struct {
	Initial string
	Current string
}

// NewPromptState seeds the working prompt with the initial prompt.
func NewPromptState(initial string) *PromptState {
	return &PromptState{Initial: initial, Current: initial}
}
