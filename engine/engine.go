package engine

import (
	"context"
	"fmt"
	"time"

	"duolog/core"
	"duolog/logging"
	"duolog/model"
)

// Config defines tuning parameters for the conversation engine.
//
// The defaults reproduce the reference behavior: five invocation attempts
// with exponential backoff from one second, a two second cooldown between the
// two turns of a round, and a 100ms polling cadence hint for the consumer.
type Config struct {
	// MaxAttempts caps the number of invocation attempts per turn call.
	MaxAttempts int

	// RetryBaseDelay is the backoff unit; attempt n waits RetryBaseDelay<<n.
	RetryBaseDelay time.Duration

	// InterTurnCooldown is the fixed delay between agent 1's and agent 2's
	// turns, reducing provider throttling.
	InterTurnCooldown time.Duration

	// LanguageInstruction is prefixed to every prompt, identically for both
	// agents.
	LanguageInstruction string

	// PollInterval is the recommended consumer polling cadence.
	PollInterval time.Duration
}

// DefaultConfig provides the reference configuration values.
var DefaultConfig = Config{
	MaxAttempts:         5,
	RetryBaseDelay:      time.Second,
	InterTurnCooldown:   2 * time.Second,
	LanguageInstruction: "Respond in the language of the prompt that follows.",
	PollInterval:        100 * time.Millisecond,
}

// Options configures a Controller instance using the functional options pattern.
type Options struct {
	// Config contains operational parameters for the engine behavior.
	// Defaults to DefaultConfig if not specified.
	Config Config

	// Logger provides structured logging for debugging and monitoring.
	// Defaults to NoOp logger if nil.
	Logger logging.Logger

	// Store receives each completed round's transcript. Nil disables
	// recording.
	Store core.TranscriptStore
}

// WithConfig overrides the engine configuration.
func WithConfig(cfg Config) func(o *Options) {
	return func(o *Options) { o.Config = cfg }
}

// WithLogger overrides the engine logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithStore enables transcript recording into the given store.
func WithStore(store core.TranscriptStore) func(o *Options) {
	return func(o *Options) { o.Store = store }
}

// Controller is the top-level session state machine. It validates start
// preconditions synchronously, runs the round loop on a single background
// session worker, owns the terminal transition, and guarantees that exactly
// one finished event is the last event of every session.
//
// All output flows through the event channel; the controller never calls
// back into its consumer.
type Controller struct {
	config   Config
	events   *core.EventChannel
	registry *model.Registry
	invoker  model.Invoker
	creds    model.CredentialStore
	logger   logging.Logger
	store    core.TranscriptStore

	// sleep is indirected so backoff and cooldown timing can be observed in
	// tests without waiting in real time.
	sleep func(d time.Duration)
}

// New creates a Controller publishing to events and resolving models against
// registry. invoker dispatches provider calls; creds backs the credential
// precondition for hosted providers.
func New(
	events *core.EventChannel,
	registry *model.Registry,
	invoker model.Invoker,
	creds model.CredentialStore,
	optFns ...func(o *Options),
) *Controller {
	opts := Options{
		Config: DefaultConfig,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Config.MaxAttempts < 1 {
		opts.Config.MaxAttempts = 1
	}

	return &Controller{
		config:   opts.Config,
		events:   events,
		registry: registry,
		invoker:  invoker,
		creds:    creds,
		logger:   opts.Logger,
		store:    opts.Store,
		sleep:    time.Sleep,
	}
}

// Start validates preconditions and launches the session worker.
//
// It is a no-op (nil error) when the session is already running. Any
// precondition failure is returned synchronously and leaves the session
// Idle: the initial prompt must be non-empty, both agents must resolve
// against the registry, and every hosted provider referenced must have a
// credential present.
func (c *Controller) Start(s *core.Session) error {
	if s.Running() {
		return nil
	}

	if s.InitialPrompt == "" {
		return fmt.Errorf("session %s: initial prompt is empty", s.ID)
	}
	if s.MaxRounds < 1 {
		return fmt.Errorf("session %s: max rounds must be positive, got %d", s.ID, s.MaxRounds)
	}
	for agent, display := range map[int]string{1: s.Agent1, 2: s.Agent2} {
		ref, ok := c.registry.Resolve(display)
		if !ok {
			return fmt.Errorf("agent %d model %q not found", agent, display)
		}
		if !ref.Provider.Local() {
			if _, ok := c.creds.Get(ref.Provider); !ok {
				return fmt.Errorf("agent %d: no %s api key configured", agent, ref.Provider)
			}
		}
	}

	if !s.TryStart() {
		return nil
	}

	c.logger.Info("session started", "session_id", s.ID, "agent1", s.Agent1, "agent2", s.Agent2, "max_rounds", s.MaxRounds)
	go c.runSession(s)
	return nil
}

// Cancel requests cooperative cancellation. It only sets a flag; an in-flight
// turn is never interrupted. Safe to call at any time.
func (c *Controller) Cancel(s *core.Session) {
	s.Cancel()
	c.logger.Info("session cancellation requested", "session_id", s.ID)
}

// runSession is the session worker. Whatever happens inside the round loop,
// exactly one finished event is published and it is the last event.
func (c *Controller) runSession(s *core.Session) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("session worker panicked", "session_id", s.ID, "panic", r)
			c.events.Publish(core.NewErrorEvent(s.ID, fmt.Sprintf("unexpected internal error: %v", r)))
			s.Finish(core.StateFailed)
		}
		c.events.Publish(core.NewFinishedEvent(s.ID))
	}()

	c.note(s, fmt.Sprintf("=== dialogue started ===\ninitial prompt: %s", s.InitialPrompt))
	c.note(s, fmt.Sprintf("agent 1: %s | agent 2: %s | timeout: %s", s.Agent1, s.Agent2, s.CallTimeout))

	ps := core.NewPromptState(s.InitialPrompt)

	for round := 0; round < s.MaxRounds; round++ {
		if s.Cancelled() {
			c.note(s, "dialogue stopped")
			s.Finish(core.StateCancelled)
			return
		}

		c.note(s, fmt.Sprintf("--- round %d/%d ---", round+1, s.MaxRounds))

		agent1Out, agent2Out, err := c.runRound(s, ps)
		switch err {
		case nil:
		case errCancelled:
			s.Finish(core.StateCancelled)
			return
		default:
			// The turn layer has already published the diagnostic.
			s.Finish(core.StateFailed)
			return
		}

		ps.Current = nextRoundPrompt(agent1Out, agent2Out, ps.Initial)
		s.RecordRound()
		if c.store != nil {
			if err := c.store.Append(s.ID, core.Round{Agent1Output: agent1Out, Agent2Output: agent2Out}); err != nil {
				c.logger.Warn("transcript append failed", "session_id", s.ID, "error", err)
			}
		}
	}

	c.note(s, "=== dialogue finished ===")
	s.Finish(core.StateCompleted)
}

// RefreshLocalModels updates the registry's local-model snapshot from the
// locally served runtime, publishing status and models-discovered events.
// Intended to run between sessions, never mid-session.
func (c *Controller) RefreshLocalModels(ctx context.Context, lister ModelLister) {
	names, err := lister.ListModels(ctx)
	if err != nil {
		c.logger.Warn("local model discovery failed", "error", err)
		c.events.Publish(core.NewTextEvent("", core.EventStatusError,
			"local runtime unreachable - run 'ollama serve' and retry"))
		return
	}
	c.registry.SetLocalModels(names)
	c.events.Publish(core.NewTextEvent("", core.EventStatusOK,
		fmt.Sprintf("local runtime reachable (%d models)", len(names))))
	c.events.Publish(core.NewModelsDiscoveredEvent(c.registry.Names()))
}

// ModelLister supplies the current list of locally served model names.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// note publishes a system-note event.
func (c *Controller) note(s *core.Session, text string) {
	c.events.Publish(core.NewSystemNoteEvent(s.ID, text))
}
