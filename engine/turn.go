package engine

import (
	"context"
	"fmt"
	"time"

	"duolog/core"
	"duolog/model"
)

type callResult struct {
	text string
	err  error
}

// runTurn executes one agent turn: resolve the model reference at invocation
// time, prefix the prompt with the fixed language instruction, and race the
// retrying call against the session's per-call timeout.
//
// The timeout is measured from turn start and is independent of the retry
// backoff. When it fires, the in-flight call is not killed, only detached:
// the worker goroutine sends its eventual result into a buffered channel
// nobody reads and exits. At most one such stale call can exist at a time
// because turns never run concurrently.
//
// On any failure path runTurn publishes a diagnostic error event with the
// elapsed time and returns ok=false, which terminates the session.
func (c *Controller) runTurn(s *core.Session, agent int, display, rawPrompt string) (string, bool) {
	start := time.Now()

	ref, ok := c.registry.Resolve(display)
	if !ok {
		c.events.Publish(core.NewErrorEvent(s.ID, fmt.Sprintf("agent %d model %q not found", agent, display)))
		return "", false
	}

	c.note(s, fmt.Sprintf("agent %d (%s) thinking...", agent, display))
	c.logger.Debug("turn started", "session_id", s.ID, "agent", agent, "model", ref.ModelID, "provider", ref.Provider.String())

	prompt := c.instructedPrompt(rawPrompt)
	deadline := start.Add(s.CallTimeout)

	resultCh := make(chan callResult, 1) // buffered so a detached worker never blocks
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- callResult{err: model.Failf(model.KindPermanent, "provider panicked: %v", r)}
			}
		}()
		text, err := c.callWithRetry(context.Background(), s, agent, ref, prompt, deadline)
		resultCh <- callResult{text: text, err: err}
	}()

	timer := time.NewTimer(s.CallTimeout)
	defer timer.Stop()

	select {
	case r := <-resultCh:
		elapsed := time.Since(start)
		if r.err != nil {
			c.logger.Warn("turn failed", "session_id", s.ID, "agent", agent, "elapsed", elapsed, "error", r.err)
			c.events.Publish(core.NewErrorEvent(s.ID,
				fmt.Sprintf("agent %d failed after %.1fs: %v", agent, elapsed.Seconds(), r.err)))
			return "", false
		}
		c.logger.Debug("turn completed", "session_id", s.ID, "agent", agent, "elapsed", elapsed)
		c.events.Publish(core.NewAgentOutputEvent(s.ID, agent, r.text))
		return r.text, true

	case <-timer.C:
		c.logger.Warn("turn timed out", "session_id", s.ID, "agent", agent, "timeout", s.CallTimeout)
		c.events.Publish(core.NewErrorEvent(s.ID,
			fmt.Sprintf("agent %d timed out after %.0fs; abandoning call", agent, s.CallTimeout.Seconds())))
		return "", false
	}
}

// instructedPrompt applies the fixed response-language instruction. The same
// transformation is applied to both agents' prompts.
func (c *Controller) instructedPrompt(raw string) string {
	if c.config.LanguageInstruction == "" {
		return raw
	}
	return c.config.LanguageInstruction + "\n\n" + raw
}
