package engine

import (
	"context"
	"fmt"
	"time"

	"duolog/core"
	"duolog/model"
)

// callWithRetry invokes the model with bounded exponential backoff.
//
// Rate-limited and transient failures are retried; auth, not-found and
// permanent failures return immediately. After each failed retryable attempt
// the backoff delay is RetryBaseDelay << attempt (attempt starting at 0). A
// system-note describing the wait precedes each backoff sleep. The deadline
// is authoritative: when the remaining time is shorter than the computed
// delay the call fails with a timeout classification instead of sleeping
// past it. When all attempts are exhausted the last observed failure is
// returned.
func (c *Controller) callWithRetry(
	ctx context.Context,
	s *core.Session,
	agent int,
	ref model.Reference,
	prompt string,
	deadline time.Time,
) (string, error) {
	var last error

	for attempt := 0; attempt < c.config.MaxAttempts; attempt++ {
		text, err := c.invoker.Invoke(ctx, ref, prompt)
		if err == nil {
			return text, nil
		}

		kind := model.KindOf(err)
		if !kind.Retryable() {
			return "", err
		}
		last = err

		delay := c.config.RetryBaseDelay << attempt
		c.note(s, fmt.Sprintf("agent %d call hit %s; backing off %s (attempt %d/%d)",
			agent, kind, delay, attempt+1, c.config.MaxAttempts))
		c.logger.Debug("invocation backoff", "session_id", s.ID, "agent", agent, "kind", kind.String(), "delay", delay, "attempt", attempt+1)

		if time.Until(deadline) < delay {
			return "", model.Failf(model.KindTimeout,
				"no time left for %s backoff before the %s call deadline", delay, s.CallTimeout)
		}
		c.sleep(delay)
	}

	return "", last
}
