package engine

import (
	"errors"

	"duolog/core"
)

// errCancelled marks a round aborted at the inter-turn cancellation
// checkpoint rather than by a turn failure.
var errCancelled = errors.New("session cancelled between turns")

// errTurnFailed marks a round aborted because a turn failed; the turn layer
// has already published the specific diagnostic.
var errTurnFailed = errors.New("turn failed")

// runRound executes one agent-1-then-agent-2 cycle.
//
// Sequencing is deliberate and exact: agent 1 sees the round's working
// prompt; the cancellation flag is honored between the turns as a hard cut
// point (agent 2 never runs); a fixed cooldown precedes agent 2 to reduce
// provider throttling; agent 2's prompt combines agent 1's output with the
// session's immutable initial prompt, not the accumulated working prompt.
func (c *Controller) runRound(s *core.Session, ps *core.PromptState) (agent1Out, agent2Out string, err error) {
	agent1Out, ok := c.runTurn(s, 1, s.Agent1, ps.Current)
	if !ok {
		return "", "", errTurnFailed
	}

	if s.Cancelled() {
		c.note(s, "dialogue stopped before agent 2's turn")
		return "", "", errCancelled
	}

	c.sleep(c.config.InterTurnCooldown)

	agent2Out, ok = c.runTurn(s, 2, s.Agent2, agent2Prompt(agent1Out, ps.Initial))
	if !ok {
		return "", "", errTurnFailed
	}

	return agent1Out, agent2Out, nil
}
