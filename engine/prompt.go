package engine

import "fmt"

// agent2Prompt builds agent 2's prompt from agent 1's output and the
// session's immutable initial prompt. Agent 2 always evaluates against the
// original question, never against the round's accumulated working prompt.
func agent2Prompt(agent1Output, initialPrompt string) string {
	return fmt.Sprintf(
		"The previous agent's position:\n%s\n\nEvaluate, critique and suggest improvements to that position, with respect to the original question: %s",
		agent1Output, initialPrompt)
}

// nextRoundPrompt builds the next round's working prompt from the two
// outputs of the completed round plus the immutable initial prompt. The
// previous working prompt never feeds in, so context does not compound
// across rounds.
func nextRoundPrompt(agent1Output, agent2Output, initialPrompt string) string {
	return fmt.Sprintf(
		"Previous discussion:\nAgent 1: %s\n\nAgent 2: %s\n\nBuilding on this discussion, examine the original question more deeply: %s",
		agent1Output, agent2Output, initialPrompt)
}
