// Package engine implements the turn-based conversation driver of duolog.
//
// A Controller runs one session at a time on a background worker: it
// alternates two independently configured agents across a fixed number of
// rounds, threads the evolving shared prompt between turns, retries transient
// provider failures with exponential backoff under a per-call timeout, and
// publishes every state change to a core.EventChannel consumed by exactly one
// presentation-side reader.
//
// Layering, leaf-first: callWithRetry wraps the model.Invoker with the
// backoff policy; runTurn races it against the per-call timeout (a timed-out
// call is detached, never killed); runRound sequences agent 1 then agent 2
// around the inter-turn cancellation checkpoint and cooldown; runSession owns
// the terminal transition and guarantees a single trailing finished event.
//
// Cancellation is cooperative: Cancel only sets a flag, honored at round and
// inter-turn boundaries. Turns are strictly sequential by design, so at most
// one provider call is ever in flight (plus at most one detached stale call
// after a timeout).
package engine
