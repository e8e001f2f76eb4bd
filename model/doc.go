// Package model defines the provider-agnostic abstractions for invoking
// language models inside duolog.
//
// Core pieces:
//   - Invoker: the single capability the engine depends on (prompt in, text
//     or classified failure out)
//   - Failure / FailureKind: explicit error classification the retry policy
//     pattern-matches on instead of catching provider error types
//   - Reference / Registry: resolution of user-facing display names to a
//     provider kind and wire-level model id, with no network involved
//   - MockInvoker: scriptable in-memory implementation for tests
//
// Providers (Ollama, OpenAI, Anthropic, Gemini) implement Invoker in
// subpackages so higher layers remain decoupled from vendor SDKs.
package model
