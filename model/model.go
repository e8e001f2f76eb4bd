package model

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

// Provider is the closed set of model provider kinds duolog can talk to.
type Provider int

const (
	// ProviderOllama is a locally served runtime reached over HTTP.
	ProviderOllama Provider = iota
	// ProviderOpenAI is the hosted OpenAI chat completions API.
	ProviderOpenAI
	// ProviderAnthropic is the hosted Anthropic messages API.
	ProviderAnthropic
	// ProviderGemini is the hosted Google Gemini API (OpenAI-compatible surface).
	ProviderGemini
)

// String returns the string representation of the provider kind.
func (p Provider) String() string {
	switch p {
	case ProviderOllama:
		return "ollama"
	case ProviderOpenAI:
		return "openai"
	case ProviderAnthropic:
		return "anthropic"
	case ProviderGemini:
		return "gemini"
	default:
		return "unknown"
	}
}

// Local reports whether the provider runs locally and therefore needs no
// credential.
func (p Provider) Local() bool { return p == ProviderOllama }

// Reference is the resolved identity of a model: the display name users pick,
// the provider kind, and the provider-specific model id sent on the wire.
type Reference struct {
	Display  string
	Provider Provider
	ModelID  string
}

// Invoker is the capability the engine depends on: given a resolved model
// reference and a prompt, produce the model's text output or a classified
// *Failure. Implementations must not mutate shared state.
type Invoker interface {
	Invoke(ctx context.Context, ref Reference, prompt string) (string, error)
}

// InvokerMap dispatches invocations to per-provider implementations.
type InvokerMap map[Provider]Invoker

// Invoke implements Invoker by routing on the reference's provider kind.
func (m InvokerMap) Invoke(ctx context.Context, ref Reference, prompt string) (string, error) {
	inv, ok := m[ref.Provider]
	if !ok {
		return "", Failf(KindPermanent, "no invoker registered for provider %s", ref.Provider)
	}
	return inv.Invoke(ctx, ref, prompt)
}

// CredentialStore supplies, per provider kind, a present/absent credential.
// Local providers never consult it.
type CredentialStore interface {
	Get(p Provider) (string, bool)
}

// StaticStore is a fixed in-memory CredentialStore.
type StaticStore map[Provider]string

// Get returns the credential for p if present and non-empty.
func (s StaticStore) Get(p Provider) (string, bool) {
	v, ok := s[p]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// MockInvoker is a scriptable in-memory Invoker for tests. Each call consumes
// the next scripted outcome; when the script is exhausted the last outcome
// repeats. Calls are recorded for assertions.
type MockInvoker struct {
	mu      sync.Mutex
	script  []mockOutcome
	cursor  int
	calls   []MockCall
	blockCh chan struct{}
}

type mockOutcome struct {
	text string
	err  error
}

// MockCall records one Invoke invocation.
type MockCall struct {
	Ref    Reference
	Prompt string
}

// NewMockInvoker constructs an empty mock; script outcomes with Respond/Fail.
func NewMockInvoker() *MockInvoker {
	return &MockInvoker{}
}

// Respond appends a successful outcome to the script.
func (m *MockInvoker) Respond(text string) *MockInvoker {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, mockOutcome{text: text})
	return m
}

// Fail appends a failure outcome of the given kind to the script.
func (m *MockInvoker) Fail(kind FailureKind) *MockInvoker {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, mockOutcome{err: Failf(kind, "scripted %s failure", kind)})
	return m
}

// Block makes every Invoke hang until Release is called (or forever),
// simulating a provider that never returns.
func (m *MockInvoker) Block() *MockInvoker {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blockCh = make(chan struct{})
	return m
}

// Release unblocks all pending and future blocked invocations.
func (m *MockInvoker) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.blockCh != nil {
		close(m.blockCh)
		m.blockCh = nil
	}
}

// Invoke implements Invoker.
func (m *MockInvoker) Invoke(ctx context.Context, ref Reference, prompt string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Ref: ref, Prompt: prompt})
	block := m.blockCh
	var out mockOutcome
	if len(m.script) > 0 {
		i := m.cursor
		if i >= len(m.script) {
			i = len(m.script) - 1
		}
		out = m.script[i]
		m.cursor++
	} else {
		out = mockOutcome{text: fmt.Sprintf("mock response to: %s", prompt)}
	}
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", NewFailure(KindTransient, ctx.Err())
		}
	}
	if out.err != nil {
		return "", out.err
	}
	return out.text, nil
}

// Calls returns a copy of the recorded invocations.
func (m *MockInvoker) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of recorded invocations.
func (m *MockInvoker) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// ClassifyStatus maps an HTTP status code from a provider to a failure kind:
// 429 is rate limiting, 401/403 are credential problems, 404 is an unknown
// model, 5xx is transient, anything else is permanent. This is the reference
// mapping shared by all provider adapters.
func ClassifyStatus(status int) FailureKind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 500:
		return KindTransient
	default:
		return KindPermanent
	}
}
