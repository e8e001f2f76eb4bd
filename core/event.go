package core

import (
	"time"

	"github.com/google/uuid"
)

// EventKind categorizes the events flowing from the engine to the consumer.
type EventKind int

const (
	// EventStatusOK reports a healthy status line (e.g. local runtime reachable).
	EventStatusOK EventKind = iota
	// EventStatusError reports an unhealthy status line.
	EventStatusError
	// EventModelsDiscovered carries the refreshed list of resolvable model names.
	EventModelsDiscovered
	// EventSystemNote carries orchestration commentary (round banners, retry
	// notices, cancellation notes).
	EventSystemNote
	// EventAgentOutput carries one agent's completed turn output.
	EventAgentOutput
	// EventError carries a human-readable failure diagnostic.
	EventError
	// EventFinished is the terminal event of a session. Exactly one is
	// published per session and it is always the last.
	EventFinished
)

// String returns the string representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventStatusOK:
		return "status_ok"
	case EventStatusError:
		return "status_error"
	case EventModelsDiscovered:
		return "models_discovered"
	case EventSystemNote:
		return "system_note"
	case EventAgentOutput:
		return "agent_output"
	case EventError:
		return "error"
	case EventFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Event is the unit of communication between the session worker and the
// consumer. After publication it must be treated as immutable.
//
// Text is set for every kind except EventModelsDiscovered, which carries
// Models instead. Agent is 1 or 2 for EventAgentOutput and zero otherwise.
type Event struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Kind      EventKind `json:"kind"`
	Agent     int       `json:"agent,omitempty"`
	Text      string    `json:"text,omitempty"`
	Models    []string  `json:"models,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewID generates a new unique identifier for events and sessions.
func NewID() string { return uuid.NewString() }

// NewEvent creates a bare event of the given kind bound to a session.
func NewEvent(sessionID string, kind EventKind) Event {
	return Event{
		ID:        NewID(),
		SessionID: sessionID,
		Kind:      kind,
		Timestamp: time.Now().UTC(),
	}
}

// NewTextEvent creates an event of the given kind carrying a text payload.
func NewTextEvent(sessionID string, kind EventKind, text string) Event {
	e := NewEvent(sessionID, kind)
	e.Text = text
	return e
}

// NewSystemNoteEvent creates an orchestration commentary event.
func NewSystemNoteEvent(sessionID, text string) Event {
	return NewTextEvent(sessionID, EventSystemNote, text)
}

// NewAgentOutputEvent creates an event carrying agent (1 or 2) turn output.
func NewAgentOutputEvent(sessionID string, agent int, text string) Event {
	e := NewTextEvent(sessionID, EventAgentOutput, text)
	e.Agent = agent
	return e
}

// NewErrorEvent creates a failure diagnostic event.
func NewErrorEvent(sessionID, text string) Event {
	return NewTextEvent(sessionID, EventError, text)
}

// NewModelsDiscoveredEvent creates an event carrying a refreshed model list.
func NewModelsDiscoveredEvent(models []string) Event {
	e := NewEvent("", EventModelsDiscovered)
	e.Models = append([]string(nil), models...)
	return e
}

// NewFinishedEvent creates the terminal event of a session.
func NewFinishedEvent(sessionID string) Event {
	return NewEvent(sessionID, EventFinished)
}
