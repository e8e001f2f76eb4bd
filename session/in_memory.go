package session

import (
	"sync"

	"duolog/core"
)

// InMemoryStore is a volatile TranscriptStore implementation keeping round
// transcripts in a process local map. It is safe for concurrent access. Each
// returned transcript is copied to prevent external mutation of internal
// state.
type InMemoryStore struct {
	mu     sync.RWMutex
	rounds map[string][]core.Round
}

// NewInMemoryStore constructs an empty in-memory transcript store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{rounds: make(map[string][]core.Round)}
}

// Append records a completed round for the session.
func (s *InMemoryStore) Append(sessionID string, r core.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds[sessionID] = append(s.rounds[sessionID], r)
	return nil
}

// Transcript returns a copy of the recorded rounds for the session in order.
// An unknown session yields an empty transcript, not an error.
func (s *InMemoryStore) Transcript(sessionID string) ([]core.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Round, len(s.rounds[sessionID]))
	copy(out, s.rounds[sessionID])
	return out, nil
}
