// Package session keeps the bounded conversational history per session.
package session

import (
	"sync"

	"github.com/patrickmn/go-cache"
)

// DefaultWindow is how many entries a history read returns.
const DefaultWindow = 5

// Store records conversation turns per session identifier.
type Store interface {
	// Append adds turns to a session in one step; concurrent appends to the
	// same session never interleave.
	Append(sessionID string, turns ...string)
	// Recent returns up to n of the newest entries, oldest first.
	Recent(sessionID string, n int) []string
}

type transcript struct {
	mu    sync.Mutex
	turns []string
}

// MemoryStore is a process-local Store. Transcripts are created on first use
// and never expire.
type MemoryStore struct {
	entries *cache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: cache.New(cache.NoExpiration, 0),
	}
}

func (s *MemoryStore) transcript(sessionID string) *transcript {
	if x, found := s.entries.Get(sessionID); found {
		return x.(*transcript)
	}
	t := &transcript{}
	// Add fails when another request created the transcript first; use theirs.
	if err := s.entries.Add(sessionID, t, cache.NoExpiration); err != nil {
		x, _ := s.entries.Get(sessionID)
		return x.(*transcript)
	}
	return t
}

func (s *MemoryStore) Append(sessionID string, turns ...string) {
	if len(turns) == 0 {
		return
	}
	t := s.transcript(sessionID)
	t.mu.Lock()
	t.turns = append(t.turns, turns...)
	t.mu.Unlock()
}

func (s *MemoryStore) Recent(sessionID string, n int) []string {
	x, found := s.entries.Get(sessionID)
	if !found || n <= 0 {
		return nil
	}
	t := x.(*transcript)
	t.mu.Lock()
	defer t.mu.Unlock()

	start := len(t.turns) - n
	if start < 0 {
		start = 0
	}
	out := make([]string, len(t.turns)-start)
	copy(out, t.turns[start:])
	return out
}

// Len reports the total number of entries stored for a session.
func (s *MemoryStore) Len(sessionID string) int {
	x, found := s.entries.Get(sessionID)
	if !found {
		return 0
	}
	t := x.(*transcript)
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.turns)
}
