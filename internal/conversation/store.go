package conversation

import "sync"

// SessionStore hands out sessions under a per-session lock. Turns for the
// same session id are serialized; different sessions proceed in parallel.
type SessionStore interface {
	// Acquire returns the session for the id, creating it if needed, and a
	// release function that must be called when the turn is done.
	Acquire(sessionID string) (*Session, func())

	// Delete removes a session.
	Delete(sessionID string)
}

type sessionEntry struct {
	mu      sync.Mutex
	session *Session
}

// MemoryStore is the in-process session store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*sessionEntry)}
}

// Acquire locks and returns the session for the id.
func (s *MemoryStore) Acquire(sessionID string) (*Session, func()) {
	s.mu.Lock()
	entry, ok := s.entries[sessionID]
	if !ok {
		entry = &sessionEntry{session: NewSession(sessionID)}
		s.entries[sessionID] = entry
	}
	s.mu.Unlock()

	entry.mu.Lock()
	return entry.session, entry.mu.Unlock
}

// Delete removes a session. A holder of the session's lock may still finish
// its turn; the next Acquire starts fresh.
func (s *MemoryStore) Delete(sessionID string) {
	s.mu.Lock()
	delete(s.entries, sessionID)
	s.mu.Unlock()
}
