package auth

import (
	"sync"
	"time"
)

// RevocationStore keeps the set of revoked token ids. Entries carry a
// deadline equal to the credential's remaining lifetime; once the
// deadline passes the entry reads as absent whether or not Purge has
// reclaimed it yet, so correctness never depends on the sweep.
type RevocationStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

// NewRevocationStore creates an empty revocation store
func NewRevocationStore() *RevocationStore {
	return &RevocationStore{entries: make(map[string]time.Time)}
}

// Revoke marks a token id as revoked for the given ttl
func (s *RevocationStore) Revoke(tokenID string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[tokenID] = time.Now().Add(ttl)
}

// IsRevoked reports whether the token id has a live revocation entry
func (s *RevocationStore) IsRevoked(tokenID string) bool {
	s.mu.RLock()
	deadline, ok := s.entries[tokenID]
	s.mu.RUnlock()
	return ok && time.Now().Before(deadline)
}

// Purge drops expired entries. Memory management only; IsRevoked already
// treats expired entries as absent.
func (s *RevocationStore) Purge() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for tokenID, deadline := range s.entries {
		if now.After(deadline) {
			delete(s.entries, tokenID)
		}
	}
}

// Len returns the number of entries currently held, live or expired
func (s *RevocationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
