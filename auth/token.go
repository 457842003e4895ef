package auth

import (
	"sync"
	"time"
)

// Token is one issued access token together with its absolute expiry.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Valid reports whether the token exists and stays usable for at least
// margin beyond now.
func (t Token) Valid(now time.Time, margin time.Duration) bool {
	if t.AccessToken == "" {
		return false
	}
	return t.ExpiresAt.After(now.Add(margin))
}

// Store holds the current access token.
//
// An expired token is retained, not erased: readers decide validity
// themselves, and retention is what lets Invalidate compare against the
// exact token a server rejected.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Store struct {
	mu  sync.RWMutex
	tok Token
}

// Get returns the stored token. The zero Token means none is held.
func (s *Store) Get() Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tok
}

// Set replaces the stored token.
func (s *Store) Set(tok Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tok = tok
}

// Invalidate drops the stored token, but only while it still equals
// stale. When several callers race to invalidate after a shared
// rejection, the first one wins and a token obtained in between is left
// untouched.
func (s *Store) Invalidate(stale string) {
	if stale == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tok.AccessToken == stale {
		s.tok = Token{}
	}
}
