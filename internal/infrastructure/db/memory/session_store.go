// Package memory provides an in-process SessionStore. It backs tests and
// single-node deployments; multi-node deployments use the Mongo store, where
// per-user atomicity comes from single-document updates.
package memory

import (
	"context"
	"sync"

	"github.com/t2m/license-platform/internal/pkg/keylock"
)

// SessionStore keeps each user's refresh tokens in recency order, newest
// last. The full read-modify-write of one user's list runs under that
// user's stripe lock; operations on different users proceed in parallel.
type SessionStore struct {
	cap   int
	locks *keylock.KeyLock

	mu       sync.RWMutex
	sessions map[string][]string
}

// NewSessionStore creates a store enforcing the given per-user session cap.
// A cap <= 0 falls back to 2, the platform default.
func NewSessionStore(cap int) *SessionStore {
	if cap <= 0 {
		cap = 2
	}
	return &SessionStore{
		cap:      cap,
		locks:    keylock.New(0),
		sessions: make(map[string][]string),
	}
}

// Add appends token and evicts oldest entries beyond the cap in one step.
func (s *SessionStore) Add(_ context.Context, userID, token string) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	list := append(s.get(userID), token)
	if over := len(list) - s.cap; over > 0 {
		list = list[over:]
	}
	s.set(userID, list)
	return nil
}

// Rotate replaces the first occurrence of old with new in place.
func (s *SessionStore) Rotate(_ context.Context, userID, old, new string) (bool, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	list := s.get(userID)
	for i, t := range list {
		if t == old {
			list[i] = new
			s.set(userID, list)
			return true, nil
		}
	}
	return false, nil
}

// Remove deletes token if present; absent tokens are a no-op.
func (s *SessionStore) Remove(_ context.Context, userID, token string) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	list := s.get(userID)
	for i, t := range list {
		if t == token {
			s.set(userID, append(list[:i:i], list[i+1:]...))
			return nil
		}
	}
	return nil
}

// Contains reports membership.
func (s *SessionStore) Contains(_ context.Context, userID, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.sessions[userID] {
		if t == token {
			return true, nil
		}
	}
	return false, nil
}

// PruneExpired drops every token isLive rejects, across all users.
func (s *SessionStore) PruneExpired(_ context.Context, isLive func(token string) bool) error {
	s.mu.RLock()
	userIDs := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		userIDs = append(userIDs, id)
	}
	s.mu.RUnlock()

	for _, id := range userIDs {
		unlock := s.locks.Lock(id)
		kept := make([]string, 0)
		for _, t := range s.get(id) {
			if isLive(t) {
				kept = append(kept, t)
			}
		}
		s.set(id, kept)
		unlock()
	}
	return nil
}

// Sessions returns a copy of the user's current token list, newest last.
func (s *SessionStore) Sessions(userID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.sessions[userID]
	out := make([]string, len(list))
	copy(out, list)
	return out
}

func (s *SessionStore) get(userID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.sessions[userID]
	out := make([]string, len(list))
	copy(out, list)
	return out
}

func (s *SessionStore) set(userID string, list []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(list) == 0 {
		delete(s.sessions, userID)
		return
	}
	s.sessions[userID] = list
}
