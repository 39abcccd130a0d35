package chat

import (
	"sync"
)

// Sessions hands out one Store per user, so conversations are scoped by
// course and user.
type Sessions struct {
	mu     sync.Mutex
	stores map[string]*Store
	opts   []Option
}

// NewSessions creates a registry whose stores are built with opts.
func NewSessions(opts ...Option) *Sessions {
	return &Sessions{
		stores: make(map[string]*Store),
		opts:   opts,
	}
}

// Get returns the store of a user, creating it on first use.
func (s *Sessions) Get(userID string) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.stores[userID]
	if !ok {
		st = NewStore(s.opts...)
		s.stores[userID] = st
	}
	return st
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stores)
}
