package testutil

import "sync"

// Sequence is a thread-safe monotonic counter for tests.
//
// The first call to Next returns 1. Reset rewinds it so the same test
// can run twice with identical values.
type Sequence struct {
	mu sync.Mutex
	n  int64
}

// Next increments and returns the counter.
func (s *Sequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.n
}

// Current returns the counter without incrementing.
func (s *Sequence) Current() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

// Reset rewinds the counter to 0.
func (s *Sequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n = 0
}
