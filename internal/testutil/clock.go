// Package testutil provides deterministic time and ID sources for tests
// and the scenario harness.
package testutil

import (
	"sync"
	"time"
)

// FixedNow returns a time source that always reports the same instant.
// Wire it through engine.WithNow for byte-stable record timestamps.
func FixedNow(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// SteppingTime is a time source that advances by a fixed step on every
// call. Records produced under it carry distinct but reproducible
// timestamps, so two runs of the same scenario emit identical logs.
//
// Thread-safety: all methods are safe for concurrent use.
type SteppingTime struct {
	mu    sync.Mutex
	next  time.Time
	step  time.Duration
	start time.Time
}

// NewSteppingTime creates a stepping time source.
// The first call to Now returns start; each later call adds step.
func NewSteppingTime(start time.Time, step time.Duration) *SteppingTime {
	return &SteppingTime{next: start, step: step, start: start}
}

// Now returns the current instant and advances the source by one step.
func (s *SteppingTime) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	at := s.next
	s.next = s.next.Add(s.step)
	return at
}

// Reset rewinds the source to its start instant.
// After Reset the next call to Now returns start again.
func (s *SteppingTime) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next = s.start
}
