package engine

import "sync/atomic"

// Clock is a monotonic logical clock for audit-log ordering.
//
// Every execution record is stamped with a strictly increasing seq number
// from this clock. This ensures:
// - Deterministic ordering (no wall-clock race conditions)
// - Replay verification walks records in append order
// - Causal relationships are explicit
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
// Used by replay verification to resume from a persisted position.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
// Calls are linearizable - each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
