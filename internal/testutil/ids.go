package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDGenerator generates record IDs of the form "<prefix>-000001",
// "<prefix>-000002", and so on.
//
// Unlike engine.FixedGenerator, which returns a predetermined list and
// panics when exhausted, this generator is unbounded and resettable. That
// makes it the right source for scenario runs whose execution count the
// author does not want to hand-maintain.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequentialIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int64
}

// NewSequentialIDGenerator creates a generator with the given prefix.
// An empty prefix defaults to "rec".
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	if prefix == "" {
		prefix = "rec"
	}
	return &SequentialIDGenerator{prefix: prefix}
}

// Generate returns the next ID in the sequence.
// Implements engine.RecordIDGenerator.
func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%06d", g.prefix, g.n)
}

// Reset rewinds the sequence to the start.
// After Reset the next Generate returns "<prefix>-000001" again.
func (g *SequentialIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
