package engine

import (
	"sync"

	"github.com/google/uuid"
)

// RecordIDGenerator generates unique IDs for execution records.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type RecordIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 record IDs.
//
// UUIDv7 embeds a timestamp in the most significant bits, making IDs
// sortable by creation time, which helps when eyeballing audit dumps.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined record IDs for testing.
//
// This enables deterministic test execution and golden trace comparison.
// Tests provide a known sequence of IDs and verify exact log output.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns IDs in order.
//
// Example:
//
//	gen := NewFixedGenerator("rec-1", "rec-2")
//	gen.Generate() // "rec-1"
//	gen.Generate() // "rec-2"
//	gen.Generate() // panic: all ids exhausted
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined ID.
//
// Panics if all IDs have been consumed. Fail-fast catches test
// misconfiguration (a test executing more shortcuts than expected).
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
