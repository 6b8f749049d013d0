package engine

import (
	"context"

	"github.com/comet-hive/comet/internal/axiom"
)

// Record is one immutable entry in the append-only execution log.
//
// A record is proof of a successful execution: failed lookups and rejected
// inputs never produce one. Records are never mutated or removed.
type Record struct {
	// RecordID uniquely identifies this record (UUIDv7 in production).
	RecordID string `json:"record_id"`

	// Seq is the logical clock stamp; strictly increasing in append order.
	Seq int64 `json:"seq"`

	// NodeID is the executed shortcut.
	NodeID string `json:"node_id"`

	// ContextHash fingerprints the context snapshot.
	ContextHash string `json:"context_hash"`

	// Context is the immutable snapshot of the caller's context.
	Context axiom.Object `json:"context"`

	// Result is the deterministic execution outcome.
	Result Result `json:"result"`

	// Timestamp is the execution wall-clock time, RFC 3339 UTC.
	// Display only - Seq is the ordering authority.
	Timestamp string `json:"timestamp"`
}

// Clone returns a deep copy so callers cannot mutate the engine's internal
// log through a returned record, including via nested context values.
func (r Record) Clone() Record {
	r.Context = axiom.CopyObject(r.Context)
	r.Result = r.Result.Clone()
	return r
}

// AuditSink receives every appended record, in append order.
// Implemented by store.Store (SQLite) for durable audit trails.
//
// Sink append happens BEFORE the in-memory append: a sink failure leaves
// the log unchanged, preserving zero-records-on-failure semantics.
type AuditSink interface {
	Append(ctx context.Context, rec Record) error
}
