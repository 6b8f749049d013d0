// Package engine implements the Comet deterministic shortcut engine.
//
// The engine is the heart of Comet - it owns the shortcut registry, executes
// registered shortcuts against caller-supplied context, and keeps an
// append-only audit log of every successful execution.
//
// ARCHITECTURE:
//
// Synchronous, run-to-completion calls:
// Every operation (Register, Execute, ExecutionLog, ExportSchema) completes
// without blocking on external resources. A single mutex protects the
// registry and the log so concurrent callers observe read-modify-write
// atomicity; there is no event loop and no suspension point.
//
// No real browser or DOM interaction occurs. Execute computes a result
// descriptor that is a pure function of (pattern, action, confidence,
// context) - a simulated, recorded outcome, never an external side effect.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Every log record is stamped with a monotonic seq counter from Clock.Next().
// Wall-clock timestamps are recorded for audit display but NEVER used for
// ordering.
//
// Content-Addressed Results:
// Result identity is SHA-256 over canonical JSON with domain separation.
// Identical inputs always yield identical result IDs, which is what makes
// the audit log replayable and verifiable after the fact.
package engine
