package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/comet-hive/comet/internal/axiom"
	"github.com/comet-hive/comet/internal/shortcut"
)

// SchemaVersion is the Axiom JSON Schema version emitted by ExportSchema.
const SchemaVersion = "1.0.0"

// Engine is the shortcut registry and deterministic execution dispatcher.
//
// Thread-safety model: a single mutex protects the registry and the
// execution log, giving concurrent callers read-modify-write atomicity for
// registration and log-append. All operations run to completion without
// blocking on external resources (the optional audit sink is the one
// exception, and it is in-process SQLite).
//
// INVARIANTS:
//   - registration order NEVER changes after insertion (stable export order)
//   - the execution log is append-only; entries are never mutated or removed
//   - one log record per successful execution, zero per failure
type Engine struct {
	mu       sync.Mutex
	registry map[string]shortcut.Node
	order    []string // node IDs in first-registration order
	log      []Record

	clock  *Clock
	idGen  RecordIDGenerator
	now    func() time.Time
	sink   AuditSink
	logger *slog.Logger
}

// Option configures engine parameters.
type Option func(*Engine)

// WithLogger sets the structured logger. Defaults to a discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithRecordIDs sets the record ID generator.
// Defaults to UUIDv7Generator; tests pass a FixedGenerator.
func WithRecordIDs(g RecordIDGenerator) Option {
	return func(e *Engine) {
		e.idGen = g
	}
}

// WithNow sets the wall-clock source for record timestamps.
// Defaults to time.Now; tests pin a fixed time.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithClock sets a pre-positioned logical clock.
// Used by replay verification to resume from a persisted seq.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithAuditSink mirrors every appended record to a durable sink.
// The core log stays in-memory; the sink is an opt-in extension point.
func WithAuditSink(s AuditSink) Option {
	return func(e *Engine) {
		e.sink = s
	}
}

// New creates an empty Engine.
//
// Engines are created once per process/session and torn down with it; no
// persistence happens unless an audit sink is attached. Callers own their
// engine instance - there is deliberately no package-level singleton, which
// keeps tests isolated.
func New(opts ...Option) *Engine {
	e := &Engine{
		registry: make(map[string]shortcut.Node),
		clock:    NewClock(),
		idGen:    UUIDv7Generator{},
		now:      time.Now,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Register validates and registers a shortcut node.
//
// Validation order: confidence within [0.0, 1.0], citations non-empty,
// node_id non-empty, pattern non-empty. On failure a ValidationError is
// returned and the registry is left unchanged - no partial registration.
//
// Re-registering an existing node_id REPLACES the prior node. The
// replacement keeps the original export position and is logged at warn
// level; it is never silent. No log entry is produced for registration
// itself - only executions are logged.
func (e *Engine) Register(node shortcut.Node) error {
	if err := node.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	node = node.Clone()
	if _, exists := e.registry[node.NodeID]; exists {
		e.logger.Warn("shortcut replaced",
			"node_id", node.NodeID,
			"pattern", node.Pattern,
			"action", node.Action,
		)
	} else {
		e.order = append(e.order, node.NodeID)
		e.logger.Info("shortcut registered",
			"node_id", node.NodeID,
			"pattern", node.Pattern,
			"action", node.Action,
			"confidence", node.Confidence,
			"citations", len(node.Citations),
		)
	}
	e.registry[node.NodeID] = node

	return nil
}

// Execute runs a registered shortcut against the supplied context and
// returns the deterministic result.
//
// The result is a pure function of (node.pattern, node.action,
// node.confidence, context): identical inputs always yield an identical
// result value, including its content-addressed ResultID. Exactly one
// record is appended to the execution log per successful call; a failed
// lookup returns NotFoundError and appends nothing.
//
// A nil execCtx is treated as an empty context.
func (e *Engine) Execute(ctx context.Context, nodeID string, execCtx axiom.Object) (Result, error) {
	if execCtx == nil {
		execCtx = axiom.Object{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	node, ok := e.registry[nodeID]
	if !ok {
		e.logger.Debug("execution rejected: unknown shortcut", "node_id", nodeID)
		return Result{}, &NotFoundError{NodeID: nodeID}
	}

	result, err := computeResult(node, execCtx)
	if err != nil {
		return Result{}, fmt.Errorf("execute shortcut %s: %w", nodeID, err)
	}

	rec := Record{
		RecordID:    e.idGen.Generate(),
		Seq:         e.clock.Next(),
		NodeID:      nodeID,
		ContextHash: result.ContextHash,
		Context:     result.Context,
		Result:      result,
		Timestamp:   e.now().UTC().Format(time.RFC3339Nano),
	}

	// Durable sink first: a sink failure must leave the in-memory log
	// unchanged so a logged record remains proof of success.
	if e.sink != nil {
		if err := e.sink.Append(ctx, rec); err != nil {
			return Result{}, fmt.Errorf("audit sink append for %s: %w", nodeID, err)
		}
	}

	e.log = append(e.log, rec)

	e.logger.Info("shortcut executed",
		"node_id", nodeID,
		"record_id", rec.RecordID,
		"seq", rec.Seq,
		"result_id", result.ResultID,
		"context_hash", result.ContextHash,
	)

	return result.Clone(), nil
}

// ExecutionLog returns the full audit trail in append order.
//
// The returned slice and its records are defensive copies: callers cannot
// mutate the engine's internal log through the returned value. No
// filtering, no pagination - a full audit dump is always available.
func (e *Engine) ExecutionLog() []Record {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Record, len(e.log))
	for i, rec := range e.log {
		out[i] = rec.Clone()
	}
	return out
}

// Len returns the number of registered shortcuts.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.registry)
}

// Lookup returns the registered node for a node_id.
// The returned node is a copy.
func (e *Engine) Lookup(nodeID string) (shortcut.Node, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	node, ok := e.registry[nodeID]
	if !ok {
		return shortcut.Node{}, false
	}
	return node.Clone(), true
}

// Clock returns the engine's logical clock.
// Used by replay verification and tests.
func (e *Engine) Clock() *Clock {
	return e.clock
}
