package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/comet-hive/comet/internal/axiom"
	"github.com/comet-hive/comet/internal/compiler"
	"github.com/comet-hive/comet/internal/engine"
	"github.com/comet-hive/comet/internal/shortcut"
	"github.com/comet-hive/comet/internal/testutil"
)

// Event is one entry in a scenario run's event log.
// Fields are chosen for byte-stable golden comparison: every value is
// either declared in the scenario or derived deterministically.
type Event struct {
	// Type is "register", "execute", or "reject".
	Type string `json:"type"`

	// NodeID is the shortcut involved.
	NodeID string `json:"node_id"`

	// Seq is the audit-log stamp (execute events only).
	Seq int64 `json:"seq,omitempty"`

	// ContextHash fingerprints the execution context (execute events only).
	ContextHash string `json:"context_hash,omitempty"`

	// ResultID is the content-addressed result identity (execute events only).
	ResultID string `json:"result_id,omitempty"`

	// Timestamp is the deterministic wall-clock stamp (execute events only).
	Timestamp string `json:"timestamp,omitempty"`

	// Error is the failure message (reject events only).
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass indicates overall scenario success.
	Pass bool `json:"pass"`

	// Events contains the run's event log in order.
	Events []Event `json:"events"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

// Run executes a scenario against a real engine and returns the result.
//
// Each scenario runs in a fresh engine for isolation. Deterministic time
// and record-ID sources make repeated runs byte-identical:
//
//  1. Register shortcuts from the CUE registry directory, then inline defs
//  2. Execute flow steps with expect validation
//  3. Evaluate assertions against the engine's audit log
func Run(scenario *Scenario) (*Result, error) {
	start := scenario.startTime()
	timeSrc := testutil.NewSteppingTime(start, time.Second)
	idGen := testutil.NewSequentialIDGenerator(scenario.RecordPrefix)

	eng := engine.New(
		engine.WithNow(timeSrc.Now),
		engine.WithRecordIDs(idGen),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	result := &Result{Pass: true, Events: []Event{}}

	nodes, err := collectNodes(scenario, start)
	if err != nil {
		return nil, err
	}
	for _, node := range nodes {
		if err := eng.Register(node); err != nil {
			return nil, fmt.Errorf("register %s: %w", node.NodeID, err)
		}
		result.Events = append(result.Events, Event{Type: "register", NodeID: node.NodeID})
	}

	ctx := context.Background()
	for i, step := range scenario.Flow {
		if err := runStep(ctx, eng, i, step, result); err != nil {
			return nil, err
		}
	}

	evaluateAssertions(eng, scenario.Assertions, result)

	return result, nil
}

// collectNodes builds the full registration list: registry directory
// first, inline defs after, preserving declaration order throughout.
func collectNodes(scenario *Scenario, at time.Time) ([]shortcut.Node, error) {
	var nodes []shortcut.Node

	if scenario.Registry != "" {
		comp := compiler.New()
		comp.Now = testutil.FixedNow(at)
		loaded, err := comp.LoadDir(scenario.Registry)
		if err != nil {
			return nil, fmt.Errorf("load registry: %w", err)
		}
		nodes = append(nodes, loaded.Nodes...)
	}

	for i, def := range scenario.Register {
		node, err := buildNode(def, at)
		if err != nil {
			return nil, fmt.Errorf("register[%d]: %w", i, err)
		}
		nodes = append(nodes, node)
	}

	return nodes, nil
}

// buildNode converts an inline definition into a validated node.
func buildNode(def NodeDef, at time.Time) (shortcut.Node, error) {
	citations := make([]shortcut.Citation, 0, len(def.Citations))
	for _, c := range def.Citations {
		cit, err := shortcut.NewCitationAt(c.SourceID, c.Content, at)
		if err != nil {
			return shortcut.Node{}, err
		}
		citations = append(citations, cit)
	}

	var implications axiom.Object
	if def.DesignImplications != nil {
		obj, err := axiom.ObjectFromGo(def.DesignImplications)
		if err != nil {
			return shortcut.Node{}, fmt.Errorf("design_implications: %w", err)
		}
		implications = obj
	}

	return shortcut.NewNode(def.NodeID, def.Pattern, def.Action, def.Confidence, citations, implications)
}

// runStep executes one flow step and validates its expect clause.
func runStep(ctx context.Context, eng *engine.Engine, index int, step FlowStep, result *Result) error {
	execCtx, err := axiom.ObjectFromGo(step.Context)
	if err != nil {
		return fmt.Errorf("flow[%d]: context: %w", index, err)
	}

	res, err := eng.Execute(ctx, step.Execute, execCtx)
	if err != nil {
		result.Events = append(result.Events, Event{
			Type:   "reject",
			NodeID: step.Execute,
			Error:  err.Error(),
		})
		if step.Expect == nil || step.Expect.Error == "" {
			result.AddError(fmt.Sprintf("flow[%d]: unexpected failure executing %s: %v", index, step.Execute, err))
		} else if !strings.Contains(err.Error(), step.Expect.Error) {
			result.AddError(fmt.Sprintf("flow[%d]: error %q does not contain %q", index, err.Error(), step.Expect.Error))
		}
		return nil
	}

	log := eng.ExecutionLog()
	rec := log[len(log)-1]
	result.Events = append(result.Events, Event{
		Type:        "execute",
		NodeID:      rec.NodeID,
		Seq:         rec.Seq,
		ContextHash: rec.ContextHash,
		ResultID:    res.ResultID,
		Timestamp:   rec.Timestamp,
	})

	if step.Expect == nil {
		return nil
	}
	if step.Expect.Error != "" {
		result.AddError(fmt.Sprintf("flow[%d]: expected failure containing %q but %s succeeded", index, step.Expect.Error, step.Execute))
		return nil
	}
	if len(step.Expect.Result) > 0 {
		payload, err := resultPayload(res)
		if err != nil {
			return fmt.Errorf("flow[%d]: %w", index, err)
		}
		if msg, ok := matchSubset(payload, step.Expect.Result); !ok {
			result.AddError(fmt.Sprintf("flow[%d]: result mismatch for %s: %s", index, step.Execute, msg))
		}
	}

	return nil
}

// resultPayload flattens an execution result into a generic map keyed by
// the result's JSON field names, for subset matching.
func resultPayload(res engine.Result) (map[string]any, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return payload, nil
}
