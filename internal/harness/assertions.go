package harness

import (
	"fmt"
	"strings"

	"github.com/comet-hive/comet/internal/axiom"
	"github.com/comet-hive/comet/internal/engine"
)

// AssertionError is returned when an assertion fails.
// It includes the full audit log so failures are debuggable from the
// message alone.
type AssertionError struct {
	Type     string          // assertion type for categorization
	Expected string          // human-readable expected outcome
	Actual   string          // human-readable actual outcome
	Log      []engine.Record // full audit log for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nAudit log:\n")
	for i, rec := range e.Log {
		fmt.Fprintf(&buf, "  [%d] seq=%d %s %s\n", i+1, rec.Seq, rec.NodeID, rec.ContextHash)
	}

	return buf.String()
}

// evaluateAssertions runs every assertion against the engine's audit log,
// recording failures on the result.
func evaluateAssertions(eng *engine.Engine, assertions []Assertion, result *Result) {
	log := eng.ExecutionLog()
	for _, assertion := range assertions {
		var err error
		switch assertion.Type {
		case AssertLogContains:
			err = assertLogContains(log, assertion)
		case AssertLogOrder:
			err = assertLogOrder(log, assertion)
		case AssertLogCount:
			err = assertLogCount(log, assertion)
		case AssertReplayClean:
			err = assertReplayClean(eng, log)
		default:
			err = fmt.Errorf("unknown assertion type %q", assertion.Type)
		}
		if err != nil {
			result.AddError(err.Error())
		}
	}
}

// assertLogContains checks that the log holds a record for the node with
// a context matching the assertion's context (subset semantics).
func assertLogContains(log []engine.Record, assertion Assertion) error {
	for _, rec := range log {
		if rec.NodeID != assertion.Node {
			continue
		}
		if len(assertion.Context) == 0 {
			return nil
		}
		recCtx, ok := axiom.ToGo(rec.Context).(map[string]any)
		if !ok {
			recCtx = map[string]any{}
		}
		if _, match := matchSubset(recCtx, assertion.Context); match {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertLogContains,
		Expected: fmt.Sprintf("record for %s with context %v", assertion.Node, assertion.Context),
		Actual:   "not found in audit log",
		Log:      log,
	}
}

// assertLogOrder checks that the node IDs appear in the given order.
// Records don't need to be consecutive.
func assertLogOrder(log []engine.Record, assertion Assertion) error {
	positions := make(map[string]int)
	for i, rec := range log {
		for _, node := range assertion.Nodes {
			if rec.NodeID == node && positions[node] == 0 {
				positions[node] = i + 1 // 1-indexed for readability
			}
		}
	}

	for _, node := range assertion.Nodes {
		if positions[node] == 0 {
			return &AssertionError{
				Type:     AssertLogOrder,
				Expected: fmt.Sprintf("all nodes present: %v", assertion.Nodes),
				Actual:   fmt.Sprintf("missing node: %s", node),
				Log:      log,
			}
		}
	}

	for i := 1; i < len(assertion.Nodes); i++ {
		prev, curr := assertion.Nodes[i-1], assertion.Nodes[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertLogOrder,
				Expected: fmt.Sprintf("nodes in order: %v", assertion.Nodes),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Log: log,
			}
		}
	}

	return nil
}

// assertLogCount checks that the node was executed exactly Count times.
func assertLogCount(log []engine.Record, assertion Assertion) error {
	count := 0
	for _, rec := range log {
		if rec.NodeID == assertion.Node {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertLogCount,
			Expected: fmt.Sprintf("%s executed %d times", assertion.Node, assertion.Count),
			Actual:   fmt.Sprintf("executed %d times", count),
			Log:      log,
		}
	}

	return nil
}

// assertReplayClean re-verifies the whole log through replay: every
// record's result must recompute identically from the current registry.
func assertReplayClean(eng *engine.Engine, log []engine.Record) error {
	report := eng.VerifyRecords(log)
	if report.Deterministic {
		return nil
	}

	issues := make([]string, len(report.Issues))
	for i, issue := range report.Issues {
		issues[i] = fmt.Sprintf("%s: %s", issue.Code, issue.RecordID)
	}
	return &AssertionError{
		Type:     AssertReplayClean,
		Expected: "all records replay deterministically",
		Actual:   strings.Join(issues, "; "),
		Log:      log,
	}
}

// matchSubset checks that every expected key is present in actual with a
// matching value (recursively for maps). Numeric values compare after
// normalization so YAML ints match JSON floats.
func matchSubset(actual, expected map[string]any) (string, bool) {
	for key, want := range expected {
		got, ok := actual[key]
		if !ok {
			return fmt.Sprintf("missing field %q", key), false
		}
		if msg, ok := matchValue(key, got, want); !ok {
			return msg, false
		}
	}
	return "", true
}

func matchValue(key string, got, want any) (string, bool) {
	wantMap, wantIsMap := want.(map[string]any)
	gotMap, gotIsMap := got.(map[string]any)
	if wantIsMap && gotIsMap {
		return matchSubset(gotMap, wantMap)
	}

	if normalizeScalar(got) != normalizeScalar(want) {
		return fmt.Sprintf("field %q: expected %v, got %v", key, want, got), false
	}
	return "", true
}

// normalizeScalar folds numeric types to float64 so values parsed from
// YAML (int) compare equal to values parsed from JSON (float64).
func normalizeScalar(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}
