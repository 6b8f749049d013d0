package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comet-hive/comet/internal/axiom"
	"github.com/comet-hive/comet/internal/shortcut"
)

func testNode(t *testing.T, id string) shortcut.Node {
	t.Helper()
	n, err := shortcut.NewNode(id, "example.com", "click", 0.9,
		[]shortcut.Citation{shortcut.MustCitation("s1", "hello")},
		axiom.Object{"efficiency": axiom.String("high")})
	require.NoError(t, err)
	return n
}

func TestEngineStartsEmpty(t *testing.T) {
	e := New()

	assert.Equal(t, 0, e.Len())
	assert.Empty(t, e.ExecutionLog())
}

func TestRegisterSuccess(t *testing.T) {
	e := New()

	require.NoError(t, e.Register(testNode(t, "github_notifications")))

	node, ok := e.Lookup("github_notifications")
	require.True(t, ok)
	assert.Equal(t, "click", node.Action)
}

func TestRegisterValidationFailureLeavesRegistryUnchanged(t *testing.T) {
	e := New()

	bad := shortcut.Node{NodeID: "", Pattern: "p", Action: "a", Confidence: 2.0}
	err := e.Register(bad)
	require.Error(t, err)
	assert.True(t, shortcut.IsValidationError(err))
	assert.Equal(t, 0, e.Len())
}

func TestRegisterDoesNotLogExecution(t *testing.T) {
	e := New()
	require.NoError(t, e.Register(testNode(t, "n1")))

	assert.Empty(t, e.ExecutionLog(), "registration must not produce log entries")
}

func TestReregistrationReplaces(t *testing.T) {
	e := New()
	require.NoError(t, e.Register(testNode(t, "n1")))

	replacement, err := shortcut.NewNode("n1", "other.com", "scroll", 0.5,
		[]shortcut.Citation{shortcut.MustCitation("s2", "world")}, nil)
	require.NoError(t, err)
	require.NoError(t, e.Register(replacement))

	assert.Equal(t, 1, e.Len())
	node, ok := e.Lookup("n1")
	require.True(t, ok)
	assert.Equal(t, "scroll", node.Action)
}

func TestExecuteSuccess(t *testing.T) {
	e := New()
	require.NoError(t, e.Register(testNode(t, "opt_1")))

	execCtx := axiom.Object{"user": axiom.String("test_user")}
	result, err := e.Execute(context.Background(), "opt_1", execCtx)
	require.NoError(t, err)

	assert.Equal(t, "opt_1", result.NodeID)
	assert.Equal(t, "click", result.Action)
	assert.Equal(t, 0.9, result.Confidence)
	assert.Len(t, result.Citations, 1)
	assert.Equal(t, axiom.String("high"), result.DesignImplications["efficiency"])
	assert.Equal(t, execCtx, result.Context)
	assert.Len(t, result.ResultID, 64)
	assert.Len(t, result.ContextHash, 64)
}

func TestExecuteDeterminism(t *testing.T) {
	e := New()
	require.NoError(t, e.Register(testNode(t, "n1")))

	execCtx := axiom.Object{"user": axiom.String("u")}
	r1, err := e.Execute(context.Background(), "n1", execCtx)
	require.NoError(t, err)
	r2, err := e.Execute(context.Background(), "n1", execCtx)
	require.NoError(t, err)

	assert.Equal(t, r1, r2, "identical inputs must yield identical results")
	assert.Len(t, e.ExecutionLog(), 2)
}

func TestExecuteDeterminismAcrossEngines(t *testing.T) {
	// Result payloads must match across engine instances, the in-process
	// equivalent of surviving a process restart.
	e1 := New()
	e2 := New()
	require.NoError(t, e1.Register(testNode(t, "n1")))
	require.NoError(t, e2.Register(testNode(t, "n1")))

	execCtx := axiom.Object{"run": axiom.Int(1)}
	r1, err := e1.Execute(context.Background(), "n1", execCtx)
	require.NoError(t, err)
	r2, err := e2.Execute(context.Background(), "n1", execCtx)
	require.NoError(t, err)

	assert.Equal(t, r1.ResultID, r2.ResultID)
	assert.Equal(t, r1.ContextHash, r2.ContextHash)
}

func TestExecuteUnknownNode(t *testing.T) {
	e := New()

	_, err := e.Execute(context.Background(), "missing", axiom.Object{})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "missing", nf.NodeID)

	assert.Empty(t, e.ExecutionLog(), "failed lookup must not be logged")
}

func TestAuditCompleteness(t *testing.T) {
	e := New()
	require.NoError(t, e.Register(testNode(t, "log_test")))

	for i := 1; i <= 3; i++ {
		_, err := e.Execute(context.Background(), "log_test",
			axiom.Object{"run": axiom.Int(int64(i))})
		require.NoError(t, err)
	}
	// Failed attempts between successes leave no trace.
	_, err := e.Execute(context.Background(), "nope", nil)
	require.Error(t, err)

	log := e.ExecutionLog()
	require.Len(t, log, 3)
	assert.Equal(t, axiom.Int(1), log[0].Context["run"])
	assert.Equal(t, axiom.Int(3), log[2].Context["run"])

	// Seq stamps are strictly increasing in append order.
	for i := 1; i < len(log); i++ {
		assert.Greater(t, log[i].Seq, log[i-1].Seq)
	}
}

func TestExecutionLogReturnsCopy(t *testing.T) {
	e := New()
	require.NoError(t, e.Register(testNode(t, "copy_test")))

	_, err := e.Execute(context.Background(), "copy_test", axiom.Object{"k": axiom.Int(1)})
	require.NoError(t, err)

	log := e.ExecutionLog()
	log[0].NodeID = "tampered"
	log[0].Context["k"] = axiom.Int(99)
	_ = append(log, Record{RecordID: "fake"})

	fresh := e.ExecutionLog()
	require.Len(t, fresh, 1)
	assert.Equal(t, "copy_test", fresh[0].NodeID)
	assert.Equal(t, axiom.Int(1), fresh[0].Context["k"])
}

func TestExecuteNilContext(t *testing.T) {
	e := New()
	require.NoError(t, e.Register(testNode(t, "n1")))

	r1, err := e.Execute(context.Background(), "n1", nil)
	require.NoError(t, err)
	r2, err := e.Execute(context.Background(), "n1", axiom.Object{})
	require.NoError(t, err)

	assert.Equal(t, r1.ResultID, r2.ResultID, "nil context is the empty context")
}

func TestRecordStampsFromInjectedSources(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e := New(
		WithRecordIDs(NewFixedGenerator("rec-1", "rec-2")),
		WithNow(func() time.Time { return fixed }),
	)
	require.NoError(t, e.Register(testNode(t, "n1")))

	_, err := e.Execute(context.Background(), "n1", nil)
	require.NoError(t, err)
	_, err = e.Execute(context.Background(), "n1", nil)
	require.NoError(t, err)

	log := e.ExecutionLog()
	require.Len(t, log, 2)
	assert.Equal(t, "rec-1", log[0].RecordID)
	assert.Equal(t, "rec-2", log[1].RecordID)
	assert.Equal(t, int64(1), log[0].Seq)
	assert.Equal(t, int64(2), log[1].Seq)
	assert.Equal(t, "2025-06-01T12:00:00Z", log[0].Timestamp)
}

func TestResultMutationDoesNotReachLog(t *testing.T) {
	e := New()
	require.NoError(t, e.Register(testNode(t, "n1")))

	result, err := e.Execute(context.Background(), "n1", nil)
	require.NoError(t, err)

	result.DesignImplications["efficiency"] = axiom.String("tampered")
	result.Citations[0].SourceID = "tampered"

	log := e.ExecutionLog()
	assert.Equal(t, axiom.String("high"), log[0].Result.DesignImplications["efficiency"])
	assert.Equal(t, "s1", log[0].Result.Citations[0].SourceID)
}

func TestExportStableUnderNestedCallerMutation(t *testing.T) {
	inner := axiom.Object{"level": axiom.String("high")}
	n, err := shortcut.NewNode("n1", "example.com", "click", 0.5,
		[]shortcut.Citation{shortcut.MustCitation("s1", "hello")},
		axiom.Object{"meta": inner})
	require.NoError(t, err)

	e := New()
	require.NoError(t, e.Register(n))

	before, err := e.ExportSchema().EncodeCanonical()
	require.NoError(t, err)

	// A caller-retained nested object must not reach the registry.
	inner["level"] = axiom.String("tampered")

	after, err := e.ExportSchema().EncodeCanonical()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestLogSnapshotImmuneToNestedContextMutation(t *testing.T) {
	e := New()
	require.NoError(t, e.Register(testNode(t, "n1")))

	nested := axiom.Object{"k": axiom.Int(1)}
	_, err := e.Execute(context.Background(), "n1", axiom.Object{"outer": nested})
	require.NoError(t, err)

	// Mutate the caller's nested object and a nested object read back
	// from the log; neither may desync the snapshot from its hash.
	nested["k"] = axiom.Int(99)
	e.ExecutionLog()[0].Context["outer"].(axiom.Object)["k"] = axiom.Int(99)

	rec := e.ExecutionLog()[0]
	assert.Equal(t, axiom.Int(1), rec.Context["outer"].(axiom.Object)["k"])

	report := e.VerifyRecords(e.ExecutionLog())
	assert.True(t, report.Deterministic, "snapshot must still match its context hash")
}
