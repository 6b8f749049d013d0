package engine

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comet-hive/comet/internal/axiom"
	"github.com/comet-hive/comet/internal/shortcut"
)

func schemaTestNode(t *testing.T, id, pattern string, confidence float64) shortcut.Node {
	t.Helper()
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c, err := shortcut.NewCitationAt("src_"+id, "content for "+id, at)
	require.NoError(t, err)
	n, err := shortcut.NewNode(id, pattern, "test_action", confidence,
		[]shortcut.Citation{c}, axiom.Object{"test": axiom.String("value")})
	require.NoError(t, err)
	return n
}

func TestExportSchemaFields(t *testing.T) {
	e := New()
	require.NoError(t, e.Register(schemaTestNode(t, "export_test", "test_pattern", 0.75)))

	doc := e.ExportSchema()

	assert.Equal(t, "1.0.0", doc.SchemaVersion)
	require.Len(t, doc.Shortcuts, 1)

	n := doc.Shortcuts[0]
	assert.Equal(t, "export_test", n.NodeID)
	assert.Equal(t, "test_pattern", n.Pattern)
	assert.Equal(t, 0.75, n.Confidence)
	require.Len(t, n.VerifiedCitations, 1)
	assert.Equal(t, "src_export_test", n.VerifiedCitations[0].SourceID)
	assert.Equal(t, "2025-01-01T00:00:00Z", n.VerifiedCitations[0].Timestamp)
	assert.Equal(t, "sha256", n.VerifiedCitations[0].VerificationMethod)
}

func TestExportOrderMatchesRegistrationOrder(t *testing.T) {
	e := New()
	require.NoError(t, e.Register(schemaTestNode(t, "zeta", "z.com", 0.1)))
	require.NoError(t, e.Register(schemaTestNode(t, "alpha", "a.com", 0.2)))
	require.NoError(t, e.Register(schemaTestNode(t, "mid", "m.com", 0.3)))

	doc := e.ExportSchema()
	require.Len(t, doc.Shortcuts, 3)
	assert.Equal(t, "zeta", doc.Shortcuts[0].NodeID)
	assert.Equal(t, "alpha", doc.Shortcuts[1].NodeID)
	assert.Equal(t, "mid", doc.Shortcuts[2].NodeID)
}

func TestExportStability(t *testing.T) {
	e := New()
	require.NoError(t, e.Register(schemaTestNode(t, "n1", "p1", 0.9)))
	require.NoError(t, e.Register(schemaTestNode(t, "n2", "p2", 0.5)))

	out1, err := e.ExportSchema().EncodeCanonical()
	require.NoError(t, err)
	out2, err := e.ExportSchema().EncodeCanonical()
	require.NoError(t, err)

	assert.Equal(t, out1, out2, "consecutive exports must be byte-identical")
}

func TestExportReplacementKeepsPosition(t *testing.T) {
	e := New()
	require.NoError(t, e.Register(schemaTestNode(t, "first", "p1", 0.9)))
	require.NoError(t, e.Register(schemaTestNode(t, "second", "p2", 0.5)))
	require.NoError(t, e.Register(schemaTestNode(t, "first", "replaced.com", 0.4)))

	doc := e.ExportSchema()
	require.Len(t, doc.Shortcuts, 2)
	assert.Equal(t, "first", doc.Shortcuts[0].NodeID)
	assert.Equal(t, "replaced.com", doc.Shortcuts[0].Pattern)
	assert.Equal(t, "second", doc.Shortcuts[1].NodeID)
}

func TestExportExcludesExecutionLog(t *testing.T) {
	e := New()
	require.NoError(t, e.Register(schemaTestNode(t, "n1", "p1", 0.9)))
	_, err := e.Execute(context.Background(), "n1", axiom.Object{"user": axiom.String("u")})
	require.NoError(t, err)

	out, err := e.ExportSchema().EncodeCanonical()
	require.NoError(t, err)

	assert.NotContains(t, string(out), "total_executions")
	assert.NotContains(t, string(out), "record_id")
	assert.NotContains(t, string(out), "execution")
}

func TestExportCanonicalIsValidJSON(t *testing.T) {
	e := New()
	require.NoError(t, e.Register(schemaTestNode(t, "n1", "p1", 1.0)))

	out, err := e.ExportSchema().EncodeCanonical()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "1.0.0", decoded["schema_version"])

	shortcuts, ok := decoded["shortcuts"].([]any)
	require.True(t, ok, "shortcuts must be an ordered sequence")
	require.Len(t, shortcuts, 1)

	first := shortcuts[0].(map[string]any)
	assert.Equal(t, "n1", first["node_id"])
	assert.Equal(t, 1.0, first["confidence"])
}

func TestExportEmptyRegistry(t *testing.T) {
	e := New()

	out, err := e.ExportSchema().EncodeCanonical()
	require.NoError(t, err)
	assert.Equal(t, `{"schema_version":"1.0.0","shortcuts":[]}`, string(out))
}
