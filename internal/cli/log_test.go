package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAuditDB(t *testing.T) (registry, db string) {
	t.Helper()
	registry = writeRegistry(t)
	db = filepath.Join(t.TempDir(), "audit.db")

	for _, args := range [][]string{
		{"exec", "github_notifications", "--registry", registry, "--db", db, "--context", `{"user":"u1"}`},
		{"exec", "login_flow", "--registry", registry, "--db", db},
		{"exec", "github_notifications", "--registry", registry, "--db", db, "--context", `{"user":"u2"}`},
	} {
		_, err := execute(t, args...)
		require.NoError(t, err)
	}
	return registry, db
}

func TestLogDumpsAllRecords(t *testing.T) {
	_, db := seedAuditDB(t)

	out, err := execute(t, "log", "--db", db)
	require.NoError(t, err)

	assert.Contains(t, out, "3 record(s)")
	assert.Contains(t, out, "node=github_notifications")
	assert.Contains(t, out, "node=login_flow")
}

func TestLogFilterByNode(t *testing.T) {
	_, db := seedAuditDB(t)

	out, err := execute(t, "log", "--db", db, "--node", "login_flow")
	require.NoError(t, err)

	assert.Contains(t, out, "1 record(s)")
	assert.NotContains(t, out, "node=github_notifications")
}

func TestLogJSONOutput(t *testing.T) {
	_, db := seedAuditDB(t)

	out, err := execute(t, "--format", "json", "log", "--db", db)
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, resp.Data, 3)
}

func TestLogEmptyDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")

	// Opening creates the schema, so a fresh path is a valid empty log.
	out, err := execute(t, "log", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No execution records.")
}
