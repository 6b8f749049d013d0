package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecBasic(t *testing.T) {
	dir := writeRegistry(t)

	out, err := execute(t, "exec", "github_notifications",
		"--registry", dir, "--context", `{"user":"u1"}`)
	require.NoError(t, err)

	assert.Contains(t, out, `"node_id": "github_notifications"`)
	assert.Contains(t, out, `"action": "bulk_mark_done"`)
	assert.Contains(t, out, `"result_id"`)
}

func TestExecJSONOutput(t *testing.T) {
	dir := writeRegistry(t)

	out, err := execute(t, "--format", "json", "exec", "login_flow", "--registry", dir)
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "login_flow", data["node_id"])
	assert.NotEmpty(t, data["context_hash"])
}

func TestExecDeterministicResultID(t *testing.T) {
	dir := writeRegistry(t)

	first, err := execute(t, "--format", "json", "exec", "github_notifications",
		"--registry", dir, "--context", `{"user":"u1"}`)
	require.NoError(t, err)
	second, err := execute(t, "--format", "json", "exec", "github_notifications",
		"--registry", dir, "--context", `{"user":"u1"}`)
	require.NoError(t, err)

	var a, b Response
	require.NoError(t, json.Unmarshal([]byte(first), &a))
	require.NoError(t, json.Unmarshal([]byte(second), &b))
	assert.Equal(t,
		a.Data.(map[string]any)["result_id"],
		b.Data.(map[string]any)["result_id"],
		"identical context must yield an identical result id across processes")
}

func TestExecUnknownShortcut(t *testing.T) {
	dir := writeRegistry(t)

	out, err := execute(t, "exec", "ghost", "--registry", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "not found")
}

func TestExecInvalidContextJSON(t *testing.T) {
	dir := writeRegistry(t)

	_, err := execute(t, "exec", "login_flow", "--registry", dir, "--context", "{nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExecWithAuditDB(t *testing.T) {
	dir := writeRegistry(t)
	db := filepath.Join(t.TempDir(), "audit.db")

	_, err := execute(t, "exec", "login_flow", "--registry", dir, "--db", db)
	require.NoError(t, err)
	_, err = execute(t, "exec", "login_flow", "--registry", dir, "--db", db)
	require.NoError(t, err)

	out, err := execute(t, "log", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "2 record(s)")
	// Seq resumes past persisted history across processes.
	assert.Contains(t, out, "[2]")
}
