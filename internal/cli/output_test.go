package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitErrorCodes(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad path")))

	wrapped := fmt.Errorf("outer: %w", NewExitError(ExitFailure, "inner"))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
}

func TestExitErrorMessage(t *testing.T) {
	err := WrapExitError(ExitCommandError, "open database", errors.New("no such file"))
	assert.Equal(t, "open database: no such file", err.Error())
	assert.Equal(t, "no such file", err.Unwrap().Error())
}

func TestFormatterSuccessJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, f.Success(map[string]any{"count": 2}))

	var resp Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestFormatterErrorJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, f.Error(ErrCodeNotFound, "shortcut not found", nil))

	var resp Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestFormatterErrorText(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, f.Error(ErrCodeLoad, "registry load failed", nil))
	assert.Contains(t, buf.String(), "Error [E002]: registry load failed")
}

func TestFormatterVerboseLog(t *testing.T) {
	out := &bytes.Buffer{}
	diag := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: out, ErrWriter: diag, Verbose: true}

	f.VerboseLog("loaded %d files", 3)

	assert.Empty(t, out.String(), "diagnostics must not corrupt JSON output")
	assert.Contains(t, diag.String(), "loaded 3 files")

	f.Verbose = false
	diag.Reset()
	f.VerboseLog("quiet")
	assert.Empty(t, diag.String())
}
