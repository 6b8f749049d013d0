package harness

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalScenario = `
name: minimal
description: Smallest valid scenario
register:
  - node_id: n1
    pattern: example.com
    action: click
    confidence: 0.5
    citations:
      - source_id: s1
        content: evidence
flow:
  - execute: n1
`

func TestLoadScenarioMinimal(t *testing.T) {
	path := writeScenario(t, minimalScenario)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "minimal", scenario.Name)
	require.Len(t, scenario.Register, 1)
	assert.Equal(t, "n1", scenario.Register[0].NodeID)
	require.Len(t, scenario.Flow, 1)
	assert.Equal(t, "n1", scenario.Flow[0].Execute)
}

func TestLoadScenarioFromTestdata(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "bulk_notifications.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "bulk_notifications", scenario.Name)
	assert.Len(t, scenario.Flow, 3)
	assert.Len(t, scenario.Assertions, 3)
}

func TestLoadScenarioRejectsUnknownFields(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: Catches the assertion/assertions typo
register:
  - node_id: n1
    pattern: example.com
    action: click
    confidence: 0.5
    citations:
      - source_id: s1
        content: evidence
flow:
  - execute: n1
assertion:
  - type: log_count
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assertion")
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidateScenarioRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Scenario)
		wantErr string
	}{
		{"missing name", func(s *Scenario) { s.Name = "" }, "name is required"},
		{"missing description", func(s *Scenario) { s.Description = "" }, "description is required"},
		{"no shortcuts", func(s *Scenario) { s.Register = nil }, "registry directory or at least one register"},
		{"empty flow", func(s *Scenario) { s.Flow = nil }, "flow list is required"},
		{"bad start time", func(s *Scenario) { s.StartTime = "yesterday" }, "start_time"},
		{"citation missing content", func(s *Scenario) { s.Register[0].Citations[0].Content = "" }, "source_id and content"},
		{"flow missing execute", func(s *Scenario) { s.Flow[0].Execute = "" }, "execute is required"},
		{"empty expect", func(s *Scenario) { s.Flow[0].Expect = &ExpectClause{} }, "error or result is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenario, err := ParseScenario([]byte(minimalScenario))
			require.NoError(t, err)
			tt.mutate(scenario)

			err = validateScenario(scenario)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateAssertionTypes(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{"missing type", Assertion{}, "type is required"},
		{"unknown type", Assertion{Type: "trace_contains"}, "unknown assertion type"},
		{"log_contains without node", Assertion{Type: AssertLogContains}, "node is required"},
		{"log_order without nodes", Assertion{Type: AssertLogOrder}, "nodes list is required"},
		{"log_count without node", Assertion{Type: AssertLogCount}, "node is required"},
		{"log_count negative", Assertion{Type: AssertLogCount, Node: "n1", Count: -1}, "non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAssertion(0, &tt.assertion)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	assert.NoError(t, validateAssertion(0, &Assertion{Type: AssertReplayClean}))
}

func TestScenarioStartTimeDefaults(t *testing.T) {
	s := &Scenario{}
	assert.Equal(t, DefaultStartTime, s.startTime())

	s.StartTime = "2025-06-01T12:00:00Z"
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), s.startTime())
}
