package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// Scenarios register shortcuts, execute a flow of contexts against them,
// and assert on the resulting audit log.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Registry is an optional path to a CUE registry directory.
	// Relative paths resolve against the scenario file's location.
	Registry string `yaml:"registry,omitempty"`

	// Register lists inline shortcut definitions, registered in order
	// after the registry directory (if any) is loaded.
	Register []NodeDef `yaml:"register,omitempty"`

	// Flow contains the executions to perform, in order.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final audit log.
	// Supported types: log_contains, log_order, log_count, replay_clean.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// StartTime pins the wall clock for the run (RFC 3339).
	// Each engine action advances it by one second.
	// Defaults to 2025-01-01T00:00:00Z.
	StartTime string `yaml:"start_time,omitempty"`

	// RecordPrefix sets the record ID prefix ("<prefix>-000001", ...).
	// Defaults to "rec".
	RecordPrefix string `yaml:"record_prefix,omitempty"`
}

// NodeDef is an inline shortcut definition.
type NodeDef struct {
	NodeID             string         `yaml:"node_id"`
	Pattern            string         `yaml:"pattern"`
	Action             string         `yaml:"action"`
	Confidence         float64        `yaml:"confidence"`
	Citations          []CitationDef  `yaml:"citations"`
	DesignImplications map[string]any `yaml:"design_implications,omitempty"`
}

// CitationDef is an inline citation. The content hash is computed by the
// citation factory at registration, never authored in the scenario.
type CitationDef struct {
	SourceID string `yaml:"source_id"`
	Content  string `yaml:"content"`
}

// FlowStep represents one execution in the main flow.
type FlowStep struct {
	// Execute is the node_id to execute.
	Execute string `yaml:"execute"`

	// Context contains the execution context as a map.
	// Values are converted to axiom values during execution.
	Context map[string]any `yaml:"context,omitempty"`

	// Expect specifies the expected outcome.
	// If nil, the execution is assumed to succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected execution outcome.
type ExpectClause struct {
	// Error, when non-empty, declares the execution must fail and the
	// error message must contain this substring.
	Error string `yaml:"error,omitempty"`

	// Result contains expected result payload values, keyed by the
	// result's JSON field names (action, confidence, context_hash, ...).
	// Subset match - only specified fields are validated.
	Result map[string]any `yaml:"result,omitempty"`
}

// Assertion validates the final audit log.
type Assertion struct {
	// Type is one of the Assert* constants below.
	Type string `yaml:"type"`

	// Node is the node_id (used by log_contains, log_count).
	Node string `yaml:"node,omitempty"`

	// Context is the expected execution context (used by log_contains).
	// Subset match - only specified fields are validated.
	Context map[string]any `yaml:"context,omitempty"`

	// Count is the expected number of records (used by log_count).
	Count int `yaml:"count,omitempty"`

	// Nodes is the expected execution order (used by log_order).
	Nodes []string `yaml:"nodes,omitempty"`
}

// Assertion type constants.
const (
	AssertLogContains = "log_contains"
	AssertLogOrder    = "log_order"
	AssertLogCount    = "log_count"
	AssertReplayClean = "replay_clean"
)

// DefaultStartTime is the pinned wall clock used when a scenario does not
// set start_time.
var DefaultStartTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// LoadScenario reads and parses a scenario YAML file.
// Rejects unknown fields (typos) and missing required fields. A relative
// registry path is resolved against the scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Registry != "" && !filepath.IsAbs(scenario.Registry) {
		scenario.Registry = filepath.Join(filepath.Dir(path), scenario.Registry)
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return scenario, nil
}

// ParseScenario parses scenario YAML without path resolution or
// registry-existence checks. Used directly by tests with inline YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // catches typos like "assertion:" vs "assertions:"
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Registry == "" && len(s.Register) == 0 {
		return fmt.Errorf("a registry directory or at least one register entry is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if s.StartTime != "" {
		if _, err := time.Parse(time.RFC3339, s.StartTime); err != nil {
			return fmt.Errorf("start_time: %w", err)
		}
	}

	if s.Registry != "" {
		if _, err := os.Stat(s.Registry); os.IsNotExist(err) {
			return fmt.Errorf("registry directory not found: %s", s.Registry)
		}
	}

	for i, def := range s.Register {
		if def.NodeID == "" {
			return fmt.Errorf("register[%d]: node_id is required", i)
		}
		if len(def.Citations) == 0 {
			return fmt.Errorf("register[%d]: at least one citation is required", i)
		}
		for j, cit := range def.Citations {
			if cit.SourceID == "" || cit.Content == "" {
				return fmt.Errorf("register[%d].citations[%d]: source_id and content are required", i, j)
			}
		}
	}

	for i, step := range s.Flow {
		if step.Execute == "" {
			return fmt.Errorf("flow[%d]: execute is required", i)
		}
		if step.Expect != nil && step.Expect.Error == "" && len(step.Expect.Result) == 0 {
			return fmt.Errorf("flow[%d].expect: error or result is required", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertLogContains:
		if a.Node == "" {
			return fmt.Errorf("assertions[%d]: node is required for log_contains", index)
		}
	case AssertLogOrder:
		if len(a.Nodes) == 0 {
			return fmt.Errorf("assertions[%d]: nodes list is required for log_order", index)
		}
	case AssertLogCount:
		if a.Node == "" {
			return fmt.Errorf("assertions[%d]: node is required for log_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for log_count", index)
		}
	case AssertReplayClean:
		// no parameters
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// startTime returns the scenario's pinned wall clock.
func (s *Scenario) startTime() time.Time {
	if s.StartTime == "" {
		return DefaultStartTime
	}
	at, err := time.Parse(time.RFC3339, s.StartTime)
	if err != nil {
		return DefaultStartTime
	}
	return at.UTC()
}
