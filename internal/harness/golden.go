package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/comet-hive/comet/internal/axiom"
)

// Snapshot captures the complete event log for a scenario run.
// Serialized as canonical JSON, so golden comparison is byte-exact.
type Snapshot struct {
	ScenarioName string  `json:"scenario_name"`
	Events       []Event `json:"events"`
}

// toCanonical converts a Snapshot to an axiom object for canonical JSON
// serialization. Empty event fields are omitted, matching the JSON tags.
func (s *Snapshot) toCanonical() axiom.Object {
	events := make(axiom.Array, len(s.Events))
	for i, event := range s.Events {
		obj := axiom.Object{
			"type":    axiom.String(event.Type),
			"node_id": axiom.String(event.NodeID),
		}
		if event.Seq != 0 {
			obj["seq"] = axiom.Int(event.Seq)
		}
		if event.ContextHash != "" {
			obj["context_hash"] = axiom.String(event.ContextHash)
		}
		if event.ResultID != "" {
			obj["result_id"] = axiom.String(event.ResultID)
		}
		if event.Timestamp != "" {
			obj["timestamp"] = axiom.String(event.Timestamp)
		}
		if event.Error != "" {
			obj["error"] = axiom.String(event.Error)
		}
		events[i] = obj
	}

	return axiom.Object{
		"scenario_name": axiom.String(s.ScenarioName),
		"events":        events,
	}
}

// RunWithGolden executes a scenario and compares the event log against a
// golden file at testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the run itself fails; a log mismatch fails the test
// through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing run's event log against a golden file.
// Useful when the caller has already run the scenario and wants the
// comparison without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := Snapshot{
		ScenarioName: scenarioName,
		Events:       result.Events,
	}

	data, err := axiom.MarshalCanonical(snapshot.toCanonical())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
