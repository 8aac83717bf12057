package harness

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot is the golden file body: what a scenario did and what the
// device would upload afterwards. encoding/json sorts map keys, so the
// bytes are stable across runs.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
	Snapshot     *Snapshot    `json:"snapshot,omitempty"`
}

// MarshalGolden renders the golden file content for a result.
func MarshalGolden(scenarioName string, result *Result) ([]byte, error) {
	snap := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
		Snapshot:     result.Snapshot,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal golden: %w", err)
	}
	return append(data, '\n'), nil
}

// RunWithGolden runs scenario and checks it against
// testdata/golden/<name>.golden; pass -update to rewrite the file. Only a
// run error is returned; a mismatch fails t.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden checks an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalGolden(scenarioName, result)
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
