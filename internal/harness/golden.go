package harness

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/rollbook/internal/ledger"
)

// DefaultSessionToken is used when a scenario sets no session_token.
const DefaultSessionToken = "test-session-default"

// TraceSnapshot captures the complete trace for a scenario execution.
type TraceSnapshot struct {
	ScenarioName string          `json:"scenario_name"`
	SessionToken string          `json:"session_token"`
	Trace        []TraceEvent    `json:"trace"`
	Final        []ledger.Record `json:"final"`
}

// Snapshot renders the golden trace for a scenario result: indented JSON
// with a trailing newline.
func Snapshot(scenario *Scenario, result *Result) ([]byte, error) {
	token := scenario.SessionToken
	if token == "" {
		token = DefaultSessionToken
	}
	snap := TraceSnapshot{
		ScenarioName: scenario.Name,
		SessionToken: token,
		Trace:        result.Trace,
		Final:        result.Final,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal trace: %w", err)
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	data, err := Snapshot(scenario, result)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)

	return result, nil
}
