package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	content := `
name: test_scenario
description: "Test scenario for validation"
steps:
  - identity: S1
  - create: { as: r1, name: Alice, topic: Math }
  - edit: { record: r1, topic: Physics }
  - filter: phys
    expect: { ids: [STU-1] }
assertions:
  - type: record
    ref: r1
    expect: { topic: Physics }
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	require.Len(t, scenario.Steps, 4)
	assert.Len(t, scenario.Assertions, 1)

	assert.Equal(t, OpIdentity, scenario.Steps[0].Op())
	assert.Equal(t, "S1", *scenario.Steps[0].Identity)
	assert.Equal(t, OpCreate, scenario.Steps[1].Op())
	assert.Equal(t, "r1", scenario.Steps[1].Create.As)
	assert.Equal(t, OpEdit, scenario.Steps[2].Op())
	assert.Nil(t, scenario.Steps[2].Edit.Name)
	assert.Equal(t, "Physics", *scenario.Steps[2].Edit.Topic)
	assert.Equal(t, OpFilter, scenario.Steps[3].Op())
	assert.Equal(t, []string{"STU-1"}, scenario.Steps[3].Expect.IDs)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_EmptyStringFilter(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: s
description: d
steps:
  - filter: ""
`))
	require.NoError(t, err)
	require.NotNil(t, scenario.Steps[0].Filter)
	assert.Equal(t, "", *scenario.Steps[0].Filter)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "name: s\ndescription: d\nstep:\n  - clear: true\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "missing name",
			yaml:    "description: d\nsteps:\n  - clear: true\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: s\nsteps:\n  - clear: true\n",
			wantErr: "description is required",
		},
		{
			name:    "no steps",
			yaml:    "name: s\ndescription: d\n",
			wantErr: "steps list is required",
		},
		{
			name:    "empty step",
			yaml:    "name: s\ndescription: d\nsteps:\n  - expect: { error: NOT_FOUND }\n",
			wantErr: "steps[0]: exactly one operation is required",
		},
		{
			name:    "two operations",
			yaml:    "name: s\ndescription: d\nsteps:\n  - clear: true\n    toggle: \"1\"\n",
			wantErr: "steps[0]: exactly one operation is required",
		},
		{
			name:    "unknown alias",
			yaml:    "name: s\ndescription: d\nsteps:\n  - toggle: r9\n",
			wantErr: `steps[0].toggle: unknown record "r9"`,
		},
		{
			name:    "alias used before create",
			yaml:    "name: s\ndescription: d\nsteps:\n  - delete: r1\n  - create: { as: r1, name: A, topic: B }\n",
			wantErr: `steps[0].delete: unknown record "r1"`,
		},
		{
			name:    "duplicate alias",
			yaml:    "name: s\ndescription: d\nsteps:\n  - create: { as: r1, name: A, topic: B }\n  - create: { as: r1, name: C, topic: D }\n",
			wantErr: `duplicate alias "r1"`,
		},
		{
			name:    "numeric alias",
			yaml:    "name: s\ndescription: d\nsteps:\n  - create: { as: \"7\", name: A, topic: B }\n",
			wantErr: "must not be numeric",
		},
		{
			name:    "edit without record",
			yaml:    "name: s\ndescription: d\nsteps:\n  - edit: { name: A }\n",
			wantErr: "steps[0].edit: record is required",
		},
		{
			name:    "unknown error code",
			yaml:    "name: s\ndescription: d\nsteps:\n  - clear: true\n    expect: { error: BOOM }\n",
			wantErr: `unknown error code "BOOM"`,
		},
		{
			name:    "ids on non-filter",
			yaml:    "name: s\ndescription: d\nsteps:\n  - clear: true\n    expect: { ids: [STU-1] }\n",
			wantErr: "ids only apply to filter",
		},
		{
			name:    "unknown assertion type",
			yaml:    "name: s\ndescription: d\nsteps:\n  - clear: true\nassertions:\n  - type: nope\n",
			wantErr: `unknown assertion type "nope"`,
		},
		{
			name:    "assertion without type",
			yaml:    "name: s\ndescription: d\nsteps:\n  - clear: true\nassertions:\n  - count: 1\n",
			wantErr: "type is required",
		},
		{
			name:    "record assertion without expect",
			yaml:    "name: s\ndescription: d\nsteps:\n  - clear: true\nassertions:\n  - type: record\n    ref: \"1\"\n",
			wantErr: "expect is required for record",
		},
		{
			name:    "absent assertion unknown ref",
			yaml:    "name: s\ndescription: d\nsteps:\n  - clear: true\nassertions:\n  - type: absent\n    ref: ghost\n",
			wantErr: `unknown record "ghost"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
