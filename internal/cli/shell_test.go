package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"list", []string{"list"}},
		{"add Ana Math", []string{"add", "Ana", "Math"}},
		{`add "Ana Lima" 'Linear Algebra'`, []string{"add", "Ana Lima", "Linear Algebra"}},
		{`edit 12 name="Ana Lima"`, []string{"edit", "12", "name=Ana Lima"}},
		{`add "" Math`, []string{"add", "", "Math"}},
		{"id\talice", []string{"id", "alice"}},
		{`add "it's" x`, []string{"add", "it's", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := splitArgs(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitArgs_Unterminated(t *testing.T) {
	_, err := splitArgs(`add "Ana Math`)
	assert.Error(t, err)
}

func TestShell_IdentityLastsForSession(t *testing.T) {
	isolateEnv(t)

	script := strings.Join([]string{
		"whoami",
		"id alice",
		`add "Ana Lima" Math`,
		"list",
		"quit",
		"add ignored after quit",
	}, "\n")
	out, err := runCLI(t, script, "shell")
	require.NoError(t, err)

	assert.Contains(t, out, "Logged in: (none)")
	assert.Contains(t, out, "Logged in: alice")
	assert.Contains(t, out, "Ana Lima")
	assert.NotContains(t, out, "rollbook>", "no prompt without a terminal")

	records := listRecords(t)
	require.Len(t, records, 1)
	assert.Equal(t, "alice", records[0].OwnerID)

	// Identity is not persisted between processes.
	out, err = runCLI(t, "whoami\n", "shell")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in: (none)")
}

func TestShell_ErrorsDoNotEndSession(t *testing.T) {
	isolateEnv(t)

	script := strings.Join([]string{
		"add Ana Math",
		"add onlyname",
		"bogus",
		`add "unterminated`,
		"show abc",
		"id alice",
		"add Ana Math",
	}, "\n")
	out, err := runCLI(t, script, "shell")
	require.NoError(t, err)

	assert.Contains(t, out, "Error [NO_ACTIVE_IDENTITY]")
	assert.Contains(t, out, "Error [USAGE]: add <name> <topic>")
	assert.Contains(t, out, `unknown command "bogus"`)
	assert.Contains(t, out, "unterminated")
	assert.Contains(t, out, `invalid key "abc"`)
	assert.Len(t, listRecords(t), 1)
}

func TestShell_OwnershipRules(t *testing.T) {
	isolateEnv(t)
	r := addRecord(t, "alice", "Ana", "Math")

	script := strings.Join([]string{
		"id bob",
		"edit " + key(r) + " name=Hijacked",
		"delete " + key(r),
		"ref " + key(r),
		"id alice",
		"delete " + key(r),
		"edit " + key(r) + ` topic="Linear Algebra"`,
		"edit " + key(r) + " serial=9",
	}, "\n")
	out, err := runCLI(t, script, "--format", "json", "shell")
	require.NoError(t, err)

	var codes []string
	dec := json.NewDecoder(strings.NewReader(out))
	for {
		var env envelope
		err := dec.Decode(&env)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if env.Error != nil {
			codes = append(codes, env.Error.Code)
		} else {
			codes = append(codes, env.Status)
		}
	}
	assert.Equal(t, []string{
		"ok",                // id bob
		"NOT_OWNER",         // edit
		"NOT_OWNER",         // delete
		"ok",                // ref
		"ok",                // id alice
		"RECORD_REFERENCED", // delete
		"ok",                // edit topic
		"USAGE",             // serial is not editable
	}, codes)

	records := listRecords(t)
	require.Len(t, records, 1)
	assert.Equal(t, "Ana", records[0].Name)
	assert.Equal(t, "Linear Algebra", records[0].Topic)
	assert.True(t, records[0].Referenced)
}

func TestShell_ClearConfirmation(t *testing.T) {
	isolateEnv(t)
	addRecord(t, "alice", "Ana", "Math")

	out, err := runCLI(t, "clear\nn\n", "shell")
	require.NoError(t, err)
	assert.Contains(t, out, "Remove all 1 records? [y/N]")
	assert.Contains(t, out, "Cancelled.")
	assert.Len(t, listRecords(t), 1)

	out, err = runCLI(t, "clear\n", "shell")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")
	assert.Len(t, listRecords(t), 1)

	out, err = runCLI(t, "clear\nyes\n", "shell")
	require.NoError(t, err)
	assert.Contains(t, out, "No records.")
	assert.Empty(t, listRecords(t))

	addRecord(t, "bob", "Bruno", "Physics")
	_, err = runCLI(t, "clear --yes\n", "shell")
	require.NoError(t, err)
	assert.Empty(t, listRecords(t))
}

func TestShell_AsFlagSeedsIdentity(t *testing.T) {
	isolateEnv(t)

	out, err := runCLI(t, "add Ana Math\nwhoami\n", "--as", "carol", "shell")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in: carol")

	records := listRecords(t)
	require.Len(t, records, 1)
	assert.Equal(t, "carol", records[0].OwnerID)
}

func TestShell_FilterStaysApplied(t *testing.T) {
	isolateEnv(t)

	script := strings.Join([]string{
		"id alice",
		"add Ana Math",
		"list physics",
		"add Bruno Physics",
	}, "\n")
	out, err := runCLI(t, script, "shell")
	require.NoError(t, err)

	// The table printed after the second add only shows the physics row.
	last := out[strings.LastIndex(out, "KEY"):]
	assert.Contains(t, last, "Bruno")
	assert.NotContains(t, last, "Ana")
	assert.Len(t, listRecords(t), 2)
}

func TestShell_VerboseReportsFailures(t *testing.T) {
	isolateEnv(t)

	run := func(args ...string) (string, string) {
		cmd := NewRootCommand()
		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		cmd.SetOut(stdout)
		cmd.SetErr(stderr)
		cmd.SetIn(strings.NewReader("bogus\nwhoami\n"))
		cmd.SetArgs(args)
		require.NoError(t, cmd.Execute())
		return stdout.String(), stderr.String()
	}

	stdout, stderr := run("--verbose", "shell")
	assert.Contains(t, stderr, "bogus failed:")
	assert.NotContains(t, stdout, "bogus failed:")
	assert.Contains(t, stdout, "Logged in: (none)")

	_, stderr = run("shell")
	assert.NotContains(t, stderr, "bogus failed:")
}
