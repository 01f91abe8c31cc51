package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rollbook/internal/ledger"
	"github.com/roach88/rollbook/internal/store"
)

// isolateEnv points config and data lookups at a temp dir and returns it.
func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("NO_COLOR", "1")
	for _, name := range []string{"ROLLBOOK_CONFIG", "ROLLBOOK_STORE", "ROLLBOOK_DB_PATH", "ROLLBOOK_LOG_LEVEL", "ROLLBOOK_LOG_FORMAT"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	return dir
}

// runCLI executes one rollbook invocation and returns its stdout.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

// runJSON runs a command with --format json and decodes the envelope.
func runJSON(t *testing.T, args ...string) (envelope, error) {
	t.Helper()
	out, err := runCLI(t, "", append([]string{"--format", "json"}, args...)...)
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env), "output: %s", out)
	return env, err
}

// addRecord creates a record as identity and returns it.
func addRecord(t *testing.T, identity, name, topic string) ledger.Record {
	t.Helper()
	env, err := runJSON(t, "--as", identity, "add", "--name", name, "--topic", topic)
	require.NoError(t, err)
	var res mutationResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.NotNil(t, res.Record)
	return *res.Record
}

func listRecords(t *testing.T, query ...string) []ledger.Record {
	t.Helper()
	env, err := runJSON(t, append([]string{"list"}, query...)...)
	require.NoError(t, err)
	var records []ledger.Record
	require.NoError(t, json.Unmarshal(env.Data, &records))
	return records
}

func key(r ledger.Record) string {
	return strconv.FormatInt(r.CreatedAt, 10)
}

func TestAdd_RequiresIdentity(t *testing.T) {
	isolateEnv(t)

	env, err := runJSON(t, "add", "--name", "Ana", "--topic", "Math")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, "NO_ACTIVE_IDENTITY", env.Error.Code)
	assert.Empty(t, listRecords(t))
}

func TestAdd_PersistsAcrossInvocations(t *testing.T) {
	isolateEnv(t)

	first := addRecord(t, "alice", "Ana Lima", "Math")
	assert.Equal(t, 1, first.Serial)
	assert.Equal(t, "STU-1", first.ID)
	assert.Equal(t, "alice", first.OwnerID)
	assert.False(t, first.Referenced)

	second := addRecord(t, "bob", "Bruno", "Physics")
	assert.Equal(t, 2, second.Serial)
	assert.Greater(t, second.CreatedAt, first.CreatedAt)

	records := listRecords(t)
	require.Len(t, records, 2)
	assert.Equal(t, "STU-1", records[0].ID)
	assert.Equal(t, "STU-2", records[1].ID)
}

func TestAdd_MissingFields(t *testing.T) {
	isolateEnv(t)

	env, err := runJSON(t, "--as", "alice", "add", "--name", "  ")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "MISSING_FIELD", env.Error.Code)
	assert.Equal(t, map[string]any{"fields": []any{"name", "topic"}}, env.Error.Details)
}

func TestAdd_TextShowsTableAndBanner(t *testing.T) {
	isolateEnv(t)

	out, err := runCLI(t, "", "--as", "alice", "add", "--name", "Ana Lima", "--topic", "Math")
	require.NoError(t, err)
	assert.Contains(t, out, "STU-1")
	assert.Contains(t, out, "Ana Lima")
	assert.Contains(t, out, "Logged in: alice")
}

func TestEdit_OwnerOnly(t *testing.T) {
	isolateEnv(t)
	r := addRecord(t, "alice", "Ana", "Math")

	env, err := runJSON(t, "--as", "bob", "edit", key(r), "--name", "Hijacked")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "NOT_OWNER", env.Error.Code)

	env, err = runJSON(t, "--as", "alice", "edit", key(r), "--topic", "Physics")
	require.NoError(t, err)
	var res mutationResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "Ana", res.Record.Name)
	assert.Equal(t, "Physics", res.Record.Topic)
	assert.Equal(t, r.ID, res.Record.ID)
	assert.Equal(t, "alice", res.Identity)

	records := listRecords(t)
	require.Len(t, records, 1)
	assert.Equal(t, "Physics", records[0].Topic)
}

func TestEdit_WithoutIdentity(t *testing.T) {
	isolateEnv(t)
	r := addRecord(t, "alice", "Ana", "Math")

	env, err := runJSON(t, "edit", key(r), "--name", "X")
	require.Error(t, err)
	assert.Equal(t, "NO_ACTIVE_IDENTITY", env.Error.Code)
}

func TestRefLocksDelete(t *testing.T) {
	isolateEnv(t)
	r := addRecord(t, "alice", "Ana", "Math")

	// Anyone may toggle, even without an identity.
	env, err := runJSON(t, "ref", key(r))
	require.NoError(t, err)
	var res mutationResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.Record.Referenced)
	assert.Empty(t, res.Identity)

	env, err = runJSON(t, "--as", "alice", "delete", key(r))
	require.Error(t, err)
	assert.Equal(t, "RECORD_REFERENCED", env.Error.Code)
	assert.Len(t, listRecords(t), 1)

	_, err = runJSON(t, "--as", "bob", "ref", key(r))
	require.NoError(t, err)

	env, err = runJSON(t, "--as", "bob", "delete", key(r))
	require.Error(t, err)
	assert.Equal(t, "NOT_OWNER", env.Error.Code)

	_, err = runJSON(t, "--as", "alice", "delete", key(r))
	require.NoError(t, err)
	assert.Empty(t, listRecords(t))
}

func TestShow(t *testing.T) {
	isolateEnv(t)
	r := addRecord(t, "alice", "Ana", "Math")

	env, err := runJSON(t, "show", key(r))
	require.NoError(t, err)
	var got ledger.Record
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, r, got)

	out, err := runCLI(t, "", "show", key(r))
	require.NoError(t, err)
	assert.Contains(t, out, "STU-1")
	assert.Contains(t, out, "owner:      alice")

	env, err = runJSON(t, "show", "42")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	_, err = runCLI(t, "", "show", "abc")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestList_Filter(t *testing.T) {
	isolateEnv(t)
	addRecord(t, "alice", "Ana Lima", "Math")
	addRecord(t, "bob", "Bruno", "Physics")
	addRecord(t, "alice", "Carla", "Mathematics")

	got := listRecords(t, "MATH")
	require.Len(t, got, 2)
	assert.Equal(t, "Ana Lima", got[0].Name)
	assert.Equal(t, "Carla", got[1].Name)

	got = listRecords(t, "stu-2")
	require.Len(t, got, 1)
	assert.Equal(t, "Bruno", got[0].Name)

	assert.Len(t, listRecords(t, "   "), 3)
	assert.Empty(t, listRecords(t, "chemistry"))
}

func TestList_EmptyText(t *testing.T) {
	isolateEnv(t)

	out, err := runCLI(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No records.")
}

func TestClear(t *testing.T) {
	isolateEnv(t)
	r := addRecord(t, "alice", "Ana", "Math")
	addRecord(t, "bob", "Bruno", "Physics")
	_, err := runJSON(t, "ref", key(r))
	require.NoError(t, err)

	// stdin is not a terminal, so confirmation cannot be asked.
	_, err = runCLI(t, "y\n", "clear")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, errNotInteractive)
	assert.Len(t, listRecords(t), 2)

	// No identity needed, and referenced records go too.
	_, err = runCLI(t, "", "clear", "--yes")
	require.NoError(t, err)
	assert.Empty(t, listRecords(t))

	next := addRecord(t, "alice", "Dora", "Art")
	assert.Equal(t, 1, next.Serial)
}

func TestWhoami(t *testing.T) {
	isolateEnv(t)

	env, err := runJSON(t, "--as", "  alice  ", "whoami")
	require.NoError(t, err)
	var got map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "alice", got["identity"])
	assert.NotEmpty(t, got["session"])

	out, err := runCLI(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in: (none)")
}

func TestAs_Blank(t *testing.T) {
	isolateEnv(t)

	env, err := runJSON(t, "--as", "   ", "whoami")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "EMPTY_IDENTITY", env.Error.Code)
}

func TestExport(t *testing.T) {
	dir := isolateEnv(t)
	addRecord(t, "alice", "Ana & Co", "Math")
	addRecord(t, "bob", "Bruno", "Physics")

	jsonPath := filepath.Join(dir, "roll.json")
	env, err := runJSON(t, "export", "--out", jsonPath)
	require.NoError(t, err)
	var res ExportResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, ExportResult{Path: jsonPath, Format: "json", Records: 2}, res)

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	records, err := store.DecodeSnapshot(data)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Ana & Co", records[0].Name)

	yamlPath := filepath.Join(dir, "roll.yml")
	out, err := runCLI(t, "", "export", "-o", yamlPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 records")
	data, err = os.ReadFile(yamlPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version: 1")
	assert.Contains(t, string(data), "name: Bruno")
}

func TestExport_BadExtension(t *testing.T) {
	dir := isolateEnv(t)

	_, err := runCLI(t, "", "export", "--out", filepath.Join(dir, "roll.csv"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestBadgerBackend(t *testing.T) {
	dir := isolateEnv(t)
	t.Setenv("ROLLBOOK_STORE", "badger")
	t.Setenv("ROLLBOOK_DB_PATH", filepath.Join(dir, "badger"))

	r := addRecord(t, "alice", "Ana", "Math")
	_, err := runJSON(t, "ref", key(r))
	require.NoError(t, err)

	records := listRecords(t)
	require.Len(t, records, 1)
	assert.True(t, records[0].Referenced)
	assert.DirExists(t, filepath.Join(dir, "badger"))
}

func TestConfigFile(t *testing.T) {
	dir := isolateEnv(t)
	dbPath := filepath.Join(dir, "custom", "roll.db")
	cfgPath := filepath.Join(dir, "rollbook.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("storage:\n  backend: sqlite\n  path: "+dbPath+"\n"), 0o644))

	_, err := runJSON(t, "--config", cfgPath, "--as", "alice", "add", "--name", "Ana", "--topic", "Math")
	require.NoError(t, err)
	assert.FileExists(t, dbPath)
}

func TestConfigErrors(t *testing.T) {
	dir := isolateEnv(t)

	_, err := runCLI(t, "", "--config", filepath.Join(dir, "missing.yaml"), "list")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	t.Setenv("ROLLBOOK_STORE", "postgres")
	env, err := runJSON(t, "list")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, "CONFIG_ERROR", env.Error.Code)
}
