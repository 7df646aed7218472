package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenariosDir = "../harness/testdata/scenarios"

const failingScenario = `name: wrong_outcomes
description: "Expects a refresh that never happens"
master:
  body: '{"sessions": []}'
steps:
  - action: init
assertions:
  - type: outcomes
    outcomes: [loaded, loaded, refreshed]
`

func checkArgs(extra ...string) []string {
	return append([]string{scenariosDir, "--golden", "../harness/testdata/golden"}, extra...)
}

func TestCheckCommand_ExampleScenarios(t *testing.T) {
	out, _, err := execute(NewCheckCommand(&RootOptions{Format: "text"}), checkArgs()...)
	require.NoError(t, err)

	s := out.String()
	assert.Contains(t, s, "✓ conference_basic\n")
	assert.Contains(t, s, "✓ load_failures\n")
	assert.Contains(t, s, "✓ tag_and_filter\n")
	assert.Contains(t, s, "Check Summary: 3 passed, 0 failed, 3 total")
	assert.Contains(t, s, "All scenarios passed")
}

func TestCheckCommand_Filter(t *testing.T) {
	out, _, err := execute(NewCheckCommand(&RootOptions{Format: "text"}), checkArgs("--filter", "tag_*")...)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "✓ tag_and_filter")
	assert.NotContains(t, out.String(), "conference_basic")
	assert.Contains(t, out.String(), "1 passed, 0 failed, 1 total")
}

func TestCheckCommand_InvalidFilter(t *testing.T) {
	_, _, err := execute(NewCheckCommand(&RootOptions{Format: "text"}), checkArgs("--filter", "[")...)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCheckCommand_JSON(t *testing.T) {
	out, _, err := execute(NewCheckCommand(&RootOptions{Format: "json"}), checkArgs()...)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   CheckResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, resp.Data.Total)
	assert.Equal(t, 3, resp.Data.Passed)
	require.Len(t, resp.Data.Scenarios, 3)
	assert.Equal(t, "conference_basic", resp.Data.Scenarios[0].Name)
}

func TestCheckCommand_UpdateThenCompare(t *testing.T) {
	golden := t.TempDir()

	_, _, err := execute(NewCheckCommand(&RootOptions{Format: "text"}), scenariosDir, "--golden", golden, "--update")
	require.NoError(t, err)

	for _, name := range []string{"conference_basic", "load_failures", "tag_and_filter"} {
		assert.FileExists(t, filepath.Join(golden, name+".golden"))
	}

	written, err := os.ReadFile(filepath.Join(golden, "conference_basic.golden"))
	require.NoError(t, err)
	committed, err := os.ReadFile("../harness/testdata/golden/conference_basic.golden")
	require.NoError(t, err)
	assert.Equal(t, string(committed), string(written))

	_, _, err = execute(NewCheckCommand(&RootOptions{Format: "text"}), scenariosDir, "--golden", golden)
	require.NoError(t, err)
}

func TestCheckCommand_GoldenMismatch(t *testing.T) {
	golden := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(golden, "load_failures.golden"), []byte("{}\n"), 0o644))

	out, _, err := execute(NewCheckCommand(&RootOptions{Format: "text"}), scenariosDir, "--golden", golden)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "1 scenario(s) failed", err.Error())
	assert.Contains(t, out.String(), "✗ load_failures\n  snapshot does not match golden file")
	assert.Contains(t, out.String(), "2 passed, 1 failed, 3 total")
}

func TestCheckCommand_FailingAssertion(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(failingScenario), 0o644))

	out, _, err := execute(NewCheckCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	s := out.String()
	assert.Contains(t, s, "✗ wrong_outcomes")
	assert.Contains(t, s, "  Assertion failed: outcomes")
	assert.Contains(t, s, "0 passed, 1 failed, 1 total")
}

func TestCheckCommand_FailingAssertionJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(failingScenario), 0o644))

	out, _, err := execute(NewCheckCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_CHECK_FAILED", resp.Error.Code)
	assert.Equal(t, "1 scenario(s) failed", resp.Error.Message)
}

func TestCheckCommand_BadScenarioFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yml"), []byte("name: broken\n"), 0o644))

	out, _, err := execute(NewCheckCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out.String(), "✗ broken.yml")
	assert.Contains(t, out.String(), "failed to load scenario")
}

func TestCheckCommand_NoScenarios(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("notes"), 0o644))

	out, _, err := execute(NewCheckCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", out.String())
}

func TestCheckCommand_MissingDir(t *testing.T) {
	_, _, err := execute(NewCheckCommand(&RootOptions{Format: "text"}), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.True(t, strings.HasPrefix(err.Error(), "scenarios directory not found"))
}
