package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scenariosDir = filepath.Join("..", "..", "testdata", "scenarios")

const passingScenario = `
name: item_by_id
role: admin
query: "{ ItemByID(id: 1) { label } }"
assertions:
  - type: root_field
    field: ItemByID
    model: Items
`

const failingScenario = `
name: wrong_count
role: admin
query: "{ ItemByID(id: 1) { label } }"
assertions:
  - type: field_count
    count: 2
`

func minimalProjectDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "metadata.cue", minimalProject)
	return dir
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, _, err := execute(t, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 2 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, _, err := execute(t, "test", projectDir, "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandNonExistentProject(t *testing.T) {
	_, _, err := execute(t, "test", "/nonexistent/project", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E005")
}

func TestTestCommandRepositoryScenarios(t *testing.T) {
	out, _, err := execute(t, "test", projectDir, scenariosDir)
	require.NoError(t, err, out)

	assert.Contains(t, out, "✓ user_by_id_admin")
	assert.Contains(t, out, "✓ missing_session_variable")
	assert.Contains(t, out, "✓ posts_user_structured")
	assert.Contains(t, out, "Test Summary: 6 passed, 0 failed, 6 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, _, err := execute(t, "test", projectDir, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommandFailure(t *testing.T) {
	scenarios := t.TempDir()
	writeFile(t, scenarios, "item_by_id.yaml", passingScenario)
	writeFile(t, scenarios, "wrong_count.yaml", failingScenario)

	out, _, err := execute(t, "test", minimalProjectDir(t), scenarios)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✓ item_by_id")
	assert.Contains(t, out, "✗ wrong_count")
	assert.Contains(t, out, "Expected: 2 root field(s)")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandFilter(t *testing.T) {
	scenarios := t.TempDir()
	writeFile(t, scenarios, "item_by_id.yaml", passingScenario)
	writeFile(t, scenarios, "wrong_count.yaml", failingScenario)

	out, _, err := execute(t, "test", minimalProjectDir(t), scenarios, "--filter", "item_*")
	require.NoError(t, err)
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTestCommandLoadError(t *testing.T) {
	scenarios := t.TempDir()
	writeFile(t, scenarios, "broken.yaml", "name: broken\nrole: admin\n")

	out, _, err := execute(t, "test", minimalProjectDir(t), scenarios)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommandGoldenUpdateAndCompare(t *testing.T) {
	project := minimalProjectDir(t)
	scenarios := t.TempDir()
	writeFile(t, scenarios, "item_by_id.yaml", passingScenario)
	goldenPath := filepath.Join(scenarios, "golden", "item_by_id.golden")

	out, _, err := execute(t, "test", project, scenarios, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ item_by_id (golden updated)")
	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"collection":"items"`)

	// The golden directory is not scanned for scenarios.
	out, _, err = execute(t, "--format", "json", "test", project, scenarios)
	require.NoError(t, err)
	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "matched", resp.Data.Scenarios[0].Golden)

	require.NoError(t, os.WriteFile(goldenPath, []byte(`{"fields":[]}`), 0644))
	out, _, err = execute(t, "test", project, scenarios)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "IR does not match golden file")
}

func TestTestCommandJSONFailure(t *testing.T) {
	scenarios := t.TempDir()
	writeFile(t, scenarios, "wrong_count.yaml", failingScenario)

	out, _, err := execute(t, "--format", "json", "test", minimalProjectDir(t), scenarios)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	assert.Equal(t, 1, resp.Data.Failed)
}
