package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldir/internal/compiler"
)

func TestValidateProject(t *testing.T) {
	out, _, err := execute(t, "validate", projectDir)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ 3 model(s) valid")
	assert.Contains(t, out, "⚠ Relationship cycle allows unbounded nesting: Users → Posts → Users")
}

func TestValidateProjectJSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "validate", projectDir)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 3, resp.Data.Models)
	require.Len(t, resp.Data.Warnings, 1)
	assert.Equal(t, []string{"Users", "Posts", "Users"}, resp.Data.Warnings[0].Path)
}

func TestValidateVerboseOutput(t *testing.T) {
	_, errOut, err := execute(t, "-v", "validate", projectDir)
	require.NoError(t, err)

	assert.Contains(t, errOut, "Found 1 CUE file(s)")
	assert.Contains(t, errOut, "Validated model: Users")
	assert.Contains(t, errOut, "Validated model: Comments")
}

func TestValidateNonExistentDirectory(t *testing.T) {
	out, _, err := execute(t, "validate", "/nonexistent/directory/path")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E005")
	assert.Contains(t, out, "not found")
}

func TestValidateEmptyDirectory(t *testing.T) {
	out, _, err := execute(t, "validate", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E003")
	assert.Contains(t, out, "no CUE files found")
}

func TestValidateCUEConflict(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.cue", `
package test

x: 1
x: 2
`)

	_, _, err := execute(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E006")
}

func TestValidateMalformedMetadata(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.cue", `
package test

types: Item: fields: id: "Int!"
models: Items: description: "no data type"
`)

	out, _, err := execute(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "E008: models.Items.data_type")
}

func TestValidateCrossReferenceErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.cue", `
package test

types: Item: fields: id: "Int!"

models: Items: {
	data_type: "Missing"
	graphql: select_uniques: [{query_root_field: "bad name", unique_identifier: ["id"]}]
}
`)

	out, _, err := execute(t, "--format", "json", "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.NotEmpty(t, resp.Data.Errors)
	assert.Equal(t, compiler.ErrUnknownDataType, resp.Data.Errors[0].Code)
	assert.Equal(t, resp.Data.Errors[0].Code, resp.Error.Code)
}

func TestValidateMinimalProject(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "metadata.cue", minimalProject)

	out, _, err := execute(t, "validate", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 1 model(s) valid")
	assert.NotContains(t, out, "⚠")
}
