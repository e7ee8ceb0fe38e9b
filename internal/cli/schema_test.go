package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaAdmin(t *testing.T) {
	out, _, err := execute(t, "schema", projectDir, "--role", "admin")
	require.NoError(t, err)

	assert.Contains(t, out, "type Query")
	assert.Contains(t, out, "UserByID(")
	assert.Contains(t, out, "CommentByID(")
}

func TestSchemaHidesFieldsWithoutPermission(t *testing.T) {
	out, _, err := execute(t, "schema", projectDir, "--role", "user")
	require.NoError(t, err)

	assert.Contains(t, out, "UserByID(")
	assert.NotContains(t, out, "CommentByID")
}

func TestSchemaJSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "schema", projectDir, "--role", "admin")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   SchemaResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "admin", resp.Data.Role)
	assert.Contains(t, resp.Data.SDL, "type Query")
}

func TestSchemaRequiresRole(t *testing.T) {
	_, _, err := execute(t, "schema", projectDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "role" not set`)
}

func TestSchemaMissingProject(t *testing.T) {
	_, _, err := execute(t, "schema", "/nonexistent/project", "--role", "admin")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E005")
}
