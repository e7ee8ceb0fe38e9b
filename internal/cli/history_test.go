package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type historyResponse struct {
	Status string    `json:"status"`
	Error  *CLIError `json:"error"`
	Data   struct {
		Operations []struct {
			Seq         int64           `json:"seq"`
			RequestID   string          `json:"request_id"`
			Role        string          `json:"role"`
			Pipeline    string          `json:"pipeline"`
			Fingerprint string          `json:"fingerprint"`
			IR          json.RawMessage `json:"ir"`
		} `json:"operations"`
		ModelUsage map[string]int `json:"model_usage"`
	} `json:"data"`
}

// recordCompile compiles query into db and returns the request id.
func recordCompile(t *testing.T, db, query string, args ...string) string {
	t.Helper()
	q := writeQuery(t, query)
	argv := append([]string{"--format", "json", "compile", projectDir, "-q", q, "--role", "admin", "--record", db}, args...)
	out, _, err := execute(t, argv...)
	require.NoError(t, err)

	var resp compileResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotEmpty(t, resp.RequestID)
	return resp.RequestID
}

func TestHistory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ops.db")
	first := recordCompile(t, db, `{ UserByID(id: 1) { id } }`)
	second := recordCompile(t, db, `{ Posts(args: {region: "eu"}) { title author { name } } }`, "--pipeline", "structured")

	t.Run("json", func(t *testing.T) {
		out, _, err := execute(t, "--format", "json", "history", db)
		require.NoError(t, err)

		var resp historyResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Equal(t, "ok", resp.Status)
		require.Len(t, resp.Data.Operations, 2)
		assert.Equal(t, first, resp.Data.Operations[0].RequestID)
		assert.Equal(t, second, resp.Data.Operations[1].RequestID)
		assert.Equal(t, "admin", resp.Data.Operations[0].Role)
		assert.Equal(t, "structured", resp.Data.Operations[1].Pipeline)
		assert.Nil(t, resp.Data.Operations[0].IR)
		assert.Equal(t, map[string]int{"Users": 2, "Posts": 1}, resp.Data.ModelUsage)
	})

	t.Run("text", func(t *testing.T) {
		out, _, err := execute(t, "history", db)
		require.NoError(t, err)
		assert.Contains(t, out, "#1 "+first+" (anonymous) role=admin pipeline=legacy")
		assert.Contains(t, out, "#2 "+second)
		assert.Contains(t, out, "2 operation(s)")
	})

	t.Run("model filter", func(t *testing.T) {
		out, _, err := execute(t, "--format", "json", "history", db, "--model", "Posts")
		require.NoError(t, err)

		var resp historyResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		require.Len(t, resp.Data.Operations, 1)
		assert.Equal(t, second, resp.Data.Operations[0].RequestID)
	})

	t.Run("limit", func(t *testing.T) {
		out, _, err := execute(t, "history", db, "--limit", "1")
		require.NoError(t, err)
		assert.NotContains(t, out, first)
		assert.Contains(t, out, "1 operation(s)")
	})

	t.Run("request id", func(t *testing.T) {
		out, _, err := execute(t, "history", db, "--request-id", first)
		require.NoError(t, err)
		assert.Contains(t, out, "#1 "+first)
		assert.Contains(t, out, `"field_name":"UserByID"`)
	})

	t.Run("unknown request id", func(t *testing.T) {
		_, _, err := execute(t, "history", db, "--request-id", "nope")
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, err.Error(), "operation not found")
	})
}

func TestHistoryFingerprintGroupsIdenticalQueries(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ops.db")
	recordCompile(t, db, `{ UserByID(id: 1) { id } }`)
	recordCompile(t, db, `{ UserByID(id: 1) { id } }`)
	recordCompile(t, db, `{ UserByID(id: 2) { id } }`)

	out, _, err := execute(t, "--format", "json", "history", db)
	require.NoError(t, err)
	var all historyResponse
	require.NoError(t, json.Unmarshal([]byte(out), &all))
	require.Len(t, all.Data.Operations, 3)

	out, _, err = execute(t, "--format", "json", "history", db, "--fingerprint", all.Data.Operations[0].Fingerprint)
	require.NoError(t, err)
	var same historyResponse
	require.NoError(t, json.Unmarshal([]byte(out), &same))
	assert.Len(t, same.Data.Operations, 2)
}

func TestHistoryEmptyLog(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ops.db")
	recordCompile(t, db, `{ UserByID(id: 1) { id } }`)

	out, _, err := execute(t, "history", db, "--model", "Comments")
	require.NoError(t, err)
	assert.Contains(t, out, "No operations recorded.")
}

func TestHistoryCommandErrors(t *testing.T) {
	_, _, err := execute(t, "history", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)

	db := filepath.Join(t.TempDir(), "ops.db")
	recordCompile(t, db, `{ UserByID(id: 1) { id } }`)
	_, _, err = execute(t, "history", db, "--limit", "-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeInvalidFlag)
}

func TestCompileRecordFailure(t *testing.T) {
	q := writeQuery(t, `{ UserByID(id: 1) { id } }`)
	db := filepath.Join(t.TempDir(), "no", "such", "dir", "ops.db")

	_, _, err := execute(t, "compile", projectDir, "-q", q, "--role", "admin", "--record", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeRecordFailed)
}
