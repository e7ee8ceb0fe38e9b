package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldir/internal/metadata"
)

func TestLoadSessionFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "session.yaml", `
role: user
variables:
  x-hasura-tenant-id: acme
headers:
  X-Request-Id: req-1
`)

	sf, err := LoadSessionFile(path)
	require.NoError(t, err)
	assert.Equal(t, "user", sf.Role)
	assert.Equal(t, map[string]string{"x-hasura-tenant-id": "acme"}, sf.Variables)
	assert.Equal(t, map[string]string{"X-Request-Id": "req-1"}, sf.Headers)
}

func TestLoadSessionFile_RejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, t.TempDir(), "session.yaml", "role: user\nclaims: {}\n")

	_, err := LoadSessionFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "claims")
}

func TestLoadSessionFile_Missing(t *testing.T) {
	_, err := LoadSessionFile("/nonexistent/session.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading session file")
}

func TestNewRequestContext(t *testing.T) {
	sf := &SessionFile{
		Role:      "user",
		Variables: map[string]string{"x-hasura-region": "eu"},
		Headers:   map[string]string{"x-request-id": "req-1"},
	}

	rc, err := NewRequestContext(sf, "")
	require.NoError(t, err)
	assert.Equal(t, metadata.Role("user"), rc.Session.Role)
	v, ok := rc.Session.Lookup("x-hasura-region")
	assert.True(t, ok)
	assert.Equal(t, "eu", v)
	assert.Equal(t, "req-1", rc.Headers.Get("X-Request-Id"))

	override, err := NewRequestContext(sf, "admin")
	require.NoError(t, err)
	assert.Equal(t, metadata.Role("admin"), override.Session.Role)

	flagOnly, err := NewRequestContext(nil, "admin")
	require.NoError(t, err)
	assert.Equal(t, metadata.Role("admin"), flagOnly.Session.Role)
	assert.Empty(t, flagOnly.Headers)
}

func TestNewRequestContext_NoRole(t *testing.T) {
	_, err := NewRequestContext(&SessionFile{}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no role")

	_, err = NewRequestContext(nil, "")
	require.Error(t, err)
}

func TestLoadVariables(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "vars.json", `{"id": 42, "name": "x"}`)

	vars, err := LoadVariables(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": float64(42), "name": "x"}, vars)

	bad := writeFile(t, dir, "bad.json", `[1, 2]`)
	_, err = LoadVariables(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing variables file")
}
