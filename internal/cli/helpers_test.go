package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var projectDir = filepath.Join("..", "..", "testdata", "project")

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeFile writes content to name under dir and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// minimalProject is one model with one select-one root field.
const minimalProject = `
package test

types: Item: fields: {
	id:    "Int!"
	label: "String"
}

models: Items: {
	data_type: "Item"
	source: {
		data_connector: "db"
		collection:     "items"
		type_mappings: Item: {
			id:    {column: "item_id", equal_operator: "="}
			label: "label"
		}
	}
	graphql: select_uniques: [{query_root_field: "ItemByID", unique_identifier: ["id"]}]
	permissions: admin: {}
}
`
