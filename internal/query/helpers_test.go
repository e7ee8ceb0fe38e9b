package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldir/internal/metadata"
	"github.com/roach88/fieldir/internal/normalized"
	"github.com/roach88/fieldir/internal/schema"
	"github.com/roach88/fieldir/internal/selection"
	"github.com/roach88/fieldir/internal/session"
	"github.com/roach88/fieldir/internal/testutil"
)

// normalize builds the schema of md and normalizes query for role.
func normalize(t *testing.T, md *metadata.Metadata, role metadata.Role, query string) *normalized.Operation {
	t.Helper()
	s, err := schema.Build(md)
	require.NoError(t, err)
	n, err := normalized.NewNormalizer(s, role)
	require.NoError(t, err)
	op, err := n.Normalize(normalized.Request{Query: query})
	require.NoError(t, err)
	return op
}

// rootField normalizes a single-field query against the fixture metadata.
func rootField(t *testing.T, role metadata.Role, query string) *normalized.Field {
	t.Helper()
	op := normalize(t, testutil.Metadata(), role, query)
	require.Len(t, op.RootFields, 1)
	return op.RootFields[0]
}

func fieldCompiler(md *metadata.Metadata) *FieldCompiler {
	return NewFieldCompiler(md, selection.NewResolver(md))
}

func userSession() *session.Session {
	return session.New(testutil.RoleUser, map[string]string{
		"x-hasura-tenant-id": "acme",
		"x-hasura-region":    "eu",
	})
}
