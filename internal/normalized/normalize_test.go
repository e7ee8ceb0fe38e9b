package normalized

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldir/internal/ir"
	"github.com/roach88/fieldir/internal/metadata"
	"github.com/roach88/fieldir/internal/schema"
	"github.com/roach88/fieldir/internal/testutil"
)

func newNormalizer(t *testing.T, role metadata.Role) *Normalizer {
	t.Helper()
	s, err := schema.Build(testutil.Metadata())
	require.NoError(t, err)
	n, err := NewNormalizer(s, role)
	require.NoError(t, err)
	return n
}

func TestNormalize_SelectOne(t *testing.T) {
	n := newNormalizer(t, testutil.RoleAdmin)

	op, err := n.Normalize(Request{Query: `{ UserByID(id: 42) { id name __typename } }`})
	require.NoError(t, err)
	require.Len(t, op.RootFields, 1)

	f := op.RootFields[0]
	assert.Equal(t, "UserByID", f.Alias)
	assert.Equal(t, schema.QueryTypeName, f.ParentType)
	ann, ok := f.Annotation.(schema.RootFieldAnnotation)
	require.True(t, ok)
	assert.Equal(t, schema.SelectOne, ann.Kind)
	assert.NotNil(t, f.Namespace, "admin has a namespace annotation on Users")

	require.Len(t, f.Arguments, 1)
	id := f.Arguments[0]
	assert.Equal(t, "id", id.Name)
	assert.Equal(t, ir.Int(42), id.Value.Value)
	_, ok = id.Annotation.(schema.UniqueIdentifierAnnotation)
	assert.True(t, ok)

	require.Len(t, f.SelectionSet, 3)
	assert.Equal(t, schema.ColumnFieldAnnotation{Field: "id", Type: metadata.NonNullNamed("Int")}, f.SelectionSet[0].Annotation)
	assert.Equal(t, "User", f.SelectionSet[1].ParentType)
	assert.Equal(t, TypenameField, f.SelectionSet[2].Name)
	assert.Nil(t, f.SelectionSet[2].Annotation)
}

func TestNormalize_VariablesAndAlias(t *testing.T) {
	n := newNormalizer(t, testutil.RoleAdmin)

	op, err := n.Normalize(Request{
		Query:     `query Q($id: Int!) { u: UserByID(id: $id) { id } }`,
		Variables: map[string]any{"id": int64(7)},
	})
	require.NoError(t, err)

	assert.Equal(t, "Q", op.Name)
	f := op.RootFields[0]
	assert.Equal(t, "u", f.Alias)
	assert.Equal(t, "UserByID", f.Name)
	assert.Equal(t, ir.Int(7), f.Arguments[0].Value.Value)
}

func TestNormalize_ArgumentsInSchemaOrder(t *testing.T) {
	n := newNormalizer(t, testutil.RoleAdmin)

	op, err := n.Normalize(Request{Query: `{ Users(where: {id: {_eq: 1}}, limit: 5) { id } }`})
	require.NoError(t, err)

	f := op.RootFields[0]
	require.Len(t, f.Arguments, 2)
	assert.Equal(t, "limit", f.Arguments[0].Name)
	assert.Equal(t, "where", f.Arguments[1].Name)
}

func TestNormalize_NestedInputAnnotations(t *testing.T) {
	n := newNormalizer(t, testutil.RoleAdmin)

	op, err := n.Normalize(Request{Query: `{
		Users(where: {_and: [{id: {_gt: 1}}, {name: {_like: "A%"}}]}) { id }
	}`})
	require.NoError(t, err)

	where, ok := op.RootFields[0].Argument("where")
	require.True(t, ok)
	assert.Equal(t, schema.WhereAnnotation{}, where.Annotation)

	and, ok := where.Value.Field("_and")
	require.True(t, ok)
	assert.Equal(t, schema.LogicalOperatorAnnotation{Operator: schema.LogicalAnd}, and.Annotation)
	require.Len(t, and.Value.List, 2)

	idCmp, ok := and.Value.List[0].Field("id")
	require.True(t, ok)
	gt, ok := idCmp.Value.Field("_gt")
	require.True(t, ok)
	assert.Equal(t, schema.ComparisonOperatorAnnotation{Operator: "_gt", ConnectorOperator: ">"}, gt.Annotation)
	assert.Equal(t, ir.Int(1), gt.Value.Value)
}

func TestNormalize_FragmentsAndDirectives(t *testing.T) {
	n := newNormalizer(t, testutil.RoleAdmin)

	op, err := n.Normalize(Request{
		Query: `query Q($skipName: Boolean!) {
			UserByID(id: 1) {
				...userFields
				... on User { email }
				name @skip(if: $skipName)
				tenant_id @include(if: false)
			}
		}
		fragment userFields on User { id }`,
		Variables: map[string]any{"skipName": true},
	})
	require.NoError(t, err)

	var names []string
	for _, f := range op.RootFields[0].SelectionSet {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"id", "email"}, names)
}

func TestNormalize_RelationshipSelection(t *testing.T) {
	n := newNormalizer(t, testutil.RoleUser)

	op, err := n.Normalize(Request{Query: `{ Users { posts { title author { name } } } }`})
	require.NoError(t, err)

	posts := op.RootFields[0].SelectionSet[0]
	rel, ok := posts.Annotation.(schema.RelationshipFieldAnnotation)
	require.True(t, ok)
	assert.Equal(t, metadata.ModelName("Posts"), rel.Relationship.Target)
	require.NotNil(t, posts.Namespace)
	assert.Len(t, posts.Namespace.ArgumentPresets, 1)

	author := posts.SelectionSet[1]
	assert.Equal(t, "Post", author.ParentType)
	assert.Equal(t, "name", author.SelectionSet[0].Name)
}

func TestNormalize_PresetArgumentRejected(t *testing.T) {
	n := newNormalizer(t, testutil.RoleUser)

	_, err := n.Normalize(Request{Query: `{ UserByID(id: 1, tenant_id: "evil") { id } }`})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "tenant_id")
}

func TestNormalize_PresetRequiredArgumentMayBeOmitted(t *testing.T) {
	op, err := newNormalizer(t, testutil.RoleUser).Normalize(Request{Query: `{ Posts { id } }`})
	require.NoError(t, err)
	require.Len(t, op.RootFields, 1)
	assert.Empty(t, op.RootFields[0].Arguments)

	_, err = newNormalizer(t, testutil.RoleAdmin).Normalize(Request{Query: `{ Posts { id } }`})
	assert.Error(t, err, "admin must supply region")
}

func TestNormalize_HiddenRootField(t *testing.T) {
	n := newNormalizer(t, testutil.RoleUser)

	_, err := n.Normalize(Request{Query: `{ CommentByID(id: 1) { id } }`})

	assert.Error(t, err)
}

func TestNormalize_UnknownOperation(t *testing.T) {
	n := newNormalizer(t, testutil.RoleAdmin)

	_, err := n.Normalize(Request{
		Query:         `query A { Users { id } } query B { Posts(args: {region: "eu"}) { id } }`,
		OperationName: "C",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), `"C"`)
}

func TestNormalize_SingleValueCoercedToList(t *testing.T) {
	n := newNormalizer(t, testutil.RoleAdmin)

	op, err := n.Normalize(Request{Query: `{ Users(order_by: {id: Desc}) { id } }`})
	require.NoError(t, err)

	orderBy, ok := op.RootFields[0].Argument("order_by")
	require.True(t, ok)
	require.Len(t, orderBy.Value.List, 1)
	dir, ok := orderBy.Value.List[0].Field("id")
	require.True(t, ok)
	assert.Equal(t, ir.String("Desc"), dir.Value.Value)
}
