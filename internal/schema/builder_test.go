package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldir/internal/diag"
	"github.com/roach88/fieldir/internal/metadata"
	"github.com/roach88/fieldir/internal/testutil"
)

func TestBuild_RootFields(t *testing.T) {
	s, err := Build(testutil.Metadata())
	require.NoError(t, err)

	var names []string
	for _, f := range s.Query.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"UserByID", "Users", "PostByID", "Posts", "CommentByID"}, names)
}

func TestSelectManyField_ArgumentOrder(t *testing.T) {
	md := testutil.Metadata()
	users, _ := md.Model("Users")

	f, err := NewBuilder(md).SelectManyField(users)
	require.NoError(t, err)

	assert.Equal(t, []string{"limit", "offset", "order_by", "where", "args"}, f.Arguments.Names())
	assert.Equal(t, "[User!]", f.Type.String())

	ann, ok := f.Annotation.(RootFieldAnnotation)
	require.True(t, ok)
	assert.Equal(t, SelectMany, ann.Kind)
	assert.Equal(t, metadata.ModelName("Users"), ann.Model)

	args, ok := f.Arguments.Get("args")
	require.True(t, ok)
	assert.Equal(t, ArgumentsInputAnnotation{}, args.Annotation)
	assert.Equal(t, "Users_args", args.Type.String(), "no required arguments, so nullable")

	orderBy, _ := f.Arguments.Get("order_by")
	assert.Equal(t, "[User_order_by!]", orderBy.Type.String())
}

func TestSelectManyField_NoModelArguments(t *testing.T) {
	md := testutil.Metadata()
	users, _ := md.Model("Users")
	users.Arguments = nil

	f, err := NewBuilder(md).SelectManyField(users)
	require.NoError(t, err)

	assert.Equal(t, []string{"limit", "offset", "order_by", "where"}, f.Arguments.Names())
}

func TestSelectManyField_RequiredArgumentsMakeArgsNonNull(t *testing.T) {
	md := testutil.Metadata()
	posts, _ := md.Model("Posts")

	f, err := NewBuilder(md).SelectManyField(posts)
	require.NoError(t, err)

	args, ok := f.Arguments.Get("args")
	require.True(t, ok)
	assert.Equal(t, "Posts_args!", args.Type.String())
}

func TestSelectManyField_ArgsGatedByModelPermission(t *testing.T) {
	md := testutil.Metadata()
	posts, _ := md.Model("Posts")

	f, err := NewBuilder(md).SelectManyField(posts)
	require.NoError(t, err)

	args, ok := f.Arguments.Get("args")
	require.True(t, ok)
	assert.True(t, args.Namespace.IsRestricted())
	assert.Equal(t, []metadata.Role{"admin", "user"}, args.Namespace.Roles())
	assert.False(t, args.Namespace.Visible("anonymous"))

	ann, ok := args.Namespace.Annotation(testutil.RoleUser)
	require.True(t, ok)
	require.Len(t, ann.ArgumentPresets, 1)
	assert.Equal(t, "region", ann.ArgumentPresets[0].Argument)
}

func TestSelectManyField_ArgsCollision(t *testing.T) {
	md := testutil.Metadata()
	users, _ := md.Model("Users")
	users.GraphQL.FilterExpression.FieldName = "args"

	_, err := NewBuilder(md).SelectManyField(users)
	require.Error(t, err)

	assert.True(t, diag.IsKind(err, diag.KindArgumentConflict))
	var de *diag.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "args", de.Argument)
	assert.Equal(t, "Users", de.Field)
	assert.Equal(t, "Query", de.TypeName)
}

func TestSelectManyField_PaginationCollision(t *testing.T) {
	md := testutil.Metadata()
	users, _ := md.Model("Users")
	users.GraphQL.OffsetField = "limit"

	_, err := NewBuilder(md).SelectManyField(users)

	assert.True(t, diag.IsKind(err, diag.KindArgumentConflict))
}

func TestSelectOneField_Arguments(t *testing.T) {
	md := testutil.Metadata()
	users, _ := md.Model("Users")

	f, err := NewBuilder(md).SelectOneField(users, users.GraphQL.SelectUniques[0])
	require.NoError(t, err)

	assert.Equal(t, "User", f.Type.String(), "select-one output is nullable")
	assert.Equal(t, []string{"id", "tenant_id"}, f.Arguments.Names())

	id, _ := f.Arguments.Get("id")
	assert.Equal(t, "Int!", id.Type.String())
	assert.Equal(t, UniqueIdentifierAnnotation{
		Field:  "id",
		Type:   metadata.NonNullNamed("Int"),
		Column: &metadata.UniqueColumn{Column: "user_id", EqualOperator: "="},
	}, id.Annotation)

	tenant, _ := f.Arguments.Get("tenant_id")
	assert.Equal(t, ModelArgumentAnnotation{Argument: "tenant_id", Type: metadata.Named("String")}, tenant.Annotation)
}

func TestSelectOneField_UnmappedModelHasNoColumn(t *testing.T) {
	md := testutil.Metadata()
	comments, _ := md.Model("Comments")

	f, err := NewBuilder(md).SelectOneField(comments, comments.GraphQL.SelectUniques[0])
	require.NoError(t, err)

	id, _ := f.Arguments.Get("id")
	ann := id.Annotation.(UniqueIdentifierAnnotation)
	assert.Nil(t, ann.Column)
}

func TestSelectOneField_ArgumentCollidesWithIdentifier(t *testing.T) {
	md := testutil.Metadata()
	users, _ := md.Model("Users")
	users.Arguments = append(users.Arguments, metadata.Argument{Name: "id", Type: metadata.Named("Int")})

	_, err := NewBuilder(md).SelectOneField(users, users.GraphQL.SelectUniques[0])

	require.Error(t, err)
	var de *diag.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, diag.KindArgumentConflict, de.Kind)
	assert.Equal(t, "id", de.Argument)
	assert.Equal(t, "UserByID", de.Field)
}

func TestBuild_DuplicateRootField(t *testing.T) {
	md := testutil.Metadata()
	posts, _ := md.Model("Posts")
	posts.GraphQL.SelectMany.QueryRootField = "Users"

	_, err := Build(md)

	assert.True(t, diag.IsKind(err, diag.KindInternal))
}

func TestNamespace_Visibility(t *testing.T) {
	md := testutil.Metadata()
	s, err := Build(md)
	require.NoError(t, err)

	users, ok := s.RootField("Users")
	require.True(t, ok)
	assert.True(t, users.Namespace.Visible(testutil.RoleAdmin))
	assert.True(t, users.Namespace.Visible(testutil.RoleUser))
	assert.False(t, users.Namespace.Visible("anonymous"))
	assert.Equal(t, []metadata.Role{"admin", "user"}, users.Namespace.Roles())

	comments, _ := s.RootField("CommentByID")
	assert.False(t, comments.Namespace.Visible(testutil.RoleUser))

	ann, ok := users.Namespace.Annotation(testutil.RoleUser)
	require.True(t, ok)
	require.Len(t, ann.ArgumentPresets, 1)
	assert.Equal(t, "tenant_id", ann.ArgumentPresets[0].Argument)

	// Preset arguments are hidden from the presetting role.
	argsType, ok := s.InputObject("Users_args")
	require.True(t, ok)
	tenant, _ := argsType.Fields.Get("tenant_id")
	assert.True(t, tenant.Namespace.Visible(testutil.RoleAdmin))
	assert.False(t, tenant.Namespace.Visible(testutil.RoleUser))
}

func TestNamespace_ZeroValueIsPublic(t *testing.T) {
	var n Namespace

	assert.True(t, n.Visible("anyone"))
	assert.False(t, n.IsRestricted())
	a, ok := n.Annotation("anyone")
	assert.True(t, ok)
	assert.Nil(t, a)
}

func TestModelOutputType_Fields(t *testing.T) {
	md := testutil.Metadata()
	users, _ := md.Model("Users")
	b := NewBuilder(md)

	name, err := b.ModelOutputType(users)
	require.NoError(t, err)
	assert.Equal(t, "User", name)

	obj, ok := b.Schema().Object("User")
	require.True(t, ok)
	var fields []string
	for _, f := range obj.Fields {
		fields = append(fields, f.Name)
	}
	assert.Equal(t, []string{"id", "name", "email", "tenant_id", "posts"}, fields)

	posts, _ := obj.Field("posts")
	assert.Equal(t, "[Post!]!", posts.Type.String())
	rel := posts.Annotation.(RelationshipFieldAnnotation)
	assert.Equal(t, metadata.ModelName("Posts"), rel.Relationship.Target)

	// The reverse relationship was built through memoization, not recursion.
	post, ok := b.Schema().Object("Post")
	require.True(t, ok)
	author, _ := post.Field("author")
	assert.Equal(t, "User", author.Type.String())
}

func TestWhereType_Fields(t *testing.T) {
	md := testutil.Metadata()
	users, _ := md.Model("Users")
	b := NewBuilder(md)

	name, err := b.WhereType(users)
	require.NoError(t, err)
	assert.Equal(t, "User_bool_exp", name)

	where, _ := b.Schema().InputObject("User_bool_exp")
	assert.Equal(t, []string{"_and", "_or", "_not", "id", "name", "email", "posts"}, where.Fields.Names())

	comparison, ok := b.Schema().InputObject("User_bool_exp_id")
	require.True(t, ok)
	assert.Equal(t, []string{"_is_null", "_eq", "_gt", "_lt"}, comparison.Fields.Names())

	eq, _ := comparison.Fields.Get("_eq")
	assert.Equal(t, ComparisonOperatorAnnotation{Operator: "_eq", ConnectorOperator: "=", IsEquality: true}, eq.Annotation)
	gt, _ := comparison.Fields.Get("_gt")
	assert.Equal(t, ComparisonOperatorAnnotation{Operator: "_gt", ConnectorOperator: ">"}, gt.Annotation)
	assert.Equal(t, "Int", gt.Type.String())

	_, ok = b.Schema().InputObject("Post_bool_exp")
	assert.True(t, ok, "relationship target where type is built")
}

func TestOrderByType_UsesEnum(t *testing.T) {
	md := testutil.Metadata()
	users, _ := md.Model("Users")
	b := NewBuilder(md)

	name, err := b.OrderByType(users)
	require.NoError(t, err)

	ob, _ := b.Schema().InputObject(name)
	assert.Equal(t, []string{"id", "name"}, ob.Fields.Names())

	e, ok := b.Schema().Enum(OrderByEnumName)
	require.True(t, ok)
	require.Len(t, e.Values, 2)
	assert.Equal(t, OrderAsc, e.Values[0].Name)
	assert.Equal(t, OrderDesc, e.Values[1].Name)
}

func TestArgumentSet_InsertRefusesOverwrite(t *testing.T) {
	var s ArgumentSet

	assert.True(t, s.Insert(&InputField{Name: "a", Type: metadata.Named("Int")}))
	assert.False(t, s.Insert(&InputField{Name: "a", Type: metadata.Named("String")}))

	f, _ := s.Get("a")
	assert.Equal(t, "Int", f.Type.String())
	assert.Equal(t, 1, s.Len())
}
