package permissions

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldir/internal/diag"
	"github.com/roach88/fieldir/internal/ir"
	"github.com/roach88/fieldir/internal/metadata"
	"github.com/roach88/fieldir/internal/plan"
	"github.com/roach88/fieldir/internal/queryir"
	"github.com/roach88/fieldir/internal/schema"
	"github.com/roach88/fieldir/internal/session"
	"github.com/roach88/fieldir/internal/testutil"
)

func TestResolveValueExpression(t *testing.T) {
	sess := session.New("user", map[string]string{
		"X-Hasura-User-Id": "42",
		"x-hasura-active":  "true",
		"x-hasura-tags":    `["a","b"]`,
		"x-hasura-name":    "ada",
	})

	tests := []struct {
		name string
		ve   metadata.ValueExpression
		t    metadata.TypeRef
		want ir.Value
	}{
		{"literal", metadata.ValueExpression{Literal: ir.Int(1)}, metadata.Named("Int"), ir.Int(1)},
		{"empty literal is null", metadata.ValueExpression{}, metadata.Named("Int"), ir.Null{}},
		{"int", metadata.ValueExpression{SessionVariable: "x-hasura-user-id"}, metadata.NonNullNamed("Int"), ir.Int(42)},
		{"bool", metadata.ValueExpression{SessionVariable: "x-hasura-active"}, metadata.Named("Boolean"), ir.Bool(true)},
		{"list", metadata.ValueExpression{SessionVariable: "x-hasura-tags"}, metadata.ListOf(metadata.Named("String")), ir.Array{ir.String("a"), ir.String("b")}},
		{"string", metadata.ValueExpression{SessionVariable: "X-HASURA-NAME"}, metadata.Named("String"), ir.String("ada")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveValueExpression(tt.ve, tt.t, sess)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveValueExpression_Errors(t *testing.T) {
	sess := session.New("user", map[string]string{"x-hasura-user-id": "abc"})

	_, err := ResolveValueExpression(metadata.ValueExpression{SessionVariable: "x-hasura-missing"}, metadata.Named("String"), sess)
	assert.True(t, diag.IsKind(err, diag.KindMissingSessionVariable))

	_, err = ResolveValueExpression(metadata.ValueExpression{SessionVariable: "x-hasura-user-id"}, metadata.Named("Int"), sess)
	assert.True(t, diag.IsKind(err, diag.KindInvalidArgument))
}

func TestResolveArgumentPresets_OverridesClientValue(t *testing.T) {
	md := testutil.Metadata()
	users, _ := md.Model("Users")
	ns := &schema.NamespaceAnnotation{ArgumentPresets: users.Permissions[testutil.RoleUser].ArgumentPresets}

	presets, err := ResolveArgumentPresets(users, ArgumentPresets(ns), session.New(testutil.RoleUser, nil), nil, "Users", schema.QueryTypeName)
	require.NoError(t, err)

	t.Run("legacy", func(t *testing.T) {
		var args plan.Arguments
		require.True(t, args.Insert("tenant_id", plan.Literal{Value: ir.String("evil")}))
		presets.ApplyLegacy(&args)

		v, ok := args.Get("tenant_id")
		require.True(t, ok)
		assert.Equal(t, plan.Literal{Value: ir.String("acme")}, v)
		assert.Equal(t, 1, args.Len())
	})

	t.Run("structured", func(t *testing.T) {
		args := map[string]queryir.ArgumentValue{"tenant_id": queryir.Literal{Value: ir.String("evil")}}
		presets.ApplyStructured(args)

		assert.Equal(t, map[string]queryir.ArgumentValue{
			"tenant_id": queryir.Literal{Value: ir.String("acme")},
		}, args)
	})
}

func TestResolveArgumentPresets_MappedNameAndLinkHeaders(t *testing.T) {
	md := testutil.Metadata()
	posts, _ := md.Model("Posts")
	sess := session.New(testutil.RoleUser, map[string]string{"x-hasura-region": "eu"})
	headers := http.Header{}
	headers.Set("X-Request-Id", "req-1")
	headers.Set("Authorization", "secret")

	presets, err := ResolveArgumentPresets(posts, posts.Permissions[testutil.RoleUser].ArgumentPresets, sess, headers, "Posts", schema.QueryTypeName)
	require.NoError(t, err)

	var args plan.Arguments
	presets.ApplyLegacy(&args)
	assert.Equal(t, []string{"region_code", "headers"}, args.Names())
	region, _ := args.Get("region_code")
	assert.Equal(t, plan.Literal{Value: ir.String("eu")}, region)
	link, _ := args.Get("headers")
	assert.Equal(t, plan.Literal{Value: ir.Object{"headers": ir.Object{"x-request-id": ir.String("req-1")}}}, link)

	// structured arguments use model argument names and carry no link presets
	structured := map[string]queryir.ArgumentValue{}
	presets.ApplyStructured(structured)
	assert.Equal(t, map[string]queryir.ArgumentValue{
		"region": queryir.Literal{Value: ir.String("eu")},
	}, structured)
}

func TestResolveArgumentPresets_MissingSessionVariable(t *testing.T) {
	md := testutil.Metadata()
	posts, _ := md.Model("Posts")

	_, err := ResolveArgumentPresets(posts, posts.Permissions[testutil.RoleUser].ArgumentPresets, session.New(testutil.RoleUser, nil), nil, "Posts", schema.QueryTypeName)

	assert.True(t, diag.IsKind(err, diag.KindMissingSessionVariable))
}

func TestResolveArgumentPresets_ConflictNamesTheField(t *testing.T) {
	md := testutil.Metadata()
	posts, _ := md.Model("Posts")
	presets := []metadata.ArgumentPreset{
		{Argument: "region", Value: metadata.ValueExpression{Literal: ir.String("eu")}},
		{Argument: "region_code", Value: metadata.ValueExpression{Literal: ir.String("us")}},
	}

	_, err := ResolveArgumentPresets(posts, presets, nil, nil, "recentPosts", "User")

	var de *diag.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, diag.KindArgumentConflict, de.Kind)
	assert.Equal(t, "region_code", de.Argument)
	assert.Equal(t, "recentPosts", de.Field)
	assert.Equal(t, "User", de.TypeName)
}

func TestResolveArgumentPresets_ModelWithoutSource(t *testing.T) {
	md := testutil.Metadata()
	comments, _ := md.Model("Comments")
	presets := []metadata.ArgumentPreset{{Argument: "limit_to", Value: metadata.ValueExpression{Literal: ir.Int(5)}}}

	got, err := ResolveArgumentPresets(comments, presets, nil, nil, "Comments", schema.QueryTypeName)
	require.NoError(t, err)
	assert.Empty(t, got.Links)
	require.Len(t, got.Arguments, 1)
	assert.Equal(t, "limit_to", got.Arguments[0].Connector)
}

func TestNamespaceAccessors_NilSafe(t *testing.T) {
	assert.Nil(t, ArgumentPresets(nil))
	assert.Nil(t, SelectFilterPredicate(nil))
}
