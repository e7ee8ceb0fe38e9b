// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"github.com/roach88/fieldir/internal/ir"
	"github.com/roach88/fieldir/internal/metadata"
)

// Roles used by the fixture.
const (
	RoleAdmin metadata.Role = "admin"
	RoleUser  metadata.Role = "user"
)

// Metadata returns a small project: Users and Posts wired to connector "db"
// with a relationship each way, and Comments, which has no connector source.
//
// Role "user" sees only its tenant's users and published posts, has the
// tenant_id argument of Users preset to "acme" and the region argument of
// Posts preset from session variable x-hasura-region. Role "admin" is
// unrestricted. The author_filter argument of Posts takes a User_bool_exp.
func Metadata() *metadata.Metadata {
	userType := &metadata.ObjectType{
		Name:            "User",
		GraphQLTypeName: "User",
		Fields: []metadata.ObjectField{
			{Name: "id", Type: metadata.NonNullNamed("Int")},
			{Name: "name", Type: metadata.NonNullNamed("String")},
			{Name: "email", Type: metadata.Named("String")},
			{Name: "tenant_id", Type: metadata.NonNullNamed("String")},
		},
		Relationships: map[string]*metadata.Relationship{
			"posts": {
				Name:    "posts",
				Target:  "Posts",
				Type:    metadata.RelationshipArray,
				Mapping: []metadata.RelationshipMapping{{SourceField: "id", TargetField: "author_id"}},
			},
		},
	}
	postType := &metadata.ObjectType{
		Name:            "Post",
		GraphQLTypeName: "Post",
		Fields: []metadata.ObjectField{
			{Name: "id", Type: metadata.NonNullNamed("Int")},
			{Name: "title", Type: metadata.NonNullNamed("String")},
			{Name: "author_id", Type: metadata.NonNullNamed("Int")},
			{Name: "published", Type: metadata.NonNullNamed("Boolean")},
		},
		Relationships: map[string]*metadata.Relationship{
			"author": {
				Name:    "author",
				Target:  "Users",
				Type:    metadata.RelationshipObject,
				Mapping: []metadata.RelationshipMapping{{SourceField: "author_id", TargetField: "id"}},
			},
		},
	}
	commentType := &metadata.ObjectType{
		Name:            "Comment",
		GraphQLTypeName: "Comment",
		Fields: []metadata.ObjectField{
			{Name: "id", Type: metadata.NonNullNamed("Int")},
			{Name: "body", Type: metadata.Named("String")},
		},
	}

	users := &metadata.Model{
		Name:     "Users",
		DataType: "User",
		Arguments: []metadata.Argument{
			{Name: "tenant_id", Type: metadata.Named("String")},
		},
		Source: &metadata.ModelSource{
			DataConnector: "db",
			Collection:    "users",
			TypeMappings: map[metadata.TypeName]*metadata.TypeMapping{
				"User": {Fields: map[string]*metadata.FieldMapping{
					"id":        {Column: "user_id", EqualOperator: "="},
					"name":      {Column: "name", EqualOperator: "="},
					"email":     {Column: "email", EqualOperator: "="},
					"tenant_id": {Column: "tenant", EqualOperator: "="},
				}},
			},
		},
		GraphQL: metadata.ModelGraphQL{
			SelectUniques: []metadata.SelectUnique{
				{QueryRootField: "UserByID", UniqueIdentifier: []string{"id"}},
			},
			SelectMany:         &metadata.SelectMany{QueryRootField: "Users"},
			ArgumentsInputType: "Users_args",
			FilterExpression: &metadata.FilterExpression{
				TypeName:  "User_bool_exp",
				FieldName: "where",
				Fields: []metadata.ComparableField{
					{Field: "id", Operators: map[string]string{"_gt": ">", "_lt": "<"}},
					{Field: "name", Operators: map[string]string{"_like": "LIKE"}},
					{Field: "email"},
				},
				Relationships: []string{"posts"},
			},
			OrderByExpression: &metadata.OrderByExpression{
				TypeName:  "User_order_by",
				FieldName: "order_by",
				Fields:    []string{"id", "name"},
			},
			LimitField:  "limit",
			OffsetField: "offset",
		},
		Permissions: map[metadata.Role]*metadata.SelectPermission{
			RoleAdmin: {},
			RoleUser: {
				Filter: &metadata.Predicate{
					Field:    "tenant_id",
					Operator: "_eq",
					Value:    &metadata.ValueExpression{SessionVariable: "x-hasura-tenant-id"},
				},
				ArgumentPresets: []metadata.ArgumentPreset{
					{Argument: "tenant_id", Value: metadata.ValueExpression{Literal: ir.String("acme")}},
				},
			},
		},
	}

	posts := &metadata.Model{
		Name:     "Posts",
		DataType: "Post",
		Arguments: []metadata.Argument{
			{Name: "region", Type: metadata.NonNullNamed("String")},
			{Name: "include_drafts", Type: metadata.Named("Boolean")},
			{Name: "author_filter", Type: metadata.Named("User_bool_exp")},
		},
		Source: &metadata.ModelSource{
			DataConnector: "db",
			Collection:    "posts",
			TypeMappings: map[metadata.TypeName]*metadata.TypeMapping{
				"Post": {Fields: map[string]*metadata.FieldMapping{
					"id":        {Column: "post_id", EqualOperator: "="},
					"title":     {Column: "title", EqualOperator: "="},
					"author_id": {Column: "author_id", EqualOperator: "="},
					"published": {Column: "is_published", EqualOperator: "="},
				}},
			},
			ArgumentMappings: map[string]string{"region": "region_code"},
			LinkArgumentPresets: []metadata.LinkArgumentPreset{
				{Argument: "headers", ForwardHeaders: []string{"x-request-id"}},
			},
		},
		GraphQL: metadata.ModelGraphQL{
			SelectUniques: []metadata.SelectUnique{
				{QueryRootField: "PostByID", UniqueIdentifier: []string{"id"}},
			},
			SelectMany:         &metadata.SelectMany{QueryRootField: "Posts"},
			ArgumentsInputType: "Posts_args",
			FilterExpression: &metadata.FilterExpression{
				TypeName:  "Post_bool_exp",
				FieldName: "where",
				Fields: []metadata.ComparableField{
					{Field: "id"},
					{Field: "title", Operators: map[string]string{"_like": "LIKE"}},
					{Field: "published"},
				},
				Relationships: []string{"author"},
			},
			LimitField:  "limit",
			OffsetField: "offset",
		},
		Permissions: map[metadata.Role]*metadata.SelectPermission{
			RoleAdmin: {},
			RoleUser: {
				Filter: &metadata.Predicate{
					Field:    "published",
					Operator: "_eq",
					Value:    &metadata.ValueExpression{Literal: ir.Bool(true)},
				},
				ArgumentPresets: []metadata.ArgumentPreset{
					{Argument: "region", Value: metadata.ValueExpression{SessionVariable: "x-hasura-region"}},
				},
			},
		},
	}

	comments := &metadata.Model{
		Name:     "Comments",
		DataType: "Comment",
		GraphQL: metadata.ModelGraphQL{
			SelectUniques: []metadata.SelectUnique{
				{QueryRootField: "CommentByID", UniqueIdentifier: []string{"id"}},
			},
		},
		Permissions: map[metadata.Role]*metadata.SelectPermission{
			RoleAdmin: {},
		},
	}

	return &metadata.Metadata{
		ObjectTypes: map[metadata.TypeName]*metadata.ObjectType{
			"User":    userType,
			"Post":    postType,
			"Comment": commentType,
		},
		Models: map[metadata.ModelName]*metadata.Model{
			"Users":    users,
			"Posts":    posts,
			"Comments": comments,
		},
		ModelOrder: []metadata.ModelName{"Users", "Posts", "Comments"},
	}
}
