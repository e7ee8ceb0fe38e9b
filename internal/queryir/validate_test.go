package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldir/internal/ir"
)

func TestValidate_PortableSelection(t *testing.T) {
	sel := ModelSelection{
		Target: ModelTarget{
			Model: "Users",
			Filter: Comparison{
				Operand:  FieldOperand{FieldName: "id"},
				Operator: OperatorEquals,
				Argument: ir.Int(5),
			},
		},
		Selection: []ObjectSubSelection{
			FieldSelection{Alias: "id", FieldName: "id"},
			TypenameSelection{Alias: "__typename", TypeName: "User"},
		},
	}

	result := Validate(sel)

	assert.True(t, result.IsPortable)
	assert.Empty(t, result.Warnings)
}

func TestValidate_NilFilter(t *testing.T) {
	result := Validate(ModelSelection{Target: ModelTarget{Model: "Users"}})

	assert.True(t, result.IsPortable, "nil filter means no restriction")
}

func TestValidate_NullComparison(t *testing.T) {
	sel := ModelSelection{
		Target: ModelTarget{
			Model: "Users",
			Filter: Comparison{
				Operand:  FieldOperand{FieldName: "email"},
				Operator: OperatorEquals,
				Argument: ir.Null{},
			},
		},
	}

	result := Validate(sel)

	assert.False(t, result.IsPortable)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], `"email"`)
	assert.Contains(t, result.Warnings[0], "is_null")
}

func TestValidate_NestedWarnings(t *testing.T) {
	sel := ModelSelection{
		Target: ModelTarget{
			Model: "Users",
			Filter: And{Expressions: []BooleanExpression{
				Or{},
				Not{Expression: IsNull{}},
				RelationshipPredicate{Relationship: "posts", Predicate: Comparison{
					Operand:  FieldOperand{FieldName: ""},
					Operator: OperatorEquals,
					Argument: ir.String("x"),
				}},
			}},
		},
	}

	result := Validate(sel)

	assert.False(t, result.IsPortable)
	assert.Equal(t, []string{
		"empty or never matches",
		"is_null has an empty field name",
		"comparison has an empty field name",
	}, result.Warnings)
}

func TestValidate_DuplicateAlias(t *testing.T) {
	sel := ModelSelection{
		Target: ModelTarget{Model: "Users"},
		Selection: []ObjectSubSelection{
			FieldSelection{Alias: "a", FieldName: "id"},
			RelationshipSelection{Alias: "a", Relationship: "posts", Target: "Posts", Selection: []ObjectSubSelection{
				FieldSelection{Alias: "t", FieldName: "title"},
				FieldSelection{Alias: "t", FieldName: "body"},
			}},
		},
	}

	result := Validate(sel)

	assert.Equal(t, []string{
		`duplicate output alias "t"`,
		`duplicate output alias "a"`,
	}, result.Warnings)
}

func TestValidate_MissingModel(t *testing.T) {
	result := Validate(ModelSelection{})

	assert.False(t, result.IsPortable)
	assert.Equal(t, []string{"model selection has no target model"}, result.Warnings)
}
