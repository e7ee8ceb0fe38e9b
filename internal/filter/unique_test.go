package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/fieldir/internal/ir"
	"github.com/roach88/fieldir/internal/metadata"
	"github.com/roach88/fieldir/internal/plan"
	"github.com/roach88/fieldir/internal/queryir"
)

func userID(v int64) UniqueIdentifier {
	return UniqueIdentifier{
		Field:  "id",
		Column: metadata.UniqueColumn{Column: "user_id", EqualOperator: "="},
		Value:  ir.Int(v),
	}
}

func TestUniqueFilter_Single(t *testing.T) {
	ids := []UniqueIdentifier{userID(42)}

	assert.Equal(t, queryir.Comparison{
		Operand:  queryir.FieldOperand{FieldName: "id"},
		Operator: queryir.OperatorEquals,
		Argument: ir.Int(42),
	}, StructuredUniqueFilter(ids))

	assert.Equal(t, plan.BinaryComparison{
		Column:   plan.ComparisonTarget{Name: "user_id"},
		Operator: "=",
		Value:    ir.Int(42),
	}, ColumnUniqueFilter(ids))
}

func TestUniqueFilter_None(t *testing.T) {
	assert.Nil(t, StructuredUniqueFilter(nil))
	assert.Nil(t, ColumnUniqueFilter(nil))
}

func TestUniqueFilter_CompositeUsesPerColumnOperator(t *testing.T) {
	ids := []UniqueIdentifier{
		{Field: "tenant", Column: metadata.UniqueColumn{Column: "tenant_id", EqualOperator: "_eq"}, Value: ir.String("acme")},
		{Field: "slug", Column: metadata.UniqueColumn{Column: "slug", EqualOperator: "_ieq"}, Value: ir.String("home")},
	}

	got := ColumnUniqueFilter(ids)

	assert.Equal(t, plan.And{Expressions: []plan.Expression{
		plan.BinaryComparison{Column: plan.ComparisonTarget{Name: "tenant_id"}, Operator: "_eq", Value: ir.String("acme")},
		plan.BinaryComparison{Column: plan.ComparisonTarget{Name: "slug"}, Operator: "_ieq", Value: ir.String("home")},
	}}, got)

	structured, ok := StructuredUniqueFilter(ids).(queryir.And)
	if assert.True(t, ok) {
		assert.Len(t, structured.Expressions, 2)
	}
}
