// Package filter builds filter expressions in both IR dialects: equality
// lookups from unique identifier arguments, and client where clauses.
//
// For the same input the structured and the column form must accept and
// reject the same rows.
package filter

import (
	"github.com/roach88/fieldir/internal/ir"
	"github.com/roach88/fieldir/internal/metadata"
	"github.com/roach88/fieldir/internal/plan"
	"github.com/roach88/fieldir/internal/queryir"
)

// UniqueIdentifier is one supplied component of a select-one lookup.
type UniqueIdentifier struct {
	Field  string
	Column metadata.UniqueColumn
	Value  ir.Value
}

// StructuredUniqueFilter returns the conjunction of field equalities. One
// component is returned as a bare comparison; none yields nil.
func StructuredUniqueFilter(ids []UniqueIdentifier) queryir.BooleanExpression {
	exprs := make([]queryir.BooleanExpression, 0, len(ids))
	for _, id := range ids {
		exprs = append(exprs, queryir.Comparison{
			Operand:  queryir.FieldOperand{FieldName: id.Field},
			Operator: queryir.OperatorEquals,
			Argument: id.Value,
		})
	}
	return structuredAnd(exprs)
}

// ColumnUniqueFilter returns the conjunction of column comparisons, each with
// the column's own equality operator. One component is returned as a bare
// comparison; none yields nil.
func ColumnUniqueFilter(ids []UniqueIdentifier) plan.Expression {
	exprs := make([]plan.Expression, 0, len(ids))
	for _, id := range ids {
		exprs = append(exprs, plan.BinaryComparison{
			Column:   plan.ComparisonTarget{Name: id.Column.Column},
			Operator: id.Column.EqualOperator,
			Value:    id.Value,
		})
	}
	return plan.MkAnd(exprs...)
}

func structuredAnd(exprs []queryir.BooleanExpression) queryir.BooleanExpression {
	switch len(exprs) {
	case 0:
		return nil
	case 1:
		return exprs[0]
	default:
		return queryir.And{Expressions: exprs}
	}
}
