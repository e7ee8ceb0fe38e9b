package filter

import (
	"github.com/roach88/fieldir/internal/diag"
	"github.com/roach88/fieldir/internal/ir"
	"github.com/roach88/fieldir/internal/metadata"
	"github.com/roach88/fieldir/internal/normalized"
	"github.com/roach88/fieldir/internal/plan"
	"github.com/roach88/fieldir/internal/queryir"
	"github.com/roach88/fieldir/internal/schema"
	"github.com/roach88/fieldir/internal/usage"
)

// Fields of one where object are conjoined. A null value anywhere in the
// tree means "no condition" for that key. Every relationship crossed counts
// its target model once.

// StructuredWhere translates a where input into the structured dialect.
// A nil or empty where yields nil.
func StructuredWhere(md *metadata.Metadata, where *normalized.InputValue, counts *usage.Counts) (queryir.BooleanExpression, error) {
	if where.IsNull() {
		return nil, nil
	}
	var exprs []queryir.BooleanExpression
	for _, f := range where.Object {
		if f.Value.IsNull() {
			continue
		}
		switch ann := f.Annotation.(type) {
		case schema.LogicalOperatorAnnotation:
			e, err := structuredLogical(md, ann.Operator, f, counts)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, e)
		case schema.ComparableFieldAnnotation:
			for _, op := range f.Value.Object {
				if op.Value.IsNull() {
					continue
				}
				e, err := structuredComparison(ann.Field, op)
				if err != nil {
					return nil, err
				}
				exprs = append(exprs, e)
			}
		case schema.ComparableRelationshipAnnotation:
			counts.CountModel(ann.Relationship.Target)
			nested, err := StructuredWhere(md, f.Value, counts)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, queryir.RelationshipPredicate{
				Relationship: ann.Relationship.Name,
				Predicate:    nested,
			})
		default:
			return nil, diag.UnexpectedAnnotation(f.Annotation, f.Name)
		}
	}
	return structuredAnd(exprs), nil
}

func structuredLogical(md *metadata.Metadata, op schema.LogicalOperator, f *normalized.InputField, counts *usage.Counts) (queryir.BooleanExpression, error) {
	switch op {
	case schema.LogicalAnd, schema.LogicalOr:
		items := make([]queryir.BooleanExpression, 0, len(f.Value.List))
		for _, item := range f.Value.List {
			e, err := StructuredWhere(md, item, counts)
			if err != nil {
				return nil, err
			}
			if e == nil {
				e = queryir.And{}
			}
			items = append(items, e)
		}
		if op == schema.LogicalAnd {
			return queryir.And{Expressions: items}, nil
		}
		return queryir.Or{Expressions: items}, nil
	case schema.LogicalNot:
		e, err := StructuredWhere(md, f.Value, counts)
		if err != nil {
			return nil, err
		}
		if e == nil {
			e = queryir.And{}
		}
		return queryir.Not{Expression: e}, nil
	default:
		return nil, diag.UnexpectedAnnotation(op, f.Name)
	}
}

func structuredComparison(field string, op *normalized.InputField) (queryir.BooleanExpression, error) {
	ann, ok := op.Annotation.(schema.ComparisonOperatorAnnotation)
	if !ok {
		return nil, diag.UnexpectedAnnotation(op.Annotation, op.Name)
	}
	operand := queryir.FieldOperand{FieldName: field}
	switch {
	case ann.IsNull:
		return structuredIsNull(operand, op)
	case ann.IsEquality:
		return queryir.Comparison{Operand: operand, Operator: queryir.OperatorEquals, Argument: op.Value.Value}, nil
	default:
		return queryir.Comparison{Operand: operand, Operator: queryir.ComparisonOperator(ann.Operator), Argument: op.Value.Value}, nil
	}
}

func structuredIsNull(operand queryir.FieldOperand, op *normalized.InputField) (queryir.BooleanExpression, error) {
	isNull, err := boolValue(op)
	if err != nil {
		return nil, err
	}
	if isNull {
		return queryir.IsNull{Operand: operand}, nil
	}
	return queryir.Not{Expression: queryir.IsNull{Operand: operand}}, nil
}

// ColumnWhere translates a where input on model into connector columns.
// A nil or empty where yields nil.
func ColumnWhere(md *metadata.Metadata, model *metadata.Model, where *normalized.InputValue, counts *usage.Counts) (plan.Expression, error) {
	if where.IsNull() {
		return nil, nil
	}
	var exprs []plan.Expression
	for _, f := range where.Object {
		if f.Value.IsNull() {
			continue
		}
		switch ann := f.Annotation.(type) {
		case schema.LogicalOperatorAnnotation:
			e, err := columnLogical(md, model, ann.Operator, f, counts)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, e)
		case schema.ComparableFieldAnnotation:
			column, err := columnFor(model, ann.Field)
			if err != nil {
				return nil, err
			}
			for _, op := range f.Value.Object {
				if op.Value.IsNull() {
					continue
				}
				e, err := columnComparison(column, op)
				if err != nil {
					return nil, err
				}
				exprs = append(exprs, e)
			}
		case schema.ComparableRelationshipAnnotation:
			target, ok := md.Model(ann.Relationship.Target)
			if !ok || target.Source == nil {
				return nil, diag.Internal("relationship %q targets unmapped model %q", ann.Relationship.Name, ann.Relationship.Target)
			}
			counts.CountModel(target.Name)
			nested, err := ColumnWhere(md, target, f.Value, counts)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, plan.RelationshipExists{
				Relationship: ann.Relationship.Name,
				Collection:   target.Source.Collection,
				Predicate:    nested,
			})
		default:
			return nil, diag.UnexpectedAnnotation(f.Annotation, f.Name)
		}
	}
	return columnAnd(exprs), nil
}

// columnAnd keeps the structured shape: no flattening, so both dialects
// nest identically.
func columnAnd(exprs []plan.Expression) plan.Expression {
	switch len(exprs) {
	case 0:
		return nil
	case 1:
		return exprs[0]
	default:
		return plan.And{Expressions: exprs}
	}
}

func columnLogical(md *metadata.Metadata, model *metadata.Model, op schema.LogicalOperator, f *normalized.InputField, counts *usage.Counts) (plan.Expression, error) {
	switch op {
	case schema.LogicalAnd, schema.LogicalOr:
		items := make([]plan.Expression, 0, len(f.Value.List))
		for _, item := range f.Value.List {
			e, err := ColumnWhere(md, model, item, counts)
			if err != nil {
				return nil, err
			}
			if e == nil {
				e = plan.And{}
			}
			items = append(items, e)
		}
		if op == schema.LogicalAnd {
			return plan.And{Expressions: items}, nil
		}
		return plan.Or{Expressions: items}, nil
	case schema.LogicalNot:
		e, err := ColumnWhere(md, model, f.Value, counts)
		if err != nil {
			return nil, err
		}
		if e == nil {
			e = plan.And{}
		}
		return plan.Not{Expression: e}, nil
	default:
		return nil, diag.UnexpectedAnnotation(op, f.Name)
	}
}

func columnComparison(column string, op *normalized.InputField) (plan.Expression, error) {
	ann, ok := op.Annotation.(schema.ComparisonOperatorAnnotation)
	if !ok {
		return nil, diag.UnexpectedAnnotation(op.Annotation, op.Name)
	}
	target := plan.ComparisonTarget{Name: column}
	if ann.IsNull {
		isNull, err := boolValue(op)
		if err != nil {
			return nil, err
		}
		cmp := plan.UnaryComparison{Column: target, Operator: plan.UnaryIsNull}
		if isNull {
			return cmp, nil
		}
		return plan.Not{Expression: cmp}, nil
	}
	if ann.ConnectorOperator == "" {
		return nil, &diag.Error{
			Kind:     diag.KindMissingMapping,
			Message:  "operator has no connector mapping",
			Argument: op.Name,
			Field:    column,
		}
	}
	return plan.BinaryComparison{Column: target, Operator: ann.ConnectorOperator, Value: op.Value.Value}, nil
}

// columnFor returns the connector column of a field of model's data type.
func columnFor(model *metadata.Model, field string) (string, error) {
	if model.Source == nil {
		return "", diag.Internal("model %q has no source", model.Name)
	}
	fm, ok := model.Source.FieldMapping(model.DataType, field)
	if !ok {
		return "", &diag.Error{
			Kind:     diag.KindMissingMapping,
			Message:  "field has no column mapping",
			Field:    field,
			TypeName: string(model.DataType),
		}
	}
	return fm.Column, nil
}

func boolValue(op *normalized.InputField) (bool, error) {
	b, ok := op.Value.Value.(ir.Bool)
	if !ok {
		return false, diag.InvalidArgument(op.Name, "expected a boolean, got %T", op.Value.Value)
	}
	return bool(b), nil
}
