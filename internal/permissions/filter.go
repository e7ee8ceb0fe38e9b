package permissions

import (
	"github.com/roach88/fieldir/internal/diag"
	"github.com/roach88/fieldir/internal/metadata"
	"github.com/roach88/fieldir/internal/plan"
	"github.com/roach88/fieldir/internal/session"
	"github.com/roach88/fieldir/internal/usage"
)

// PermissionFilter lowers a role's select predicate on model to connector
// columns. A nil predicate yields nil. Each relationship crossed counts its
// target model.
func PermissionFilter(
	md *metadata.Metadata,
	model *metadata.Model,
	pred *metadata.Predicate,
	sess *session.Session,
	counts *usage.Counts,
) (plan.Expression, error) {
	if pred == nil {
		return nil, nil
	}
	if model.Source == nil {
		return nil, diag.Internal("model %q has no source", model.Name)
	}

	switch {
	case pred.And != nil:
		exprs, err := permissionFilters(md, model, pred.And, sess, counts)
		if err != nil {
			return nil, err
		}
		return plan.And{Expressions: exprs}, nil
	case pred.Or != nil:
		exprs, err := permissionFilters(md, model, pred.Or, sess, counts)
		if err != nil {
			return nil, err
		}
		return plan.Or{Expressions: exprs}, nil
	case pred.Not != nil:
		e, err := PermissionFilter(md, model, pred.Not, sess, counts)
		if err != nil {
			return nil, err
		}
		if e == nil {
			e = plan.And{}
		}
		return plan.Not{Expression: e}, nil
	case pred.Relationship != "":
		return relationshipFilter(md, model, pred, sess, counts)
	case pred.Field != "":
		return fieldFilter(md, model, pred, sess)
	default:
		return nil, diag.Internal("empty permission predicate on model %q", model.Name)
	}
}

func permissionFilters(
	md *metadata.Metadata,
	model *metadata.Model,
	preds []*metadata.Predicate,
	sess *session.Session,
	counts *usage.Counts,
) ([]plan.Expression, error) {
	exprs := make([]plan.Expression, 0, len(preds))
	for _, p := range preds {
		e, err := PermissionFilter(md, model, p, sess, counts)
		if err != nil {
			return nil, err
		}
		if e == nil {
			e = plan.And{}
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}

func relationshipFilter(
	md *metadata.Metadata,
	model *metadata.Model,
	pred *metadata.Predicate,
	sess *session.Session,
	counts *usage.Counts,
) (plan.Expression, error) {
	dt, ok := md.ObjectType(model.DataType)
	if !ok {
		return nil, diag.Internal("model %q has unknown data type %q", model.Name, model.DataType)
	}
	rel, ok := dt.Relationships[pred.Relationship]
	if !ok {
		return nil, diag.Internal("permission on %q uses unknown relationship %q", model.Name, pred.Relationship)
	}
	target, ok := md.Model(rel.Target)
	if !ok || target.Source == nil {
		return nil, diag.Internal("relationship %q targets unmapped model %q", rel.Name, rel.Target)
	}
	counts.CountModel(target.Name)
	nested, err := PermissionFilter(md, target, pred.Nested, sess, counts)
	if err != nil {
		return nil, err
	}
	return plan.RelationshipExists{
		Relationship: rel.Name,
		Collection:   target.Source.Collection,
		Predicate:    nested,
	}, nil
}

func fieldFilter(md *metadata.Metadata, model *metadata.Model, pred *metadata.Predicate, sess *session.Session) (plan.Expression, error) {
	fm, ok := model.Source.FieldMapping(model.DataType, pred.Field)
	if !ok {
		return nil, &diag.Error{
			Kind:     diag.KindMissingMapping,
			Message:  "permission field has no column mapping",
			Field:    pred.Field,
			TypeName: string(model.DataType),
		}
	}
	column := plan.ComparisonTarget{Name: fm.Column}
	if pred.IsNull {
		return plan.UnaryComparison{Column: column, Operator: plan.UnaryIsNull}, nil
	}

	operator, err := connectorOperator(model, pred.Field, pred.Operator, fm)
	if err != nil {
		return nil, err
	}
	if pred.Value == nil {
		return nil, diag.Internal("permission comparison on %q has no value", pred.Field)
	}
	t := metadata.Named("String")
	if dt, ok := md.ObjectType(model.DataType); ok {
		if f, ok := dt.Field(pred.Field); ok {
			t = f.Type
		}
	}
	v, err := ResolveValueExpression(*pred.Value, t, sess)
	if err != nil {
		return nil, err
	}
	return plan.BinaryComparison{Column: column, Operator: operator, Value: v}, nil
}

// connectorOperator maps a GraphQL operator to the connector's. _eq uses
// the column's equality operator; others come from the model's comparable
// fields and fall back to the name as written.
func connectorOperator(model *metadata.Model, field, op string, fm *metadata.FieldMapping) (string, error) {
	if op == "_eq" || op == "" {
		if fm.EqualOperator == "" {
			return "", &diag.Error{
				Kind:     diag.KindMissingMapping,
				Message:  "column has no equality operator",
				Field:    field,
				TypeName: string(model.DataType),
			}
		}
		return fm.EqualOperator, nil
	}
	if fe := model.GraphQL.FilterExpression; fe != nil {
		for _, cf := range fe.Fields {
			if mapped, ok := cf.Operators[op]; ok && cf.Field == field {
				return mapped, nil
			}
		}
	}
	return op, nil
}
