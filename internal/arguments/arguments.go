// Package arguments resolves supplied model argument values for each IR
// dialect.
//
// Most arguments pass through as literals. An argument typed by a model's
// where input is a boolean expression over that model; it is translated
// like a where clause and counts the models it reaches.
package arguments

import (
	"github.com/roach88/fieldir/internal/diag"
	"github.com/roach88/fieldir/internal/filter"
	"github.com/roach88/fieldir/internal/metadata"
	"github.com/roach88/fieldir/internal/normalized"
	"github.com/roach88/fieldir/internal/plan"
	"github.com/roach88/fieldir/internal/queryir"
	"github.com/roach88/fieldir/internal/schema"
	"github.com/roach88/fieldir/internal/usage"
)

// Name returns the model argument name of a classified argument.
func Name(arg *normalized.InputField) (string, metadata.TypeRef, error) {
	ann, ok := arg.Annotation.(schema.ModelArgumentAnnotation)
	if !ok {
		return "", metadata.TypeRef{}, diag.UnexpectedAnnotation(arg.Annotation, arg.Name)
	}
	return ann.Argument, ann.Type, nil
}

// LegacyValue resolves arg against model's connector. The returned name is
// the connector argument name.
func LegacyValue(md *metadata.Metadata, model *metadata.Model, arg *normalized.InputField, counts *usage.Counts) (string, plan.ArgumentValue, error) {
	name, t, err := Name(arg)
	if err != nil {
		return "", nil, err
	}
	if model.Source == nil {
		return "", nil, diag.Internal("model %q has no source", model.Name)
	}
	connectorName := model.Source.ConnectorArgument(name)

	if target, ok := booleanExpressionModel(md, t); ok && !arg.Value.IsNull() {
		expr, err := filter.ColumnWhere(md, target, arg.Value, counts)
		if err != nil {
			return "", nil, err
		}
		return connectorName, plan.BooleanExpressionArgument{Predicate: expr}, nil
	}
	return connectorName, plan.Literal{Value: arg.Value.Value}, nil
}

// StructuredValue resolves arg without connector knowledge. The returned
// name is the model argument name.
func StructuredValue(md *metadata.Metadata, arg *normalized.InputField, counts *usage.Counts) (string, queryir.ArgumentValue, error) {
	name, t, err := Name(arg)
	if err != nil {
		return "", nil, err
	}
	if _, ok := booleanExpressionModel(md, t); ok && !arg.Value.IsNull() {
		expr, err := filter.StructuredWhere(md, arg.Value, counts)
		if err != nil {
			return "", nil, err
		}
		return name, queryir.BooleanExpressionArgument{Predicate: expr}, nil
	}
	return name, queryir.Literal{Value: arg.Value.Value}, nil
}

func booleanExpressionModel(md *metadata.Metadata, t metadata.TypeRef) (*metadata.Model, bool) {
	if t.IsList() {
		return nil, false
	}
	return md.ModelByFilterType(t.Name)
}
