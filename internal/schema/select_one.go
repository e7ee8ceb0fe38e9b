package schema

import (
	"github.com/roach88/fieldir/internal/diag"
	"github.com/roach88/fieldir/internal/metadata"
)

// SelectOneField builds a root field that looks up one row of model by the
// unique identifier su. Its arguments are the identifier fields (non-null)
// followed by the model's own arguments, flattened. The output type is
// nullable: no matching row yields null.
func (b *Builder) SelectOneField(model *metadata.Model, su metadata.SelectUnique) (*Field, error) {
	dt, err := b.dataType(model)
	if err != nil {
		return nil, err
	}
	outType, err := b.ModelOutputType(model)
	if err != nil {
		return nil, err
	}

	args := &ArgumentSet{}
	for _, name := range su.UniqueIdentifier {
		of, ok := dt.Field(name)
		if !ok {
			return nil, diag.Internal("unique identifier %q is not a field of %q", name, dt.Name)
		}
		t := of.Type
		t.NonNull = true
		if !args.Insert(&InputField{
			Name:       name,
			Type:       t,
			Annotation: UniqueIdentifierAnnotation{Field: name, Type: of.Type, Column: uniqueColumn(model, name)},
		}) {
			return nil, diag.ArgumentConflict(name, su.QueryRootField, QueryTypeName)
		}
	}
	for _, a := range model.Arguments {
		if err := b.argumentType(a); err != nil {
			return nil, err
		}
		if !args.Insert(&InputField{
			Name:        a.Name,
			Description: a.Description,
			Type:        a.Type,
			Annotation:  ModelArgumentAnnotation{Argument: a.Name, Type: a.Type},
			Namespace:   argumentNamespace(model, a.Name),
		}) {
			return nil, diag.ArgumentConflict(a.Name, su.QueryRootField, QueryTypeName)
		}
	}

	return &Field{
		Name:        su.QueryRootField,
		Description: su.Description,
		Deprecated:  su.Deprecated,
		Type:        metadata.Named(outType),
		Arguments:   args,
		Annotation:  rootAnnotation(SelectOne, model),
		Namespace:   modelNamespace(model),
	}, nil
}

// uniqueColumn returns the connector column and equality operator for field,
// or nil when the model is unmapped or the column is not comparable.
func uniqueColumn(model *metadata.Model, field string) *metadata.UniqueColumn {
	if model.Source == nil {
		return nil
	}
	fm, ok := model.Source.FieldMapping(model.DataType, field)
	if !ok || fm.EqualOperator == "" {
		return nil
	}
	return &metadata.UniqueColumn{Column: fm.Column, EqualOperator: fm.EqualOperator}
}
