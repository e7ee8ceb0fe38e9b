package schema

import (
	"github.com/roach88/fieldir/internal/diag"
	"github.com/roach88/fieldir/internal/metadata"
)

// ArgumentsFieldName is the synthesized input field bundling a select-many
// field's model arguments.
const ArgumentsFieldName = "args"

// SelectManyField builds the select-many root field of model.
//
// Arguments are added in a fixed order: limit, offset, order_by, where, and
// then args when the model declares arguments. The output type is
// [T!]: an empty result is an empty list, never null.
func (b *Builder) SelectManyField(model *metadata.Model) (*Field, error) {
	g := model.GraphQL
	if g.SelectMany == nil {
		return nil, diag.Internal("model %q has no select-many configuration", model.Name)
	}
	fieldName := g.SelectMany.QueryRootField

	outType, err := b.ModelOutputType(model)
	if err != nil {
		return nil, err
	}

	args := &ArgumentSet{}
	insert := func(f *InputField) error {
		if !args.Insert(f) {
			return diag.ArgumentConflict(f.Name, fieldName, QueryTypeName)
		}
		return nil
	}

	if g.LimitField != "" {
		if err := insert(&InputField{Name: g.LimitField, Type: metadata.Named("Int"), Annotation: LimitAnnotation{}}); err != nil {
			return nil, err
		}
	}
	if g.OffsetField != "" {
		if err := insert(&InputField{Name: g.OffsetField, Type: metadata.Named("Int"), Annotation: OffsetAnnotation{}}); err != nil {
			return nil, err
		}
	}
	if g.OrderByExpression != nil {
		orderBy, err := b.OrderByType(model)
		if err != nil {
			return nil, err
		}
		if err := insert(&InputField{
			Name:       g.OrderByExpression.FieldName,
			Type:       metadata.ListOf(metadata.NonNullNamed(orderBy)),
			Annotation: OrderByAnnotation{},
		}); err != nil {
			return nil, err
		}
	}
	if g.FilterExpression != nil {
		where, err := b.WhereType(model)
		if err != nil {
			return nil, err
		}
		if err := insert(&InputField{
			Name:       g.FilterExpression.FieldName,
			Type:       metadata.Named(where),
			Annotation: WhereAnnotation{},
		}); err != nil {
			return nil, err
		}
	}
	if len(model.Arguments) > 0 {
		argsType, err := b.ArgumentsType(model)
		if err != nil {
			return nil, err
		}
		if err := insert(&InputField{
			Name:       ArgumentsFieldName,
			Type:       argsType,
			Annotation: ArgumentsInputAnnotation{},
			Namespace:  modelNamespace(model),
		}); err != nil {
			return nil, err
		}
	}

	return &Field{
		Name:        fieldName,
		Description: g.SelectMany.Description,
		Deprecated:  g.SelectMany.Deprecated,
		Type:        metadata.ListOf(metadata.NonNullNamed(outType)),
		Arguments:   args,
		Annotation:  rootAnnotation(SelectMany, model),
		Namespace:   modelNamespace(model),
	}, nil
}
