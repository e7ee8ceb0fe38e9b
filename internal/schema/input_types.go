package schema

import (
	"slices"

	"github.com/roach88/fieldir/internal/diag"
	"github.com/roach88/fieldir/internal/metadata"
)

// OrderByEnumName is the enum every order_by field takes.
const OrderByEnumName = "OrderBy"

// Order directions as published in the OrderBy enum.
const (
	OrderAsc  = "Asc"
	OrderDesc = "Desc"
)

// ArgumentsType returns the type of the args input of model. It is non-null
// when any argument is non-null. A preset hides the argument from the roles
// that preset it, and a role's SDL drops the non-null when every required
// argument is hidden from it.
func (b *Builder) ArgumentsType(model *metadata.Model) (metadata.TypeRef, error) {
	name := model.GraphQL.ArgumentsInputType
	if name == "" {
		return metadata.TypeRef{}, diag.Internal("model %q declares arguments but no arguments input type", model.Name)
	}
	if _, err := b.inputObject(name, func(obj *InputObject) error {
		for _, a := range model.Arguments {
			if err := b.argumentType(a); err != nil {
				return err
			}
			if !obj.Fields.Insert(&InputField{
				Name:        a.Name,
				Description: a.Description,
				Type:        a.Type,
				Annotation:  ModelArgumentAnnotation{Argument: a.Name, Type: a.Type},
				Namespace:   argumentNamespace(model, a.Name),
			}) {
				return diag.ArgumentConflict(a.Name, "", name)
			}
		}
		return nil
	}); err != nil {
		return metadata.TypeRef{}, err
	}

	required := slices.ContainsFunc(model.Arguments, func(a metadata.Argument) bool {
		return a.Type.NonNull
	})
	if required {
		return metadata.NonNullNamed(name), nil
	}
	return metadata.Named(name), nil
}

// argumentType builds the where input an argument is typed by, if any.
func (b *Builder) argumentType(a metadata.Argument) error {
	if a.Type.IsList() {
		return nil
	}
	target, ok := b.md.ModelByFilterType(a.Type.Name)
	if !ok {
		return nil
	}
	_, err := b.WhereType(target)
	return err
}

// OrderByType returns the order_by input element type of model.
func (b *Builder) OrderByType(model *metadata.Model) (string, error) {
	ob := model.GraphQL.OrderByExpression
	dt, err := b.dataType(model)
	if err != nil {
		return "", err
	}
	direction := b.enum(&Enum{
		Name: OrderByEnumName,
		Values: []EnumValue{
			{Name: OrderAsc, Description: "Sorts the data in ascending order"},
			{Name: OrderDesc, Description: "Sorts the data in descending order"},
		},
	})
	return b.inputObject(ob.TypeName, func(obj *InputObject) error {
		for _, field := range ob.Fields {
			if _, ok := dt.Field(field); !ok {
				return diag.Internal("order_by field %q is not a field of %q", field, dt.Name)
			}
			if !obj.Fields.Insert(&InputField{
				Name:       field,
				Type:       metadata.Named(direction),
				Annotation: OrderByFieldAnnotation{Field: field},
			}) {
				return diag.ArgumentConflict(field, "", obj.Name)
			}
		}
		return nil
	})
}

// WhereType returns the boolean expression input type of model.
func (b *Builder) WhereType(model *metadata.Model) (string, error) {
	fe := model.GraphQL.FilterExpression
	if fe == nil {
		return "", diag.Internal("model %q has no filter expression", model.Name)
	}
	dt, err := b.dataType(model)
	if err != nil {
		return "", err
	}
	return b.inputObject(fe.TypeName, func(obj *InputObject) error {
		self := fe.TypeName
		logical := []*InputField{
			{Name: string(LogicalAnd), Type: metadata.ListOf(metadata.NonNullNamed(self)), Annotation: LogicalOperatorAnnotation{Operator: LogicalAnd}},
			{Name: string(LogicalOr), Type: metadata.ListOf(metadata.NonNullNamed(self)), Annotation: LogicalOperatorAnnotation{Operator: LogicalOr}},
			{Name: string(LogicalNot), Type: metadata.Named(self), Annotation: LogicalOperatorAnnotation{Operator: LogicalNot}},
		}
		for _, f := range logical {
			obj.Fields.Insert(f)
		}

		for _, cf := range fe.Fields {
			of, ok := dt.Field(cf.Field)
			if !ok {
				return diag.Internal("comparable field %q is not a field of %q", cf.Field, dt.Name)
			}
			comparison, err := b.comparisonType(model, self, of, cf)
			if err != nil {
				return err
			}
			if !obj.Fields.Insert(&InputField{
				Name:       cf.Field,
				Type:       metadata.Named(comparison),
				Annotation: ComparableFieldAnnotation{Field: cf.Field, Type: of.Type},
			}) {
				return diag.ArgumentConflict(cf.Field, "", obj.Name)
			}
		}

		for _, relName := range fe.Relationships {
			rel, ok := dt.Relationships[relName]
			if !ok {
				return diag.Internal("comparable relationship %q is not a relationship of %q", relName, dt.Name)
			}
			target, err := b.targetModel(rel)
			if err != nil {
				return err
			}
			targetWhere, err := b.WhereType(target)
			if err != nil {
				return err
			}
			if !obj.Fields.Insert(&InputField{
				Name:       relName,
				Type:       metadata.Named(targetWhere),
				Annotation: ComparableRelationshipAnnotation{Relationship: rel},
				Namespace:  modelNamespace(target),
			}) {
				return diag.ArgumentConflict(relName, "", obj.Name)
			}
		}
		return nil
	})
}

// comparisonType builds the per-field operator input: _is_null, _eq, then
// the remaining operators by name.
func (b *Builder) comparisonType(model *metadata.Model, whereType string, field metadata.ObjectField, cf metadata.ComparableField) (string, error) {
	name := whereType + "_" + cf.Field
	scalar := metadata.Named(field.Type.BaseName())

	equal := cf.Operators["_eq"]
	if equal == "" && model.Source != nil {
		if fm, ok := model.Source.FieldMapping(model.DataType, cf.Field); ok {
			equal = fm.EqualOperator
		}
	}

	return b.inputObject(name, func(obj *InputObject) error {
		obj.Fields.Insert(&InputField{
			Name:       "_is_null",
			Type:       metadata.Named("Boolean"),
			Annotation: ComparisonOperatorAnnotation{Operator: "_is_null", IsNull: true},
		})
		obj.Fields.Insert(&InputField{
			Name:       "_eq",
			Type:       scalar,
			Annotation: ComparisonOperatorAnnotation{Operator: "_eq", ConnectorOperator: equal, IsEquality: true},
		})

		ops := make([]string, 0, len(cf.Operators))
		for op := range cf.Operators {
			if op != "_eq" && op != "_is_null" {
				ops = append(ops, op)
			}
		}
		slices.Sort(ops)
		for _, op := range ops {
			obj.Fields.Insert(&InputField{
				Name:       op,
				Type:       scalar,
				Annotation: ComparisonOperatorAnnotation{Operator: op, ConnectorOperator: cf.Operators[op]},
			})
		}
		return nil
	})
}
