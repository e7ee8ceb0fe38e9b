// Package normalized holds field invocations after the query text has been
// parsed, validated and annotated against the schema, and the helper that
// produces them.
package normalized

import (
	"github.com/roach88/fieldir/internal/ir"
	"github.com/roach88/fieldir/internal/metadata"
	"github.com/roach88/fieldir/internal/schema"
)

// TypenameField is the GraphQL meta field returning the parent type name.
const TypenameField = "__typename"

// Operation is a normalized query operation.
type Operation struct {
	Name       string
	RootFields []*Field
}

// Field is one field invocation.
type Field struct {
	Alias string
	Name  string

	// ParentType is the GraphQL type the field was selected on.
	ParentType string

	Type       metadata.TypeRef
	Annotation schema.Annotation

	// Namespace is the caller role's namespace annotation for the field, or
	// nil when the field is not role restricted.
	Namespace *schema.NamespaceAnnotation

	// Arguments are in schema declaration order.
	Arguments    []*InputField
	SelectionSet []*Field
}

// Argument returns the supplied argument with the given name.
func (f *Field) Argument(name string) (*InputField, bool) {
	for _, a := range f.Arguments {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// InputField is a supplied argument or input object field.
type InputField struct {
	Name       string
	Annotation schema.Annotation
	Value      *InputValue
}

// InputValue is a supplied input value. Value always holds the whole value.
// Object is set for input object types (fields in schema order) and List
// for list types; both are nil for scalars, enums and null.
type InputValue struct {
	Value  ir.Value
	Object []*InputField
	List   []*InputValue
}

// IsNull reports whether the value is an explicit null.
func (v *InputValue) IsNull() bool {
	return v == nil || ir.IsNull(v.Value)
}

// Field returns the object field with the given name.
func (v *InputValue) Field(name string) (*InputField, bool) {
	for _, f := range v.Object {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}
