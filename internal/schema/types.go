package schema

import (
	"github.com/roach88/fieldir/internal/metadata"
)

// Field is an output field of an object type.
type Field struct {
	Name        string
	Description string
	Deprecated  *string
	Type        metadata.TypeRef
	Arguments   *ArgumentSet
	Annotation  Annotation
	Namespace   Namespace
}

// InputField is a field argument or a field of an input object.
type InputField struct {
	Name        string
	Description string
	Type        metadata.TypeRef
	Annotation  Annotation
	Namespace   Namespace
}

// ArgumentSet is an insertion-ordered set of input fields keyed by name.
// The zero value is empty and ready to use.
type ArgumentSet struct {
	names  []string
	fields map[string]*InputField
}

// Insert adds f. It reports false, leaving the set unchanged, if the name is
// already taken.
func (s *ArgumentSet) Insert(f *InputField) bool {
	if _, exists := s.fields[f.Name]; exists {
		return false
	}
	if s.fields == nil {
		s.fields = make(map[string]*InputField)
	}
	s.names = append(s.names, f.Name)
	s.fields[f.Name] = f
	return true
}

// Get returns the input field with the given name.
func (s *ArgumentSet) Get(name string) (*InputField, bool) {
	if s == nil {
		return nil, false
	}
	f, ok := s.fields[name]
	return f, ok
}

// All returns input fields in insertion order.
func (s *ArgumentSet) All() []*InputField {
	if s == nil {
		return nil
	}
	out := make([]*InputField, 0, len(s.names))
	for _, name := range s.names {
		out = append(out, s.fields[name])
	}
	return out
}

// Names returns input field names in insertion order.
func (s *ArgumentSet) Names() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.names...)
}

// Len returns the number of input fields.
func (s *ArgumentSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Object is an output object type.
type Object struct {
	Name        string
	Description string
	Fields      []*Field
}

// Field returns the field with the given name.
func (o *Object) Field(name string) (*Field, bool) {
	for _, f := range o.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// InputObject is an input object type.
type InputObject struct {
	Name        string
	Description string
	Fields      *ArgumentSet
}

// EnumValue is one value of an enum type.
type EnumValue struct {
	Name        string
	Description string
}

// Enum is an enum type.
type Enum struct {
	Name        string
	Description string
	Values      []EnumValue
}

// QueryTypeName is the name of the query root type.
const QueryTypeName = "Query"

// Schema is the role-independent schema of a project. Use SDL to render the
// view visible to one role.
type Schema struct {
	Query *Object

	objects      map[string]*Object
	inputObjects map[string]*InputObject
	enums        map[string]*Enum

	// order lists named types in registration order.
	order []string
}

// Object returns the named output object type.
func (s *Schema) Object(name string) (*Object, bool) {
	o, ok := s.objects[name]
	return o, ok
}

// InputObject returns the named input object type.
func (s *Schema) InputObject(name string) (*InputObject, bool) {
	o, ok := s.inputObjects[name]
	return o, ok
}

// Enum returns the named enum type.
func (s *Schema) Enum(name string) (*Enum, bool) {
	e, ok := s.enums[name]
	return e, ok
}

// RootField returns the query root field with the given name.
func (s *Schema) RootField(name string) (*Field, bool) {
	return s.Query.Field(name)
}

// TypeNames returns named types in registration order, Query excluded.
func (s *Schema) TypeNames() []string {
	return append([]string(nil), s.order...)
}
