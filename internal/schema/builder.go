package schema

import (
	"slices"

	"github.com/roach88/fieldir/internal/diag"
	"github.com/roach88/fieldir/internal/metadata"
)

// Builder assembles a Schema from metadata. Named types are built once and
// memoized, so recursive references (a where input reaching back to itself
// through relationships) terminate.
type Builder struct {
	md     *metadata.Metadata
	schema *Schema
}

// NewBuilder returns a builder with an empty Query type.
func NewBuilder(md *metadata.Metadata) *Builder {
	return &Builder{
		md: md,
		schema: &Schema{
			Query:        &Object{Name: QueryTypeName},
			objects:      make(map[string]*Object),
			inputObjects: make(map[string]*InputObject),
			enums:        make(map[string]*Enum),
		},
	}
}

// Build publishes every model's select-one and select-many root fields.
func Build(md *metadata.Metadata) (*Schema, error) {
	b := NewBuilder(md)
	for _, model := range md.OrderedModels() {
		for _, su := range model.GraphQL.SelectUniques {
			f, err := b.SelectOneField(model, su)
			if err != nil {
				return nil, err
			}
			if err := b.addRootField(f); err != nil {
				return nil, err
			}
		}
		if model.GraphQL.SelectMany != nil {
			f, err := b.SelectManyField(model)
			if err != nil {
				return nil, err
			}
			if err := b.addRootField(f); err != nil {
				return nil, err
			}
		}
	}
	return b.Schema(), nil
}

// Schema returns the schema built so far.
func (b *Builder) Schema() *Schema {
	return b.schema
}

func (b *Builder) addRootField(f *Field) error {
	if _, exists := b.schema.Query.Field(f.Name); exists {
		return &diag.Error{
			Kind:     diag.KindInternal,
			Message:  "duplicate query root field",
			Field:    f.Name,
			TypeName: QueryTypeName,
		}
	}
	b.schema.Query.Fields = append(b.schema.Query.Fields, f)
	return nil
}

// object returns the memoized object type name, running fill the first time.
// The type is registered before fill runs.
func (b *Builder) object(name string, fill func(*Object) error) (string, error) {
	if _, ok := b.schema.objects[name]; ok {
		return name, nil
	}
	obj := &Object{Name: name}
	b.schema.objects[name] = obj
	b.schema.order = append(b.schema.order, name)
	if err := fill(obj); err != nil {
		return "", err
	}
	return name, nil
}

// inputObject returns the memoized input object type name, running fill the
// first time.
func (b *Builder) inputObject(name string, fill func(*InputObject) error) (string, error) {
	if _, ok := b.schema.inputObjects[name]; ok {
		return name, nil
	}
	obj := &InputObject{Name: name, Fields: &ArgumentSet{}}
	b.schema.inputObjects[name] = obj
	b.schema.order = append(b.schema.order, name)
	if err := fill(obj); err != nil {
		return "", err
	}
	return name, nil
}

func (b *Builder) enum(e *Enum) string {
	if _, ok := b.schema.enums[e.Name]; !ok {
		b.schema.enums[e.Name] = e
		b.schema.order = append(b.schema.order, e.Name)
	}
	return e.Name
}

func (b *Builder) dataType(model *metadata.Model) (*metadata.ObjectType, error) {
	dt, ok := b.md.ObjectType(model.DataType)
	if !ok {
		return nil, diag.Internal("model %q has unknown data type %q", model.Name, model.DataType)
	}
	return dt, nil
}

func (b *Builder) targetModel(rel *metadata.Relationship) (*metadata.Model, error) {
	target, ok := b.md.Model(rel.Target)
	if !ok {
		return nil, diag.Internal("relationship %q targets unknown model %q", rel.Name, rel.Target)
	}
	return target, nil
}

func rootAnnotation(kind RootFieldKind, model *metadata.Model) RootFieldAnnotation {
	return RootFieldAnnotation{
		Kind:     kind,
		Model:    model.Name,
		DataType: model.DataType,
		Source:   model.Source,
	}
}

// sortedRelationships returns relationships ordered by name.
func sortedRelationships(t *metadata.ObjectType) []*metadata.Relationship {
	rels := make([]*metadata.Relationship, 0, len(t.Relationships))
	for _, rel := range t.Relationships {
		rels = append(rels, rel)
	}
	slices.SortFunc(rels, func(a, b *metadata.Relationship) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return rels
}
