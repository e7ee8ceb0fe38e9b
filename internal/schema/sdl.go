package schema

import (
	"bytes"
	"slices"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"

	"github.com/roach88/fieldir/internal/metadata"
)

// NoQueriesFieldName is the placeholder root field published to roles that
// can see no model, since GraphQL forbids an empty Query type.
const NoQueriesFieldName = "_no_queries_available"

var builtinScalars = map[string]bool{
	"Int": true, "Float": true, "String": true, "Boolean": true, "ID": true,
}

// SDL renders the schema visible to role. Fields, arguments and input fields
// the role may not see are omitted, as are types it cannot reach.
func (s *Schema) SDL(role metadata.Role) string {
	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatSchemaDocument(s.Document(role))
	return buf.String()
}

// Document builds the gqlparser schema document visible to role.
func (s *Schema) Document(role metadata.Role) *ast.SchemaDocument {
	v := &roleView{schema: s, role: role, reachable: make(map[string]bool)}
	v.pruneInputs()

	doc := &ast.SchemaDocument{}
	query := &ast.Definition{Kind: ast.Object, Name: QueryTypeName}
	for _, f := range s.Query.Fields {
		if !f.Namespace.Visible(role) {
			continue
		}
		query.Fields = append(query.Fields, v.fieldDefinition(f))
	}
	if len(query.Fields) == 0 {
		query.Fields = append(query.Fields, &ast.FieldDefinition{
			Name: NoQueriesFieldName,
			Type: ast.NonNullNamedType("String", nil),
		})
	}
	doc.Definitions = append(doc.Definitions, query)

	// Walking reachable types may discover more; iterate to a fixed point.
	emitted := make(map[string]bool)
	for changed := true; changed; {
		changed = false
		for _, name := range s.order {
			if emitted[name] || !v.reachable[name] {
				continue
			}
			emitted[name] = true
			changed = true
			doc.Definitions = append(doc.Definitions, v.definition(name))
		}
	}

	var scalars []string
	for name := range v.reachable {
		if builtinScalars[name] || emitted[name] {
			continue
		}
		scalars = append(scalars, name)
	}
	slices.Sort(scalars)
	for _, name := range scalars {
		doc.Definitions = append(doc.Definitions, &ast.Definition{Kind: ast.Scalar, Name: name})
	}
	return doc
}

type roleView struct {
	schema    *Schema
	role      metadata.Role
	reachable map[string]bool

	// emptyInputs holds input objects with no field visible to role.
	emptyInputs map[string]bool
}

// pruneInputs marks input objects that end up with no visible fields once
// fields typed by other empty inputs are dropped.
func (v *roleView) pruneInputs() {
	v.emptyInputs = make(map[string]bool)
	for changed := true; changed; {
		changed = false
		for name, obj := range v.schema.inputObjects {
			if v.emptyInputs[name] {
				continue
			}
			if len(v.visibleInputFields(obj.Fields)) == 0 {
				v.emptyInputs[name] = true
				changed = true
			}
		}
	}
}

func (v *roleView) visibleInputFields(set *ArgumentSet) []*InputField {
	var out []*InputField
	for _, f := range set.All() {
		if !f.Namespace.Visible(v.role) || v.emptyInputs[f.Type.BaseName()] {
			continue
		}
		out = append(out, f)
	}
	return out
}

func (v *roleView) definition(name string) *ast.Definition {
	if obj, ok := v.schema.objects[name]; ok {
		def := &ast.Definition{Kind: ast.Object, Name: name, Description: obj.Description}
		for _, f := range obj.Fields {
			if f.Namespace.Visible(v.role) {
				def.Fields = append(def.Fields, v.fieldDefinition(f))
			}
		}
		return def
	}
	if obj, ok := v.schema.inputObjects[name]; ok {
		def := &ast.Definition{Kind: ast.InputObject, Name: name, Description: obj.Description}
		for _, f := range v.visibleInputFields(obj.Fields) {
			def.Fields = append(def.Fields, &ast.FieldDefinition{
				Name:        f.Name,
				Description: f.Description,
				Type:        v.inputType(f.Type),
			})
		}
		return def
	}
	e := v.schema.enums[name]
	def := &ast.Definition{Kind: ast.Enum, Name: name, Description: e.Description}
	for _, val := range e.Values {
		def.EnumValues = append(def.EnumValues, &ast.EnumValueDefinition{Name: val.Name, Description: val.Description})
	}
	return def
}

func (v *roleView) fieldDefinition(f *Field) *ast.FieldDefinition {
	def := &ast.FieldDefinition{
		Name:        f.Name,
		Description: f.Description,
		Type:        v.typeRef(f.Type),
	}
	for _, a := range v.visibleInputFields(f.Arguments) {
		def.Arguments = append(def.Arguments, &ast.ArgumentDefinition{
			Name:        a.Name,
			Description: a.Description,
			Type:        v.inputType(a.Type),
		})
	}
	if f.Deprecated != nil {
		def.Directives = append(def.Directives, &ast.Directive{
			Name: "deprecated",
			Arguments: ast.ArgumentList{{
				Name:  "reason",
				Value: &ast.Value{Kind: ast.StringValue, Raw: *f.Deprecated},
			}},
		})
	}
	return def
}

// inputType converts an argument or input field type. A required input
// object whose required fields are all hidden from the role, such as a
// model's args when the role presets every required argument, is optional.
func (v *roleView) inputType(t metadata.TypeRef) *ast.Type {
	if t.NonNull && t.Elem == nil {
		if obj, ok := v.schema.inputObjects[t.Name]; ok && !slices.ContainsFunc(v.visibleInputFields(obj.Fields), func(f *InputField) bool {
			return f.Type.NonNull
		}) {
			t.NonNull = false
		}
	}
	return v.typeRef(t)
}

// typeRef converts t and marks its base type reachable.
func (v *roleView) typeRef(t metadata.TypeRef) *ast.Type {
	v.reachable[t.BaseName()] = true
	return astType(t)
}

func astType(t metadata.TypeRef) *ast.Type {
	if t.Elem != nil {
		return &ast.Type{Elem: astType(*t.Elem), NonNull: t.NonNull}
	}
	return &ast.Type{NamedType: t.Name, NonNull: t.NonNull}
}
