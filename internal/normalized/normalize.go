package normalized

import (
	"fmt"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/validator"

	"github.com/roach88/fieldir/internal/ir"
	"github.com/roach88/fieldir/internal/metadata"
	"github.com/roach88/fieldir/internal/schema"
)

// Request is the query text to normalize.
type Request struct {
	Query         string
	OperationName string
	Variables     map[string]any
}

// Normalizer validates requests against the schema visible to one role.
// It is safe for concurrent use once created.
type Normalizer struct {
	schema *schema.Schema
	role   metadata.Role
	gql    *ast.Schema
}

// NewNormalizer renders and loads the role's schema.
func NewNormalizer(s *schema.Schema, role metadata.Role) (*Normalizer, error) {
	gql, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: s.SDL(role)})
	if err != nil {
		return nil, fmt.Errorf("load schema for role %q: %w", role, err)
	}
	return &Normalizer{schema: s, role: role, gql: gql}, nil
}

// Normalize parses and validates req and annotates every field and argument.
// Fragments are inlined and @skip/@include are applied.
func (n *Normalizer) Normalize(req Request) (*Operation, error) {
	doc, errs := gqlparser.LoadQuery(n.gql, req.Query)
	if len(errs) > 0 {
		return nil, errs
	}
	op := doc.Operations.ForName(req.OperationName)
	if op == nil {
		if req.OperationName == "" {
			return nil, fmt.Errorf("operation name required when the document has %d operations", len(doc.Operations))
		}
		return nil, fmt.Errorf("operation %q not found", req.OperationName)
	}
	if op.Operation != ast.Query {
		return nil, fmt.Errorf("operation %q: only queries are supported, got %s", op.Name, op.Operation)
	}

	vars, err := validator.VariableValues(n.gql, op, req.Variables)
	if err != nil {
		return nil, err
	}

	w := &walker{n: n, vars: vars}
	fields, err := w.selectionSet(schema.QueryTypeName, op.SelectionSet)
	if err != nil {
		return nil, err
	}
	return &Operation{Name: op.Name, RootFields: fields}, nil
}

type walker struct {
	n    *Normalizer
	vars map[string]any
}

func (w *walker) selectionSet(parent string, set ast.SelectionSet) ([]*Field, error) {
	var out []*Field
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			include, err := w.included(s.Directives)
			if err != nil {
				return nil, err
			}
			if !include {
				continue
			}
			f, err := w.field(parent, s)
			if err != nil {
				return nil, err
			}
			out = append(out, f)
		case *ast.FragmentSpread:
			include, err := w.included(s.Directives)
			if err != nil {
				return nil, err
			}
			if !include || s.Definition == nil {
				continue
			}
			fields, err := w.selectionSet(parent, s.Definition.SelectionSet)
			if err != nil {
				return nil, err
			}
			out = append(out, fields...)
		case *ast.InlineFragment:
			include, err := w.included(s.Directives)
			if err != nil {
				return nil, err
			}
			if !include {
				continue
			}
			fields, err := w.selectionSet(parent, s.SelectionSet)
			if err != nil {
				return nil, err
			}
			out = append(out, fields...)
		default:
			return nil, fmt.Errorf("unsupported selection %T", sel)
		}
	}
	return out, nil
}

// included evaluates @skip and @include.
func (w *walker) included(directives ast.DirectiveList) (bool, error) {
	if d := directives.ForName("skip"); d != nil {
		if skip, _ := d.ArgumentMap(w.vars)["if"].(bool); skip {
			return false, nil
		}
	}
	if d := directives.ForName("include"); d != nil {
		if include, _ := d.ArgumentMap(w.vars)["if"].(bool); !include {
			return false, nil
		}
	}
	return true, nil
}

func (w *walker) field(parent string, f *ast.Field) (*Field, error) {
	out := &Field{Alias: f.Alias, Name: f.Name, ParentType: parent}
	if out.Alias == "" {
		out.Alias = f.Name
	}
	if f.Name == TypenameField {
		out.Type = metadata.NonNullNamed("String")
		return out, nil
	}

	def, ok := w.lookup(parent, f.Name)
	if !ok {
		return nil, fmt.Errorf("field %q is not available on %s", f.Name, parent)
	}
	out.Type = def.Type
	out.Annotation = def.Annotation
	if ns, ok := def.Namespace.Annotation(w.n.role); ok {
		out.Namespace = ns
	} else {
		return nil, fmt.Errorf("field %q is not available on %s", f.Name, parent)
	}

	supplied := f.ArgumentMap(w.vars)
	for _, arg := range def.Arguments.All() {
		raw, present := supplied[arg.Name]
		if !present || !arg.Namespace.Visible(w.n.role) {
			continue
		}
		v, err := w.inputValue(arg.Type, raw)
		if err != nil {
			return nil, fmt.Errorf("argument %q of %s.%s: %w", arg.Name, parent, f.Name, err)
		}
		out.Arguments = append(out.Arguments, &InputField{Name: arg.Name, Annotation: arg.Annotation, Value: v})
	}

	if len(f.SelectionSet) > 0 {
		children, err := w.selectionSet(def.Type.BaseName(), f.SelectionSet)
		if err != nil {
			return nil, err
		}
		out.SelectionSet = children
	}
	return out, nil
}

func (w *walker) lookup(parent, name string) (*schema.Field, bool) {
	if parent == schema.QueryTypeName {
		return w.n.schema.RootField(name)
	}
	obj, ok := w.n.schema.Object(parent)
	if !ok {
		return nil, false
	}
	return obj.Field(name)
}

// inputValue converts a coerced argument value, descending into input
// objects and lists so nested fields keep their annotations.
func (w *walker) inputValue(t metadata.TypeRef, raw any) (*InputValue, error) {
	if raw == nil {
		return &InputValue{Value: ir.Null{}}, nil
	}
	if t.IsList() {
		items, ok := raw.([]any)
		if !ok {
			// A single value is coerced to a one-element list.
			items = []any{raw}
		}
		v, err := ir.FromGo(items)
		if err != nil {
			return nil, err
		}
		out := &InputValue{Value: v}
		for i, item := range items {
			elem, err := w.inputValue(*t.Elem, item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out.List = append(out.List, elem)
		}
		return out, nil
	}

	v, err := ir.FromGo(raw)
	if err != nil {
		return nil, err
	}
	out := &InputValue{Value: v}
	obj, ok := w.n.schema.InputObject(t.Name)
	if !ok {
		return out, nil
	}
	fields, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected an object for %s, got %T", t.Name, raw)
	}
	for _, f := range obj.Fields.All() {
		fraw, present := fields[f.Name]
		if !present || !f.Namespace.Visible(w.n.role) {
			continue
		}
		fv, err := w.inputValue(f.Type, fraw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		out.Object = append(out.Object, &InputField{Name: f.Name, Annotation: f.Annotation, Value: fv})
	}
	return out, nil
}
