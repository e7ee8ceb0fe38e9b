package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/fieldir/internal/ir"
	"github.com/roach88/fieldir/internal/metadata"
)

// compileModel parses one entry of "models".
func compileModel(name string, v cue.Value) (*metadata.Model, error) {
	prefix := "models." + name
	dataType, err := requiredString(v, "data_type", prefix)
	if err != nil {
		return nil, err
	}
	m := &metadata.Model{
		Name:     metadata.ModelName(name),
		DataType: metadata.TypeName(dataType),
	}
	if m.Description, _, err = optionalString(v, "description"); err != nil {
		return nil, err
	}

	argsVal := v.LookupPath(cue.ParsePath("arguments"))
	if argsVal.Exists() {
		iter, err := argsVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			typ, desc, err := typedEntry(prefix+".arguments."+iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			m.Arguments = append(m.Arguments, metadata.Argument{Name: iter.Label(), Type: typ, Description: desc})
		}
	}

	if src := v.LookupPath(cue.ParsePath("source")); src.Exists() {
		if m.Source, err = compileSource(prefix+".source", src); err != nil {
			return nil, err
		}
	}

	if gql := v.LookupPath(cue.ParsePath("graphql")); gql.Exists() {
		if m.GraphQL, err = compileGraphQL(prefix+".graphql", gql); err != nil {
			return nil, err
		}
	}

	if perms := v.LookupPath(cue.ParsePath("permissions")); perms.Exists() {
		iter, err := perms.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		m.Permissions = make(map[metadata.Role]*metadata.SelectPermission)
		for iter.Next() {
			p, err := compilePermission(prefix+".permissions."+iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			m.Permissions[metadata.Role(iter.Label())] = p
		}
	}

	return m, nil
}

//	source: {
//		data_connector: "db"
//		collection:     "users"
//		type_mappings: User: { id: { column: "user_id", equal_operator: "=" } }
//		argument_mappings: { region: "region_code" }
//		link_argument_presets: [{ argument: "headers", forward_headers: ["x-request-id"] }]
//	}
func compileSource(field string, v cue.Value) (*metadata.ModelSource, error) {
	connector, err := requiredString(v, "data_connector", field)
	if err != nil {
		return nil, err
	}
	collection, err := requiredString(v, "collection", field)
	if err != nil {
		return nil, err
	}
	src := &metadata.ModelSource{
		DataConnector: connector,
		Collection:    collection,
		TypeMappings:  make(map[metadata.TypeName]*metadata.TypeMapping),
	}

	if tms := v.LookupPath(cue.ParsePath("type_mappings")); tms.Exists() {
		iter, err := tms.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			tm, err := compileTypeMapping(field+".type_mappings."+iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			src.TypeMappings[metadata.TypeName(iter.Label())] = tm
		}
	}

	if src.ArgumentMappings, err = stringMap(v, "argument_mappings"); err != nil {
		return nil, err
	}

	if presets := v.LookupPath(cue.ParsePath("link_argument_presets")); presets.Exists() {
		iter, err := presets.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			p := iter.Value()
			arg, err := requiredString(p, "argument", field+".link_argument_presets")
			if err != nil {
				return nil, err
			}
			headers, err := stringList(p, "forward_headers")
			if err != nil {
				return nil, err
			}
			src.LinkArgumentPresets = append(src.LinkArgumentPresets, metadata.LinkArgumentPreset{
				Argument:       arg,
				ForwardHeaders: headers,
			})
		}
	}

	return src, nil
}

// compileTypeMapping accepts a column name or { column, equal_operator }
// per field.
func compileTypeMapping(field string, v cue.Value) (*metadata.TypeMapping, error) {
	tm := &metadata.TypeMapping{Fields: make(map[string]*metadata.FieldMapping)}
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		fv := iter.Value()
		fm := &metadata.FieldMapping{}
		switch fv.IncompleteKind() {
		case cue.StringKind:
			if fm.Column, err = fv.String(); err != nil {
				return nil, formatCUEError(err)
			}
		case cue.StructKind:
			if fm.Column, err = requiredString(fv, "column", field+"."+iter.Label()); err != nil {
				return nil, err
			}
			if fm.EqualOperator, _, err = optionalString(fv, "equal_operator"); err != nil {
				return nil, err
			}
		default:
			return nil, &CompileError{
				Field:   field + "." + iter.Label(),
				Message: "must be a column name or { column, equal_operator }",
				Pos:     fv.Pos(),
			}
		}
		tm.Fields[iter.Label()] = fm
	}
	return tm, nil
}

func compileGraphQL(field string, v cue.Value) (metadata.ModelGraphQL, error) {
	var g metadata.ModelGraphQL
	var err error

	if uniques := v.LookupPath(cue.ParsePath("select_uniques")); uniques.Exists() {
		iter, err := uniques.List()
		if err != nil {
			return g, formatCUEError(err)
		}
		for iter.Next() {
			u := iter.Value()
			rootField, err := requiredString(u, "query_root_field", field+".select_uniques")
			if err != nil {
				return g, err
			}
			ids, err := stringList(u, "unique_identifier")
			if err != nil {
				return g, err
			}
			su := metadata.SelectUnique{QueryRootField: rootField, UniqueIdentifier: ids}
			if su.Description, su.Deprecated, err = docs(u); err != nil {
				return g, err
			}
			g.SelectUniques = append(g.SelectUniques, su)
		}
	}

	if many := v.LookupPath(cue.ParsePath("select_many")); many.Exists() {
		rootField, err := requiredString(many, "query_root_field", field+".select_many")
		if err != nil {
			return g, err
		}
		sm := &metadata.SelectMany{QueryRootField: rootField}
		if sm.Description, sm.Deprecated, err = docs(many); err != nil {
			return g, err
		}
		g.SelectMany = sm
	}

	if g.ArgumentsInputType, _, err = optionalString(v, "arguments_input_type"); err != nil {
		return g, err
	}
	if g.LimitField, _, err = optionalString(v, "limit_field"); err != nil {
		return g, err
	}
	if g.OffsetField, _, err = optionalString(v, "offset_field"); err != nil {
		return g, err
	}

	if fe := v.LookupPath(cue.ParsePath("filter_expression")); fe.Exists() {
		if g.FilterExpression, err = compileFilterExpression(field+".filter_expression", fe); err != nil {
			return g, err
		}
	}

	if ob := v.LookupPath(cue.ParsePath("order_by_expression")); ob.Exists() {
		typeName, err := requiredString(ob, "type_name", field+".order_by_expression")
		if err != nil {
			return g, err
		}
		fieldName, err := requiredString(ob, "field_name", field+".order_by_expression")
		if err != nil {
			return g, err
		}
		fields, err := stringList(ob, "fields")
		if err != nil {
			return g, err
		}
		g.OrderByExpression = &metadata.OrderByExpression{TypeName: typeName, FieldName: fieldName, Fields: fields}
	}

	return g, nil
}

func docs(v cue.Value) (string, *string, error) {
	desc, _, err := optionalString(v, "description")
	if err != nil {
		return "", nil, err
	}
	reason, ok, err := optionalString(v, "deprecated")
	if err != nil || !ok {
		return desc, nil, err
	}
	return desc, &reason, nil
}

// Operator labels start with an underscore and must be quoted in CUE, since
// unquoted "_gt" declares a hidden field.
//
//	filter_expression: {
//		type_name: "User_bool_exp", field_name: "where"
//		fields: { id: { "_gt": ">" }, email: {} }
//		relationships: ["posts"]
//	}
func compileFilterExpression(field string, v cue.Value) (*metadata.FilterExpression, error) {
	typeName, err := requiredString(v, "type_name", field)
	if err != nil {
		return nil, err
	}
	fieldName, err := requiredString(v, "field_name", field)
	if err != nil {
		return nil, err
	}
	fe := &metadata.FilterExpression{TypeName: typeName, FieldName: fieldName}

	if fields := v.LookupPath(cue.ParsePath("fields")); fields.Exists() {
		iter, err := fields.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			ops, err := stringFields(iter.Value())
			if err != nil {
				return nil, err
			}
			if len(ops) == 0 {
				ops = nil
			}
			fe.Fields = append(fe.Fields, metadata.ComparableField{Field: iter.Label(), Operators: ops})
		}
	}

	if fe.Relationships, err = stringList(v, "relationships"); err != nil {
		return nil, err
	}
	return fe, nil
}

//	user: {
//		filter: { field: "tenant_id", operator: "_eq", value: { session_variable: "x-hasura-tenant-id" } }
//		argument_presets: [{ argument: "tenant_id", value: { literal: "acme" } }]
//	}
func compilePermission(field string, v cue.Value) (*metadata.SelectPermission, error) {
	p := &metadata.SelectPermission{}

	if f := v.LookupPath(cue.ParsePath("filter")); f.Exists() {
		pred, err := compilePredicate(field+".filter", f)
		if err != nil {
			return nil, err
		}
		p.Filter = pred
	}

	if presets := v.LookupPath(cue.ParsePath("argument_presets")); presets.Exists() {
		iter, err := presets.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			pv := iter.Value()
			arg, err := requiredString(pv, "argument", field+".argument_presets")
			if err != nil {
				return nil, err
			}
			val := pv.LookupPath(cue.ParsePath("value"))
			if !val.Exists() {
				return nil, &CompileError{
					Field:   field + ".argument_presets." + arg + ".value",
					Message: "value is required",
					Pos:     pv.Pos(),
				}
			}
			expr, err := compileValueExpression(field+".argument_presets."+arg+".value", val)
			if err != nil {
				return nil, err
			}
			p.ArgumentPresets = append(p.ArgumentPresets, metadata.ArgumentPreset{Argument: arg, Value: *expr})
		}
	}

	return p, nil
}

func compilePredicate(field string, v cue.Value) (*metadata.Predicate, error) {
	p := &metadata.Predicate{}
	set := 0

	if and := v.LookupPath(cue.ParsePath("and")); and.Exists() {
		set++
		preds, err := compilePredicateList(field+".and", and)
		if err != nil {
			return nil, err
		}
		p.And = preds
	}
	if or := v.LookupPath(cue.ParsePath("or")); or.Exists() {
		set++
		preds, err := compilePredicateList(field+".or", or)
		if err != nil {
			return nil, err
		}
		p.Or = preds
	}
	if not := v.LookupPath(cue.ParsePath("not")); not.Exists() {
		set++
		inner, err := compilePredicate(field+".not", not)
		if err != nil {
			return nil, err
		}
		p.Not = inner
	}

	rel, ok, err := optionalString(v, "relationship")
	if err != nil {
		return nil, err
	}
	if ok {
		set++
		p.Relationship = rel
		if nested := v.LookupPath(cue.ParsePath("nested")); nested.Exists() {
			if p.Nested, err = compilePredicate(field+".nested", nested); err != nil {
				return nil, err
			}
		}
	}

	fieldName, ok, err := optionalString(v, "field")
	if err != nil {
		return nil, err
	}
	if ok {
		set++
		p.Field = fieldName
		if err := compileComparison(field, v, p); err != nil {
			return nil, err
		}
	}

	if set != 1 {
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("predicate must set exactly one of and, or, not, relationship, field; got %d", set),
			Pos:     v.Pos(),
		}
	}
	return p, nil
}

func compileComparison(field string, v cue.Value, p *metadata.Predicate) error {
	if isNull := v.LookupPath(cue.ParsePath("is_null")); isNull.Exists() {
		b, err := isNull.Bool()
		if err != nil {
			return formatCUEError(err)
		}
		p.IsNull = b
		if b {
			return nil
		}
	}

	op, err := requiredString(v, "operator", field)
	if err != nil {
		return err
	}
	val := v.LookupPath(cue.ParsePath("value"))
	if !val.Exists() {
		return &CompileError{Field: field + ".value", Message: "value is required", Pos: v.Pos()}
	}
	expr, err := compileValueExpression(field+".value", val)
	if err != nil {
		return err
	}
	p.Operator = op
	p.Value = expr
	return nil
}

func compilePredicateList(field string, v cue.Value) ([]*metadata.Predicate, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []*metadata.Predicate
	for i := 0; iter.Next(); i++ {
		p, err := compilePredicate(fmt.Sprintf("%s[%d]", field, i), iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// compileValueExpression parses { literal: <value> } or
// { session_variable: "<name>" }.
func compileValueExpression(field string, v cue.Value) (*metadata.ValueExpression, error) {
	lit := v.LookupPath(cue.ParsePath("literal"))
	sessVar, hasSess, err := optionalString(v, "session_variable")
	if err != nil {
		return nil, err
	}

	switch {
	case lit.Exists() && hasSess:
		return nil, &CompileError{
			Field:   field,
			Message: "set literal or session_variable, not both",
			Pos:     v.Pos(),
		}
	case lit.Exists():
		val, err := cueToValue(field+".literal", lit)
		if err != nil {
			return nil, err
		}
		return &metadata.ValueExpression{Literal: val}, nil
	case hasSess:
		return &metadata.ValueExpression{SessionVariable: sessVar}, nil
	default:
		return nil, &CompileError{
			Field:   field,
			Message: "literal or session_variable is required",
			Pos:     v.Pos(),
		}
	}
}

// cueToValue converts a concrete CUE value to an ir.Value. Floats are
// forbidden; the IR carries integers only.
func cueToValue(field string, v cue.Value) (ir.Value, error) {
	switch v.Kind() {
	case cue.NullKind:
		return ir.Null{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Bool(b), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
		}
		return ir.Int(n), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.String(s), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		arr := ir.Array{}
		for i := 0; iter.Next(); i++ {
			elem, err := cueToValue(fmt.Sprintf("%s[%d]", field, i), iter.Value())
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return arr, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		obj := ir.Object{}
		for iter.Next() {
			elem, err := cueToValue(field+"."+iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			obj[iter.Label()] = elem
		}
		return obj, nil
	case cue.FloatKind:
		return nil, &CompileError{
			Field:   field,
			Message: "float values are forbidden; use an integer or string",
			Pos:     v.Pos(),
		}
	default:
		return nil, &CompileError{
			Field:   field,
			Message: "value must be concrete",
			Pos:     v.Pos(),
		}
	}
}
