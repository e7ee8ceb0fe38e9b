// Package permissions applies a role's select permission to a compilation:
// argument presets, link-header presets and the row filter predicate.
package permissions

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/roach88/fieldir/internal/diag"
	"github.com/roach88/fieldir/internal/ir"
	"github.com/roach88/fieldir/internal/metadata"
	"github.com/roach88/fieldir/internal/plan"
	"github.com/roach88/fieldir/internal/queryir"
	"github.com/roach88/fieldir/internal/schema"
	"github.com/roach88/fieldir/internal/session"
)

// ArgumentPresets returns the presets of a role's namespace annotation.
func ArgumentPresets(ns *schema.NamespaceAnnotation) []metadata.ArgumentPreset {
	if ns == nil {
		return nil
	}
	return ns.ArgumentPresets
}

// SelectFilterPredicate returns the row filter of a role's namespace
// annotation, or nil for unrestricted access.
func SelectFilterPredicate(ns *schema.NamespaceAnnotation) *metadata.Predicate {
	if ns == nil {
		return nil
	}
	return ns.Filter
}

// ResolveValueExpression returns a literal as is, or reads and coerces a
// session variable to t. Session variables are strings; Int and Boolean
// types are parsed, list and object types are decoded as JSON.
func ResolveValueExpression(ve metadata.ValueExpression, t metadata.TypeRef, sess *session.Session) (ir.Value, error) {
	if ve.SessionVariable == "" {
		if ve.Literal == nil {
			return ir.Null{}, nil
		}
		return ve.Literal, nil
	}
	raw, ok := sess.Lookup(ve.SessionVariable)
	if !ok {
		return nil, diag.MissingSessionVariable(ve.SessionVariable)
	}
	if t.IsList() {
		return decodeJSON(ve.SessionVariable, raw)
	}
	switch t.Name {
	case "Int":
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, diag.InvalidArgument(ve.SessionVariable, "session variable is not an Int: %q", raw)
		}
		return ir.Int(n), nil
	case "Boolean":
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, diag.InvalidArgument(ve.SessionVariable, "session variable is not a Boolean: %q", raw)
		}
		return ir.Bool(b), nil
	case "String", "ID", "":
		return ir.String(raw), nil
	default:
		if strings.HasPrefix(strings.TrimSpace(raw), "{") {
			return decodeJSON(ve.SessionVariable, raw)
		}
		return ir.String(raw), nil
	}
}

func decodeJSON(name, raw string) (ir.Value, error) {
	var decoded any
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		return nil, diag.InvalidArgument(name, "session variable is not valid JSON: %v", err)
	}
	v, err := ir.FromGo(decoded)
	if err != nil {
		return nil, diag.InvalidArgument(name, "session variable: %v", err)
	}
	return v, nil
}

// Presets are a role's argument presets and a model's link-header presets
// resolved against one request. They are dialect neutral; ApplyLegacy and
// ApplyStructured write them into either IR.
type Presets struct {
	Arguments []ResolvedPreset // role argument presets in declaration order
	Links     []ResolvedPreset // link-header presets
}

// ResolvedPreset is one preset value. Argument is the model argument name
// and Connector the argument name the data connector receives. Link
// presets have no model argument.
type ResolvedPreset struct {
	Argument  string
	Connector string
	Value     ir.Value
}

// ResolveArgumentPresets resolves the role's argument presets and the
// model's link-header presets for the root or relationship field named
// field on typeName.
//
// Two presets that land on the same connector argument are a conflict. A
// model without a source has no argument mappings and no link presets.
func ResolveArgumentPresets(
	model *metadata.Model,
	presets []metadata.ArgumentPreset,
	sess *session.Session,
	headers http.Header,
	field, typeName string,
) (Presets, error) {
	claimed := make(map[string]bool)
	claim := func(name, argument string) error {
		if claimed[name] {
			return diag.ArgumentConflict(argument, field, typeName)
		}
		claimed[name] = true
		return nil
	}

	var out Presets
	for _, p := range presets {
		name := p.Argument
		if model.Source != nil {
			name = model.Source.ConnectorArgument(p.Argument)
		}
		if err := claim(name, p.Argument); err != nil {
			return Presets{}, err
		}
		t := metadata.Named("String")
		if a, ok := model.Argument(p.Argument); ok {
			t = a.Type
		}
		v, err := ResolveValueExpression(p.Value, t, sess)
		if err != nil {
			return Presets{}, err
		}
		out.Arguments = append(out.Arguments, ResolvedPreset{Argument: p.Argument, Connector: name, Value: v})
	}

	if model.Source == nil {
		return out, nil
	}
	for _, link := range model.Source.LinkArgumentPresets {
		if err := claim(link.Argument, link.Argument); err != nil {
			return Presets{}, err
		}
		forwarded := make(ir.Object, len(link.ForwardHeaders))
		for _, h := range link.ForwardHeaders {
			if v := headers.Get(h); v != "" {
				forwarded[strings.ToLower(h)] = ir.String(v)
			}
		}
		out.Links = append(out.Links, ResolvedPreset{Connector: link.Argument, Value: ir.Object{"headers": forwarded}})
	}
	return out, nil
}

// ApplyLegacy writes every preset into args under its connector name.
// Presets replace any client value for the same argument.
func (p Presets) ApplyLegacy(args *plan.Arguments) {
	for _, a := range p.Arguments {
		args.Override(a.Connector, plan.Literal{Value: a.Value})
	}
	for _, l := range p.Links {
		args.Override(l.Connector, plan.Literal{Value: l.Value})
	}
}

// ApplyStructured writes the role argument presets into args under their
// model argument names, replacing client values. Link presets are
// connector arguments and have no structured form.
func (p Presets) ApplyStructured(args map[string]queryir.ArgumentValue) {
	for _, a := range p.Arguments {
		args[a.Argument] = queryir.Literal{Value: a.Value}
	}
}
