package compiler

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/roach88/fieldir/internal/metadata"
)

// Validation error codes (E200-E299)
const (
	// Type errors (E200-E204)
	ErrInvalidGraphQLName   = "E200" // published name is not a GraphQL name
	ErrUnknownDataType      = "E201" // model data_type not declared
	ErrUnknownRelationship  = "E202" // relationship target model not declared
	ErrUnknownMappedField   = "E203" // relationship mapping field not declared
	ErrDuplicateGraphQLType = "E204" // two types publish the same GraphQL name

	// Source errors (E210-E214)
	ErrMissingTypeMapping     = "E210" // source has no mapping for data_type
	ErrUnknownTypeMapping     = "E211" // mapped field not declared on the type
	ErrUnknownArgumentMapping = "E212" // argument mapping for undeclared argument
	ErrEmptyLinkPreset        = "E213" // link preset forwards no headers

	// GraphQL errors (E220-E226)
	ErrDuplicateRootField      = "E220" // two root fields share a name
	ErrEmptyUniqueIdentifier   = "E221" // select unique without identifier
	ErrUnknownUniqueField      = "E222" // unique identifier field not declared
	ErrUnknownComparableField  = "E223" // filter or order by field not declared
	ErrUnknownFilterRelation   = "E224" // filter relationship not declared
	ErrArgumentsInputNoArgs    = "E225" // arguments input type on a model without arguments
	ErrFilterWithoutSelectMany = "E226" // where/order_by configured without select_many

	// Permission errors (E230-E233)
	ErrUnknownPresetArgument = "E230" // preset for undeclared argument
	ErrDuplicatePreset       = "E231" // argument preset twice for one role
	ErrInvalidPredicate      = "E232" // permission filter references unknown names
	ErrInvalidValueExpr      = "E233" // neither literal nor session variable
)

var graphQLName = regexp.MustCompile(`^[_A-Za-z][_0-9A-Za-z]*$`)

// ValidationError represents a metadata validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks cross references in compiled metadata.
// Returns all errors found (does not fail-fast), in a stable order.
func Validate(md *metadata.Metadata) []ValidationError {
	var errs []ValidationError

	for _, name := range sortedTypeNames(md) {
		errs = append(errs, validateObjectType(md, md.ObjectTypes[name])...)
	}

	published := make(map[string]string)
	publish := func(name, field string) {
		if name == "" {
			return
		}
		if !graphQLName.MatchString(name) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%q is not a valid GraphQL name", name),
				Code:    ErrInvalidGraphQLName,
			})
			return
		}
		if prev, ok := published[name]; ok {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("GraphQL type %q is already published by %s", name, prev),
				Code:    ErrDuplicateGraphQLType,
			})
			return
		}
		published[name] = field
	}
	for _, name := range sortedTypeNames(md) {
		publish(md.ObjectTypes[name].GraphQLTypeName, fmt.Sprintf("types.%s.graphql_type_name", name))
	}

	rootFields := make(map[string]string)
	for _, model := range md.OrderedModels() {
		prefix := "models." + string(model.Name)
		t, ok := md.ObjectType(model.DataType)
		if !ok {
			errs = append(errs, ValidationError{
				Field:   prefix + ".data_type",
				Message: fmt.Sprintf("unknown object type %q", model.DataType),
				Code:    ErrUnknownDataType,
			})
		}

		errs = append(errs, validateSource(model, t)...)
		errs = append(errs, validateGraphQL(model, t, rootFields)...)
		errs = append(errs, validatePermissions(md, model, t)...)

		g := model.GraphQL
		publish(g.ArgumentsInputType, prefix+".graphql.arguments_input_type")
		if g.FilterExpression != nil {
			publish(g.FilterExpression.TypeName, prefix+".graphql.filter_expression.type_name")
		}
		if g.OrderByExpression != nil {
			publish(g.OrderByExpression.TypeName, prefix+".graphql.order_by_expression.type_name")
		}
	}

	return errs
}

func validateObjectType(md *metadata.Metadata, t *metadata.ObjectType) []ValidationError {
	var errs []ValidationError
	prefix := "types." + string(t.Name)

	rels := make([]string, 0, len(t.Relationships))
	for name := range t.Relationships {
		rels = append(rels, name)
	}
	sort.Strings(rels)

	for _, name := range rels {
		rel := t.Relationships[name]
		field := prefix + ".relationships." + name
		target, ok := md.Model(rel.Target)
		if !ok {
			errs = append(errs, ValidationError{
				Field:   field + ".target",
				Message: fmt.Sprintf("unknown model %q", rel.Target),
				Code:    ErrUnknownRelationship,
			})
			continue
		}
		targetType, _ := md.ObjectType(target.DataType)
		for i, m := range rel.Mapping {
			if _, ok := t.Field(m.SourceField); !ok {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.mapping[%d].source", field, i),
					Message: fmt.Sprintf("field %q is not declared on %s", m.SourceField, t.Name),
					Code:    ErrUnknownMappedField,
				})
			}
			if targetType == nil {
				continue
			}
			if _, ok := targetType.Field(m.TargetField); !ok {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.mapping[%d].target", field, i),
					Message: fmt.Sprintf("field %q is not declared on %s", m.TargetField, targetType.Name),
					Code:    ErrUnknownMappedField,
				})
			}
		}
	}
	return errs
}

func validateSource(model *metadata.Model, t *metadata.ObjectType) []ValidationError {
	src := model.Source
	if src == nil {
		return nil
	}
	var errs []ValidationError
	prefix := "models." + string(model.Name) + ".source"

	tm, ok := src.TypeMappings[model.DataType]
	if !ok {
		errs = append(errs, ValidationError{
			Field:   prefix + ".type_mappings",
			Message: fmt.Sprintf("no mapping for data type %q", model.DataType),
			Code:    ErrMissingTypeMapping,
		})
	} else if t != nil {
		for _, field := range sortedKeys(tm.Fields) {
			if _, ok := t.Field(field); !ok {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.type_mappings.%s.%s", prefix, model.DataType, field),
					Message: fmt.Sprintf("field %q is not declared on %s", field, t.Name),
					Code:    ErrUnknownTypeMapping,
				})
			}
		}
	}

	for _, arg := range sortedKeys(src.ArgumentMappings) {
		if _, ok := model.Argument(arg); !ok {
			errs = append(errs, ValidationError{
				Field:   prefix + ".argument_mappings." + arg,
				Message: fmt.Sprintf("model %s has no argument %q", model.Name, arg),
				Code:    ErrUnknownArgumentMapping,
			})
		}
	}

	for i, p := range src.LinkArgumentPresets {
		if len(p.ForwardHeaders) == 0 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.link_argument_presets[%d]", prefix, i),
				Message: fmt.Sprintf("link preset %q forwards no headers", p.Argument),
				Code:    ErrEmptyLinkPreset,
			})
		}
	}
	return errs
}

func validateGraphQL(model *metadata.Model, t *metadata.ObjectType, rootFields map[string]string) []ValidationError {
	var errs []ValidationError
	g := model.GraphQL
	prefix := "models." + string(model.Name) + ".graphql"

	claim := func(name, field string) {
		if !graphQLName.MatchString(name) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%q is not a valid GraphQL name", name),
				Code:    ErrInvalidGraphQLName,
			})
			return
		}
		if prev, ok := rootFields[name]; ok {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("root field %q is already declared by %s", name, prev),
				Code:    ErrDuplicateRootField,
			})
			return
		}
		rootFields[name] = field
	}

	for i, su := range g.SelectUniques {
		field := fmt.Sprintf("%s.select_uniques[%d]", prefix, i)
		claim(su.QueryRootField, field+".query_root_field")
		if len(su.UniqueIdentifier) == 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".unique_identifier",
				Message: "at least one unique identifier field is required",
				Code:    ErrEmptyUniqueIdentifier,
			})
		}
		if t == nil {
			continue
		}
		for _, id := range su.UniqueIdentifier {
			if _, ok := t.Field(id); !ok {
				errs = append(errs, ValidationError{
					Field:   field + ".unique_identifier",
					Message: fmt.Sprintf("field %q is not declared on %s", id, t.Name),
					Code:    ErrUnknownUniqueField,
				})
			}
		}
	}

	if g.SelectMany != nil {
		claim(g.SelectMany.QueryRootField, prefix+".select_many.query_root_field")
	} else if g.FilterExpression != nil || g.OrderByExpression != nil {
		errs = append(errs, ValidationError{
			Field:   prefix,
			Message: "filter_expression and order_by_expression require select_many",
			Code:    ErrFilterWithoutSelectMany,
		})
	}

	if g.ArgumentsInputType != "" && len(model.Arguments) == 0 {
		errs = append(errs, ValidationError{
			Field:   prefix + ".arguments_input_type",
			Message: fmt.Sprintf("model %s declares no arguments", model.Name),
			Code:    ErrArgumentsInputNoArgs,
		})
	}

	if t == nil {
		return errs
	}
	if fe := g.FilterExpression; fe != nil {
		for _, cf := range fe.Fields {
			if _, ok := t.Field(cf.Field); !ok {
				errs = append(errs, ValidationError{
					Field:   prefix + ".filter_expression.fields." + cf.Field,
					Message: fmt.Sprintf("field %q is not declared on %s", cf.Field, t.Name),
					Code:    ErrUnknownComparableField,
				})
			}
		}
		for _, rel := range fe.Relationships {
			if _, ok := t.Relationships[rel]; !ok {
				errs = append(errs, ValidationError{
					Field:   prefix + ".filter_expression.relationships",
					Message: fmt.Sprintf("relationship %q is not declared on %s", rel, t.Name),
					Code:    ErrUnknownFilterRelation,
				})
			}
		}
	}
	if ob := g.OrderByExpression; ob != nil {
		for _, f := range ob.Fields {
			if _, ok := t.Field(f); !ok {
				errs = append(errs, ValidationError{
					Field:   prefix + ".order_by_expression.fields",
					Message: fmt.Sprintf("field %q is not declared on %s", f, t.Name),
					Code:    ErrUnknownComparableField,
				})
			}
		}
	}
	return errs
}

func validatePermissions(md *metadata.Metadata, model *metadata.Model, t *metadata.ObjectType) []ValidationError {
	var errs []ValidationError

	roles := make([]string, 0, len(model.Permissions))
	for role := range model.Permissions {
		roles = append(roles, string(role))
	}
	sort.Strings(roles)

	for _, role := range roles {
		perm := model.Permissions[metadata.Role(role)]
		prefix := fmt.Sprintf("models.%s.permissions.%s", model.Name, role)

		seen := make(map[string]bool)
		for _, p := range perm.ArgumentPresets {
			field := prefix + ".argument_presets." + p.Argument
			if _, ok := model.Argument(p.Argument); !ok {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("model %s has no argument %q", model.Name, p.Argument),
					Code:    ErrUnknownPresetArgument,
				})
			}
			if seen[p.Argument] {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("argument %q is preset more than once", p.Argument),
					Code:    ErrDuplicatePreset,
				})
			}
			seen[p.Argument] = true
			errs = append(errs, validateValueExpr(&p.Value, field+".value")...)
		}

		if perm.Filter != nil && t != nil {
			errs = append(errs, validatePredicate(md, t, perm.Filter, prefix+".filter")...)
		}
	}
	return errs
}

func validatePredicate(md *metadata.Metadata, t *metadata.ObjectType, p *metadata.Predicate, field string) []ValidationError {
	var errs []ValidationError
	switch {
	case len(p.And) > 0 || len(p.Or) > 0:
		for i, inner := range append(append([]*metadata.Predicate{}, p.And...), p.Or...) {
			errs = append(errs, validatePredicate(md, t, inner, fmt.Sprintf("%s[%d]", field, i))...)
		}
	case p.Not != nil:
		errs = append(errs, validatePredicate(md, t, p.Not, field+".not")...)
	case p.Relationship != "":
		rel, ok := t.Relationships[p.Relationship]
		if !ok {
			return append(errs, ValidationError{
				Field:   field + ".relationship",
				Message: fmt.Sprintf("relationship %q is not declared on %s", p.Relationship, t.Name),
				Code:    ErrInvalidPredicate,
			})
		}
		if p.Nested == nil {
			return errs
		}
		target, ok := md.Model(rel.Target)
		if !ok {
			return errs
		}
		if targetType, ok := md.ObjectType(target.DataType); ok {
			errs = append(errs, validatePredicate(md, targetType, p.Nested, field+".nested")...)
		}
	case p.Field != "":
		if _, ok := t.Field(p.Field); !ok {
			errs = append(errs, ValidationError{
				Field:   field + ".field",
				Message: fmt.Sprintf("field %q is not declared on %s", p.Field, t.Name),
				Code:    ErrInvalidPredicate,
			})
		}
		if !p.IsNull && p.Value != nil {
			errs = append(errs, validateValueExpr(p.Value, field+".value")...)
		}
	}
	return errs
}

func validateValueExpr(v *metadata.ValueExpression, field string) []ValidationError {
	if v.Literal == nil && v.SessionVariable == "" {
		return []ValidationError{{
			Field:   field,
			Message: "literal or session_variable is required",
			Code:    ErrInvalidValueExpr,
		}}
	}
	return nil
}

func sortedTypeNames(md *metadata.Metadata) []metadata.TypeName {
	names := make([]metadata.TypeName, 0, len(md.ObjectTypes))
	for name := range md.ObjectTypes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
