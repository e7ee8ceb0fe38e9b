package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/fieldir/internal/metadata"
)

// CompileMetadata builds Metadata from a CUE value with top-level "types"
// and "models" structs. Uses the CUE Go API directly.
//
//	ctx := cuecontext.New()
//	md, err := CompileMetadata(ctx.CompileString(src))
//
// Declaration order of models is preserved in Metadata.ModelOrder. The
// result is not validated for cross references; see Validate.
func CompileMetadata(v cue.Value) (*metadata.Metadata, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	md := &metadata.Metadata{
		ObjectTypes: make(map[metadata.TypeName]*metadata.ObjectType),
		Models:      make(map[metadata.ModelName]*metadata.Model),
	}

	typesVal := v.LookupPath(cue.ParsePath("types"))
	if typesVal.Exists() {
		iter, err := typesVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			t, err := compileObjectType(iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			md.ObjectTypes[t.Name] = t
		}
	}

	modelsVal := v.LookupPath(cue.ParsePath("models"))
	if !modelsVal.Exists() {
		return nil, &CompileError{
			Field:   "models",
			Message: "at least one model is required",
			Pos:     v.Pos(),
		}
	}
	iter, err := modelsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		m, err := compileModel(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		md.Models[m.Name] = m
		md.ModelOrder = append(md.ModelOrder, m.Name)
	}
	if len(md.ModelOrder) == 0 {
		return nil, &CompileError{
			Field:   "models",
			Message: "at least one model is required",
			Pos:     modelsVal.Pos(),
		}
	}

	return md, nil
}

// compileObjectType parses one entry of "types".
//
//	User: {
//		graphql_type_name: "User"
//		fields: { id: "Int!", email: { type: "String", description: "..." } }
//		relationships: posts: { target: "Posts", type: "array", mapping: [{ source: "id", target: "author_id" }] }
//	}
func compileObjectType(name string, v cue.Value) (*metadata.ObjectType, error) {
	t := &metadata.ObjectType{
		Name:            metadata.TypeName(name),
		GraphQLTypeName: name,
	}
	prefix := "types." + name

	gqlName, ok, err := optionalString(v, "graphql_type_name")
	if err != nil {
		return nil, err
	}
	if ok {
		t.GraphQLTypeName = gqlName
	}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, &CompileError{
			Field:   prefix + ".fields",
			Message: "object type fields are required",
			Pos:     v.Pos(),
		}
	}
	iter, err := fieldsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		typ, desc, err := typedEntry(prefix+".fields."+iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		t.Fields = append(t.Fields, metadata.ObjectField{Name: iter.Label(), Type: typ, Description: desc})
	}

	relsVal := v.LookupPath(cue.ParsePath("relationships"))
	if relsVal.Exists() {
		iter, err := relsVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		t.Relationships = make(map[string]*metadata.Relationship)
		for iter.Next() {
			rel, err := compileRelationship(prefix+".relationships."+iter.Label(), iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			t.Relationships[rel.Name] = rel
		}
	}

	return t, nil
}

func compileRelationship(field, name string, v cue.Value) (*metadata.Relationship, error) {
	target, err := requiredString(v, "target", field)
	if err != nil {
		return nil, err
	}
	rel := &metadata.Relationship{
		Name:   name,
		Target: metadata.ModelName(target),
		Type:   metadata.RelationshipObject,
	}

	kind, ok, err := optionalString(v, "type")
	if err != nil {
		return nil, err
	}
	if ok {
		switch metadata.RelationshipType(kind) {
		case metadata.RelationshipObject, metadata.RelationshipArray:
			rel.Type = metadata.RelationshipType(kind)
		default:
			return nil, &CompileError{
				Field:   field + ".type",
				Message: fmt.Sprintf("relationship type must be %q or %q, got %q", metadata.RelationshipObject, metadata.RelationshipArray, kind),
				Pos:     v.Pos(),
			}
		}
	}

	mappingVal := v.LookupPath(cue.ParsePath("mapping"))
	if !mappingVal.Exists() {
		return nil, &CompileError{
			Field:   field + ".mapping",
			Message: "relationship mapping is required",
			Pos:     v.Pos(),
		}
	}
	iter, err := mappingVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		m := iter.Value()
		source, err := requiredString(m, "source", field+".mapping")
		if err != nil {
			return nil, err
		}
		targetField, err := requiredString(m, "target", field+".mapping")
		if err != nil {
			return nil, err
		}
		rel.Mapping = append(rel.Mapping, metadata.RelationshipMapping{SourceField: source, TargetField: targetField})
	}
	return rel, nil
}

// typedEntry parses a field or argument declared either as a type string
// or as { type, description }.
func typedEntry(field string, v cue.Value) (metadata.TypeRef, string, error) {
	var typeStr, desc string
	switch v.IncompleteKind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return metadata.TypeRef{}, "", formatCUEError(err)
		}
		typeStr = s
	case cue.StructKind:
		s, err := requiredString(v, "type", field)
		if err != nil {
			return metadata.TypeRef{}, "", err
		}
		typeStr = s
		if desc, _, err = optionalString(v, "description"); err != nil {
			return metadata.TypeRef{}, "", err
		}
	default:
		return metadata.TypeRef{}, "", &CompileError{
			Field:   field,
			Message: "must be a type string or { type, description }",
			Pos:     v.Pos(),
		}
	}

	t, err := metadata.ParseTypeRef(typeStr)
	if err != nil {
		return metadata.TypeRef{}, "", &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
	}
	return t, desc, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}

func optionalString(v cue.Value, path string) (string, bool, error) {
	val := v.LookupPath(cue.ParsePath(path))
	if !val.Exists() {
		return "", false, nil
	}
	s, err := val.String()
	if err != nil {
		return "", false, formatCUEError(err)
	}
	return s, true, nil
}

func requiredString(v cue.Value, path, field string) (string, error) {
	s, ok, err := optionalString(v, path)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &CompileError{
			Field:   field + "." + path,
			Message: path + " is required",
			Pos:     v.Pos(),
		}
	}
	return s, nil
}

func stringList(v cue.Value, path string) ([]string, error) {
	val := v.LookupPath(cue.ParsePath(path))
	if !val.Exists() {
		return nil, nil
	}
	iter, err := val.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

func stringMap(v cue.Value, path string) (map[string]string, error) {
	val := v.LookupPath(cue.ParsePath(path))
	if !val.Exists() {
		return nil, nil
	}
	return stringFields(val)
}

func stringFields(val cue.Value) (map[string]string, error) {
	iter, err := val.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	out := make(map[string]string)
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		// Unquoted keeps "_gt" style labels intact.
		out[iter.Selector().Unquoted()] = s
	}
	return out, nil
}
