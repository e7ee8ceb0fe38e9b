package metadata

import (
	"fmt"
	"strings"
)

// TypeRef is a GraphQL-style type reference: a named type or a list, either
// of which may be non-null.
type TypeRef struct {
	Name    string   `json:"name,omitempty"`
	Elem    *TypeRef `json:"elem,omitempty"`
	NonNull bool     `json:"non_null,omitempty"`
}

// Named returns a nullable named type.
func Named(name string) TypeRef {
	return TypeRef{Name: name}
}

// NonNullNamed returns a non-null named type.
func NonNullNamed(name string) TypeRef {
	return TypeRef{Name: name, NonNull: true}
}

// ListOf returns a nullable list of elem.
func ListOf(elem TypeRef) TypeRef {
	return TypeRef{Elem: &elem}
}

// NonNullListOf returns a non-null list of elem.
func NonNullListOf(elem TypeRef) TypeRef {
	return TypeRef{Elem: &elem, NonNull: true}
}

// Nullable returns t with its outermost non-null marker removed.
func (t TypeRef) Nullable() TypeRef {
	t.NonNull = false
	return t
}

// IsList reports whether the outermost type is a list.
func (t TypeRef) IsList() bool {
	return t.Elem != nil
}

// BaseName returns the innermost named type.
func (t TypeRef) BaseName() string {
	for t.Elem != nil {
		t = *t.Elem
	}
	return t.Name
}

// String renders the reference in GraphQL syntax, e.g. "[User!]".
func (t TypeRef) String() string {
	var s string
	if t.Elem != nil {
		s = "[" + t.Elem.String() + "]"
	} else {
		s = t.Name
	}
	if t.NonNull {
		s += "!"
	}
	return s
}

// ParseTypeRef parses GraphQL type syntax such as "Int!", "[String!]" or
// "[[ID]!]".
func ParseTypeRef(s string) (TypeRef, error) {
	t, rest, err := parseTypeRef(strings.TrimSpace(s))
	if err != nil {
		return TypeRef{}, fmt.Errorf("invalid type %q: %w", s, err)
	}
	if strings.TrimSpace(rest) != "" {
		return TypeRef{}, fmt.Errorf("invalid type %q: unexpected %q", s, rest)
	}
	return t, nil
}

func parseTypeRef(s string) (TypeRef, string, error) {
	s = strings.TrimLeft(s, " ")
	if s == "" {
		return TypeRef{}, "", fmt.Errorf("missing type name")
	}

	var t TypeRef
	if s[0] == '[' {
		elem, rest, err := parseTypeRef(s[1:])
		if err != nil {
			return TypeRef{}, "", err
		}
		rest = strings.TrimLeft(rest, " ")
		if rest == "" || rest[0] != ']' {
			return TypeRef{}, "", fmt.Errorf("missing ]")
		}
		t = ListOf(elem)
		s = rest[1:]
	} else {
		end := 0
		for end < len(s) && isNameByte(s[end], end == 0) {
			end++
		}
		if end == 0 {
			return TypeRef{}, "", fmt.Errorf("unexpected %q", s[:1])
		}
		t = Named(s[:end])
		s = s[end:]
	}

	s = strings.TrimLeft(s, " ")
	if strings.HasPrefix(s, "!") {
		t.NonNull = true
		s = s[1:]
	}
	return t, s, nil
}

// isNameByte matches GraphQL names: /[_A-Za-z][_0-9A-Za-z]*/.
func isNameByte(c byte, first bool) bool {
	switch {
	case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return !first
	}
	return false
}
