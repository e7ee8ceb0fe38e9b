// Package diag defines the structured error every compilation failure is
// reported with.
package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorizes compilation errors.
type Kind string

const (
	// KindUnexpectedAnnotation means an argument carries schema metadata the
	// compiler does not recognize for that position.
	KindUnexpectedAnnotation Kind = "UNEXPECTED_ANNOTATION"

	// KindMissingMapping means a unique identifier annotation has no
	// connector column. The schema builder emitted a bad annotation.
	KindMissingMapping Kind = "MISSING_MAPPING"

	// KindArgumentConflict means two independently sourced arguments
	// resolved to the same name.
	KindArgumentConflict Kind = "ARGUMENT_CONFLICT"

	// KindInvalidArgument means a supplied value is outside its domain,
	// e.g. a negative limit.
	KindInvalidArgument Kind = "INVALID_ARGUMENT"

	// KindMissingSessionVariable means a preset or permission filter
	// references a session variable the caller does not carry.
	KindMissingSessionVariable Kind = "MISSING_SESSION_VARIABLE"

	// KindInternal is any other internal-consistency failure.
	KindInternal Kind = "INTERNAL"
)

// Error is a compilation failure with enough context to locate its cause.
// Empty context fields are omitted from the message.
type Error struct {
	Kind    Kind
	Message string

	Field      string // field being compiled or built
	Argument   string // argument involved, if any
	TypeName   string // enclosing GraphQL type, if any
	Annotation string // rendering of an unexpected annotation
}

// Error implements the error interface.
func (e *Error) Error() string {
	var ctx []string
	if e.Field != "" {
		ctx = append(ctx, "field="+e.Field)
	}
	if e.Argument != "" {
		ctx = append(ctx, "argument="+e.Argument)
	}
	if e.TypeName != "" {
		ctx = append(ctx, "type="+e.TypeName)
	}
	if e.Annotation != "" {
		ctx = append(ctx, "annotation="+e.Annotation)
	}
	if len(ctx) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, strings.Join(ctx, ", "))
}

// IsKind reports whether err, or any error it wraps, is an *Error of kind.
func IsKind(err error, kind Kind) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}

// UnexpectedAnnotation reports an annotation outside the accepted set.
func UnexpectedAnnotation(annotation any, argument string) *Error {
	return &Error{
		Kind:       KindUnexpectedAnnotation,
		Message:    "unexpected annotation",
		Argument:   argument,
		Annotation: fmt.Sprintf("%T", annotation),
	}
}

// MissingMapping reports a unique identifier argument without its
// connector column.
func MissingMapping(argument, field string) *Error {
	return &Error{
		Kind:     KindMissingMapping,
		Message:  "missing connector column mapping for unique identifier argument",
		Field:    field,
		Argument: argument,
	}
}

// ArgumentConflict reports two arguments resolving to the same name.
func ArgumentConflict(argument, field, typeName string) *Error {
	return &Error{
		Kind:     KindArgumentConflict,
		Message:  "argument name conflict",
		Field:    field,
		Argument: argument,
		TypeName: typeName,
	}
}

// InvalidArgument reports a supplied value outside its domain.
func InvalidArgument(argument, format string, args ...any) *Error {
	return &Error{
		Kind:     KindInvalidArgument,
		Message:  fmt.Sprintf(format, args...),
		Argument: argument,
	}
}

// MissingSessionVariable reports a session variable the caller lacks.
func MissingSessionVariable(name string) *Error {
	return &Error{
		Kind:    KindMissingSessionVariable,
		Message: fmt.Sprintf("session variable %q not found", name),
	}
}

// Internal reports an internal-consistency failure.
func Internal(format string, args ...any) *Error {
	return &Error{
		Kind:    KindInternal,
		Message: fmt.Sprintf(format, args...),
	}
}
