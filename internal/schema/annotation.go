package schema

import (
	"github.com/roach88/fieldir/internal/metadata"
)

// Annotation is build-time metadata attached to a field, argument or input
// field. The set is closed; request compilers reject anything they do not
// recognize.
type Annotation interface {
	annotation() // seals the interface to this package
}

// RootFieldKind distinguishes the root field families.
type RootFieldKind int

const (
	SelectOne RootFieldKind = iota + 1
	SelectMany
)

// String returns the snake_case name of the kind.
func (k RootFieldKind) String() string {
	switch k {
	case SelectOne:
		return "select_one"
	case SelectMany:
		return "select_many"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k RootFieldKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// RootFieldAnnotation marks a query root field backed by a model.
type RootFieldAnnotation struct {
	Kind     RootFieldKind
	Model    metadata.ModelName
	DataType metadata.TypeName

	// Source is nil when the model has no data connector.
	Source *metadata.ModelSource
}

// ColumnFieldAnnotation marks a scalar output field of an object type.
type ColumnFieldAnnotation struct {
	Field string
	Type  metadata.TypeRef
}

// RelationshipFieldAnnotation marks an output field that follows a
// relationship.
type RelationshipFieldAnnotation struct {
	SourceType   metadata.TypeName
	Relationship *metadata.Relationship
}

// ModelArgumentAnnotation marks a declared model argument.
type ModelArgumentAnnotation struct {
	Argument string
	Type     metadata.TypeRef
}

// UniqueIdentifierAnnotation marks one component of a select-one lookup.
// Column is nil when the model has no connector mapping for the field.
type UniqueIdentifierAnnotation struct {
	Field  string
	Type   metadata.TypeRef
	Column *metadata.UniqueColumn
}

// ArgumentsInputAnnotation marks the synthesized args wrapper of a
// select-many field.
type ArgumentsInputAnnotation struct{}

// LimitAnnotation marks the limit argument.
type LimitAnnotation struct{}

// OffsetAnnotation marks the offset argument.
type OffsetAnnotation struct{}

// OrderByAnnotation marks the order_by argument.
type OrderByAnnotation struct{}

// WhereAnnotation marks the where argument.
type WhereAnnotation struct{}

// LogicalOperator is a where-clause combinator.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "_and"
	LogicalOr  LogicalOperator = "_or"
	LogicalNot LogicalOperator = "_not"
)

// LogicalOperatorAnnotation marks _and, _or and _not inside a where input.
type LogicalOperatorAnnotation struct {
	Operator LogicalOperator
}

// ComparableFieldAnnotation marks a field inside a where input.
type ComparableFieldAnnotation struct {
	Field string
	Type  metadata.TypeRef
}

// ComparisonOperatorAnnotation marks one operator of a field comparison
// input. IsNull operators take a Boolean and have no connector operator.
type ComparisonOperatorAnnotation struct {
	Operator          string
	ConnectorOperator string
	IsEquality        bool
	IsNull            bool
}

// ComparableRelationshipAnnotation marks a relationship inside a where
// input.
type ComparableRelationshipAnnotation struct {
	Relationship *metadata.Relationship
}

// OrderByFieldAnnotation marks a field inside an order_by input.
type OrderByFieldAnnotation struct {
	Field string
}

func (RootFieldAnnotation) annotation()              {}
func (ColumnFieldAnnotation) annotation()            {}
func (RelationshipFieldAnnotation) annotation()      {}
func (ModelArgumentAnnotation) annotation()          {}
func (UniqueIdentifierAnnotation) annotation()       {}
func (ArgumentsInputAnnotation) annotation()         {}
func (LimitAnnotation) annotation()                  {}
func (OffsetAnnotation) annotation()                 {}
func (OrderByAnnotation) annotation()                {}
func (WhereAnnotation) annotation()                  {}
func (LogicalOperatorAnnotation) annotation()        {}
func (ComparableFieldAnnotation) annotation()        {}
func (ComparisonOperatorAnnotation) annotation()     {}
func (ComparableRelationshipAnnotation) annotation() {}
func (OrderByFieldAnnotation) annotation()           {}
