package plan

import (
	"encoding/json"

	"github.com/roach88/fieldir/internal/ir"
)

// Expression is a predicate over connector columns.
type Expression interface {
	expression() // seals the interface to this package
}

// And is true when every expression is true.
type And struct {
	Expressions []Expression
}

func (And) expression() {}

// MarshalJSON implements json.Marshaler.
func (e And) MarshalJSON() ([]byte, error) {
	return tagged("and", struct {
		Expressions []Expression `json:"expressions"`
	}{e.Expressions})
}

// Or is true when any expression is true. An empty Or is false.
type Or struct {
	Expressions []Expression
}

func (Or) expression() {}

// MarshalJSON implements json.Marshaler.
func (e Or) MarshalJSON() ([]byte, error) {
	return tagged("or", struct {
		Expressions []Expression `json:"expressions"`
	}{e.Expressions})
}

// Not negates an expression.
type Not struct {
	Expression Expression
}

func (Not) expression() {}

// MarshalJSON implements json.Marshaler.
func (e Not) MarshalJSON() ([]byte, error) {
	return tagged("not", struct {
		Expression Expression `json:"expression"`
	}{e.Expression})
}

// ComparisonTarget is a connector column, optionally drilling into nested
// object fields.
type ComparisonTarget struct {
	Name      string   `json:"name"`
	FieldPath []string `json:"field_path,omitempty"`
}

// BinaryComparison compares a column with a literal using a connector
// operator (e.g. "_eq", "=").
type BinaryComparison struct {
	Column   ComparisonTarget
	Operator string
	Value    ir.Value
}

func (BinaryComparison) expression() {}

// MarshalJSON implements json.Marshaler.
func (e BinaryComparison) MarshalJSON() ([]byte, error) {
	return tagged("binary_comparison", struct {
		Column   ComparisonTarget `json:"column"`
		Operator string           `json:"operator"`
		Value    ir.Value         `json:"value"`
	}{e.Column, e.Operator, e.Value})
}

// UnaryOperator is a comparison with no value.
type UnaryOperator string

const UnaryIsNull UnaryOperator = "is_null"

// UnaryComparison applies a unary operator to a column.
type UnaryComparison struct {
	Column   ComparisonTarget
	Operator UnaryOperator
}

func (UnaryComparison) expression() {}

// MarshalJSON implements json.Marshaler.
func (e UnaryComparison) MarshalJSON() ([]byte, error) {
	return tagged("unary_comparison", struct {
		Column   ComparisonTarget `json:"column"`
		Operator UnaryOperator    `json:"operator"`
	}{e.Column, e.Operator})
}

// RelationshipExists is true when a related row in Collection satisfies
// Predicate. A nil Predicate only requires a related row to exist.
type RelationshipExists struct {
	Relationship string
	Collection   string
	Predicate    Expression
}

func (RelationshipExists) expression() {}

// MarshalJSON implements json.Marshaler.
func (e RelationshipExists) MarshalJSON() ([]byte, error) {
	return tagged("exists", struct {
		Relationship string     `json:"relationship"`
		Collection   string     `json:"collection"`
		Predicate    Expression `json:"predicate"`
	}{e.Relationship, e.Collection, e.Predicate})
}

// MkAnd conjoins expressions. Nil entries are dropped and nested Ands are
// flattened. It returns nil for no expressions and the expression itself for
// exactly one.
func MkAnd(exprs ...Expression) Expression {
	var flat []Expression
	for _, e := range exprs {
		switch v := e.(type) {
		case nil:
		case And:
			if sub := MkAnd(v.Expressions...); sub != nil {
				if and, ok := sub.(And); ok {
					flat = append(flat, and.Expressions...)
				} else {
					flat = append(flat, sub)
				}
			}
		default:
			flat = append(flat, e)
		}
	}
	switch len(flat) {
	case 0:
		return nil
	case 1:
		return flat[0]
	default:
		return And{Expressions: flat}
	}
}

// QueryFilter separates the client's where clause from filters the compiler
// adds on its own (unique identifier lookups).
type QueryFilter struct {
	WhereClause      Expression `json:"where_clause"`
	AdditionalFilter Expression `json:"additional_filter"`
}

// Combined returns the conjunction of both parts, or nil.
func (f QueryFilter) Combined() Expression {
	return MkAnd(f.WhereClause, f.AdditionalFilter)
}

// tagged marshals body and prepends a "type" discriminator.
func tagged(kind string, body any) ([]byte, error) {
	inner, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	prefix := []byte(`{"type":"` + kind + `"`)
	if len(inner) <= 2 {
		return append(prefix, '}'), nil
	}
	return append(append(prefix, ','), inner[1:]...), nil
}
