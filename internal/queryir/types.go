package queryir

import (
	"encoding/json"

	"github.com/roach88/fieldir/internal/ir"
	"github.com/roach88/fieldir/internal/metadata"
)

// BooleanExpression is a predicate over the fields of a model.
type BooleanExpression interface {
	booleanExpression() // seals the interface to this package
}

// And is true when every expression is true. An empty And is true.
type And struct {
	Expressions []BooleanExpression
}

func (And) booleanExpression() {}

// MarshalJSON implements json.Marshaler.
func (e And) MarshalJSON() ([]byte, error) {
	return tagged("and", struct {
		Expressions []BooleanExpression `json:"expressions"`
	}{e.Expressions})
}

// Or is true when any expression is true. An empty Or is false.
type Or struct {
	Expressions []BooleanExpression
}

func (Or) booleanExpression() {}

// MarshalJSON implements json.Marshaler.
func (e Or) MarshalJSON() ([]byte, error) {
	return tagged("or", struct {
		Expressions []BooleanExpression `json:"expressions"`
	}{e.Expressions})
}

// Not negates an expression.
type Not struct {
	Expression BooleanExpression
}

func (Not) booleanExpression() {}

// MarshalJSON implements json.Marshaler.
func (e Not) MarshalJSON() ([]byte, error) {
	return tagged("not", struct {
		Expression BooleanExpression `json:"expression"`
	}{e.Expression})
}

// ComparisonOperator names a comparison. OperatorEquals is the logical
// equality every model field supports; any other value is the GraphQL
// operator name (e.g. "_gt") resolved later by the planner.
type ComparisonOperator string

const (
	OperatorEquals    ComparisonOperator = "equals"
	OperatorNotEquals ComparisonOperator = "not_equals"
)

// FieldOperand references a field of the model by OpenDD name.
type FieldOperand struct {
	FieldName string `json:"field_name"`
}

// Comparison compares a field with a literal.
type Comparison struct {
	Operand  FieldOperand
	Operator ComparisonOperator
	Argument ir.Value
}

func (Comparison) booleanExpression() {}

// MarshalJSON implements json.Marshaler.
func (e Comparison) MarshalJSON() ([]byte, error) {
	return tagged("comparison", struct {
		Operand  FieldOperand       `json:"operand"`
		Operator ComparisonOperator `json:"operator"`
		Argument ir.Value           `json:"argument"`
	}{e.Operand, e.Operator, e.Argument})
}

// IsNull is true when the field is null.
type IsNull struct {
	Operand FieldOperand
}

func (IsNull) booleanExpression() {}

// MarshalJSON implements json.Marshaler.
func (e IsNull) MarshalJSON() ([]byte, error) {
	return tagged("is_null", struct {
		Operand FieldOperand `json:"operand"`
	}{e.Operand})
}

// RelationshipPredicate is true when some related row satisfies Predicate.
// A nil Predicate only requires a related row to exist.
type RelationshipPredicate struct {
	Relationship string
	Predicate    BooleanExpression
}

func (RelationshipPredicate) booleanExpression() {}

// MarshalJSON implements json.Marshaler.
func (e RelationshipPredicate) MarshalJSON() ([]byte, error) {
	return tagged("relationship", struct {
		Relationship string            `json:"relationship"`
		Predicate    BooleanExpression `json:"predicate"`
	}{e.Relationship, e.Predicate})
}

// OrderDirection is Asc or Desc.
type OrderDirection string

const (
	Asc  OrderDirection = "asc"
	Desc OrderDirection = "desc"
)

// OrderByElement orders by one field.
type OrderByElement struct {
	Operand   FieldOperand   `json:"operand"`
	Direction OrderDirection `json:"direction"`
}

// ModelSelection is the structured IR for reading rows of a model.
type ModelSelection struct {
	Target    ModelTarget          `json:"target"`
	Selection []ObjectSubSelection `json:"selection"`
}

// ArgumentValue is the value of a model argument.
type ArgumentValue interface {
	argumentValue() // seals the interface to this package
}

// Literal is a plain value argument.
type Literal struct {
	Value ir.Value
}

func (Literal) argumentValue() {}

// MarshalJSON implements json.Marshaler.
func (a Literal) MarshalJSON() ([]byte, error) {
	return tagged("literal", struct {
		Value ir.Value `json:"value"`
	}{a.Value})
}

// BooleanExpressionArgument is a predicate passed as an argument value.
type BooleanExpressionArgument struct {
	Predicate BooleanExpression
}

func (BooleanExpressionArgument) argumentValue() {}

// MarshalJSON implements json.Marshaler.
func (a BooleanExpressionArgument) MarshalJSON() ([]byte, error) {
	return tagged("boolean_expression", struct {
		Predicate BooleanExpression `json:"predicate"`
	}{a.Predicate})
}

// ModelTarget describes which rows to read. Arguments are keyed by model
// argument name. Nil Limit or Offset means the client supplied none.
type ModelTarget struct {
	Model     metadata.ModelName       `json:"model"`
	Arguments map[string]ArgumentValue `json:"arguments"`
	Filter    BooleanExpression        `json:"filter"`
	OrderBy   []OrderByElement         `json:"order_by"`
	Limit     *uint32                  `json:"limit"`
	Offset    *uint32                  `json:"offset"`
}

// ObjectSubSelection is one requested output field.
type ObjectSubSelection interface {
	subSelection() // seals the interface to this package
}

// FieldSelection outputs a field under Alias.
type FieldSelection struct {
	Alias     string
	FieldName string
}

func (FieldSelection) subSelection() {}

// MarshalJSON implements json.Marshaler.
func (s FieldSelection) MarshalJSON() ([]byte, error) {
	return tagged("field", struct {
		Alias     string `json:"alias"`
		FieldName string `json:"field_name"`
	}{s.Alias, s.FieldName})
}

// RelationshipSelection outputs related rows under Alias. Arguments holds
// the caller's argument presets for Target, keyed by model argument name.
type RelationshipSelection struct {
	Alias        string
	Relationship string
	Target       metadata.ModelName
	Arguments    map[string]ArgumentValue
	Selection    []ObjectSubSelection
}

func (RelationshipSelection) subSelection() {}

// MarshalJSON implements json.Marshaler.
func (s RelationshipSelection) MarshalJSON() ([]byte, error) {
	return tagged("relationship", struct {
		Alias        string                   `json:"alias"`
		Relationship string                   `json:"relationship"`
		Target       metadata.ModelName       `json:"target"`
		Arguments    map[string]ArgumentValue `json:"arguments,omitempty"`
		Selection    []ObjectSubSelection     `json:"selection"`
	}{s.Alias, s.Relationship, s.Target, s.Arguments, s.Selection})
}

// TypenameSelection outputs a constant type name under Alias.
type TypenameSelection struct {
	Alias    string
	TypeName string
}

func (TypenameSelection) subSelection() {}

// MarshalJSON implements json.Marshaler.
func (s TypenameSelection) MarshalJSON() ([]byte, error) {
	return tagged("typename", struct {
		Alias    string `json:"alias"`
		TypeName string `json:"type_name"`
	}{s.Alias, s.TypeName})
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
