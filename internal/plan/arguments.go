package plan

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/fieldir/internal/ir"
)

// ArgumentValue is the value of a connector argument.
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

// BooleanExpressionArgument is a predicate passed to the connector as an
// argument value.
type BooleanExpressionArgument struct {
	Predicate Expression
}

func (BooleanExpressionArgument) argumentValue() {}

// MarshalJSON implements json.Marshaler.
func (a BooleanExpressionArgument) MarshalJSON() ([]byte, error) {
	return tagged("boolean_expression", struct {
		Predicate Expression `json:"predicate"`
	}{a.Predicate})
}

// Arguments is an insertion-ordered map of connector argument names to
// values. The zero value is empty and ready to use.
type Arguments struct {
	names  []string
	values map[string]ArgumentValue
}

// Insert adds name. It reports false and leaves the map unchanged if name is
// already present.
func (a *Arguments) Insert(name string, v ArgumentValue) bool {
	if _, exists := a.values[name]; exists {
		return false
	}
	a.set(name, v)
	return true
}

// Override sets name, replacing any existing value in place. It reports
// whether a value was replaced.
func (a *Arguments) Override(name string, v ArgumentValue) bool {
	_, exists := a.values[name]
	a.set(name, v)
	return exists
}

func (a *Arguments) set(name string, v ArgumentValue) {
	if a.values == nil {
		a.values = make(map[string]ArgumentValue)
	}
	if _, exists := a.values[name]; !exists {
		a.names = append(a.names, name)
	}
	a.values[name] = v
}

// Get returns the value for name.
func (a Arguments) Get(name string) (ArgumentValue, bool) {
	v, ok := a.values[name]
	return v, ok
}

// Len returns the number of arguments.
func (a Arguments) Len() int {
	return len(a.names)
}

// Names returns argument names in insertion order.
func (a Arguments) Names() []string {
	return append([]string(nil), a.names...)
}

// Clone returns an independent copy.
func (a Arguments) Clone() Arguments {
	var c Arguments
	for _, name := range a.names {
		c.set(name, a.values[name])
	}
	return c
}

// MarshalJSON writes an object in insertion order.
func (a Arguments) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range a.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(a.values[name])
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", name, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
