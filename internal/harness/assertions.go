package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/fieldir/internal/ir"
	"github.com/roach88/fieldir/internal/metadata"
	"github.com/roach88/fieldir/internal/query"
)

// AssertionError is a failed assertion with enough context to debug it.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Fields   []string // compiled root fields, for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if len(e.Fields) > 0 {
		fmt.Fprintf(&buf, "  Compiled fields: %s\n", strings.Join(e.Fields, ", "))
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion against op and returns the
// messages of the failed ones, in assertion order.
func EvaluateAssertions(op *query.CompiledOperation, assertions []Assertion) []string {
	var failures []string
	for _, a := range assertions {
		if err := evaluate(op, a); err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

func evaluate(op *query.CompiledOperation, a Assertion) error {
	switch a.Type {
	case AssertRootField:
		return assertRootField(op, a)
	case AssertModelCount:
		return assertModelCount(op, a)
	case AssertFieldCount:
		return assertFieldCount(op, a)
	case AssertIRContains:
		return assertIRContains(op, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

func assertRootField(op *query.CompiledOperation, a Assertion) error {
	for _, f := range op.Fields {
		if f.FieldName != a.Field {
			continue
		}
		if a.Kind != "" && f.Kind.String() != a.Kind {
			return &AssertionError{
				Type:     AssertRootField,
				Expected: fmt.Sprintf("%s is %s", a.Field, a.Kind),
				Actual:   fmt.Sprintf("%s is %s", a.Field, f.Kind),
			}
		}
		if a.Model != "" && string(f.Model) != a.Model {
			return &AssertionError{
				Type:     AssertRootField,
				Expected: fmt.Sprintf("%s selects model %s", a.Field, a.Model),
				Actual:   fmt.Sprintf("%s selects model %s", a.Field, f.Model),
			}
		}
		return nil
	}
	return &AssertionError{
		Type:     AssertRootField,
		Expected: fmt.Sprintf("root field %s", a.Field),
		Actual:   "not compiled",
		Fields:   fieldNames(op),
	}
}

func assertModelCount(op *query.CompiledOperation, a Assertion) error {
	got := op.UsageCounts.Model(metadata.ModelName(a.Model))
	if got != *a.Count {
		return &AssertionError{
			Type:     AssertModelCount,
			Expected: fmt.Sprintf("model %s used %d time(s)", a.Model, *a.Count),
			Actual:   fmt.Sprintf("used %d time(s)", got),
			Fields:   fieldNames(op),
		}
	}
	return nil
}

func assertFieldCount(op *query.CompiledOperation, a Assertion) error {
	if len(op.Fields) != *a.Count {
		return &AssertionError{
			Type:     AssertFieldCount,
			Expected: fmt.Sprintf("%d root field(s)", *a.Count),
			Actual:   fmt.Sprintf("%d root field(s)", len(op.Fields)),
			Fields:   fieldNames(op),
		}
	}
	return nil
}

func assertIRContains(op *query.CompiledOperation, a Assertion) error {
	data, err := ir.CanonicalJSON(op)
	if err != nil {
		return fmt.Errorf("failed to render IR: %w", err)
	}
	if !strings.Contains(string(data), a.Text) {
		return &AssertionError{
			Type:     AssertIRContains,
			Expected: fmt.Sprintf("IR containing %q", a.Text),
			Actual:   "not found",
			Fields:   fieldNames(op),
		}
	}
	return nil
}

func fieldNames(op *query.CompiledOperation) []string {
	names := make([]string, len(op.Fields))
	for i, f := range op.Fields {
		names[i] = f.FieldName
	}
	return names
}
