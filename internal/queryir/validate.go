package queryir

import (
	"fmt"

	"github.com/roach88/fieldir/internal/ir"
)

// ValidationResult contains the portability analysis of a model selection.
//
// A portable selection uses only shapes every downstream planner lowers the
// same way. Non-portable selections still compile; the warnings tell callers
// where a planner may reject or reinterpret them.
type ValidationResult struct {
	// IsPortable is true when Warnings is empty.
	IsPortable bool

	// Warnings lists the non-portable shapes found, in traversal order.
	Warnings []string
}

// Validate walks a model selection and reports non-portable shapes:
//  1. Comparison against a null literal (use IsNull)
//  2. Empty field or relationship names
//  3. Empty Or, which can never match
//  4. Duplicate output aliases in one selection set
//
// Validate is a pure function with no side effects.
func Validate(sel ModelSelection) ValidationResult {
	v := &validator{
		warnings: []string{},
	}
	v.validateSelection(sel)

	return ValidationResult{
		IsPortable: len(v.warnings) == 0,
		Warnings:   v.warnings,
	}
}

type validator struct {
	warnings []string
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validateSelection(sel ModelSelection) {
	if sel.Target.Model == "" {
		v.addWarning("model selection has no target model")
	}
	v.validateExpression(sel.Target.Filter)
	for _, ob := range sel.Target.OrderBy {
		if ob.Operand.FieldName == "" {
			v.addWarning("order_by element has an empty field name")
		}
	}
	v.validateSubSelections(sel.Selection)
}

func (v *validator) validateSubSelections(subs []ObjectSubSelection) {
	seen := make(map[string]bool, len(subs))
	for _, sub := range subs {
		var alias string
		switch s := sub.(type) {
		case FieldSelection:
			alias = s.Alias
			if s.FieldName == "" {
				v.addWarning("field selection %q has an empty field name", s.Alias)
			}
		case RelationshipSelection:
			alias = s.Alias
			if s.Relationship == "" {
				v.addWarning("relationship selection %q has an empty relationship name", s.Alias)
			}
			v.validateSubSelections(s.Selection)
		case TypenameSelection:
			alias = s.Alias
		default:
			v.addWarning("unknown selection type: %T - portability cannot be verified", sub)
			continue
		}
		if seen[alias] {
			v.addWarning("duplicate output alias %q", alias)
		}
		seen[alias] = true
	}
}

// validateExpression recursively validates a filter. A nil filter is valid.
func (v *validator) validateExpression(e BooleanExpression) {
	if e == nil {
		return
	}

	switch expr := e.(type) {
	case And:
		for _, sub := range expr.Expressions {
			v.validateExpression(sub)
		}
	case Or:
		if len(expr.Expressions) == 0 {
			v.addWarning("empty or never matches")
		}
		for _, sub := range expr.Expressions {
			v.validateExpression(sub)
		}
	case Not:
		v.validateExpression(expr.Expression)
	case Comparison:
		if expr.Operand.FieldName == "" {
			v.addWarning("comparison has an empty field name")
		}
		if ir.IsNull(expr.Argument) {
			v.addWarning("field %q compared to null - use is_null", expr.Operand.FieldName)
		}
	case IsNull:
		if expr.Operand.FieldName == "" {
			v.addWarning("is_null has an empty field name")
		}
	case RelationshipPredicate:
		if expr.Relationship == "" {
			v.addWarning("relationship predicate has an empty relationship name")
		}
		v.validateExpression(expr.Predicate)
	default:
		v.addWarning("unknown expression type: %T - portability cannot be verified", e)
	}
}
