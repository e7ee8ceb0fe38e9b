package query

import (
	"net/http"

	"github.com/roach88/fieldir/internal/arguments"
	"github.com/roach88/fieldir/internal/diag"
	"github.com/roach88/fieldir/internal/ir"
	"github.com/roach88/fieldir/internal/metadata"
	"github.com/roach88/fieldir/internal/normalized"
	"github.com/roach88/fieldir/internal/permissions"
	"github.com/roach88/fieldir/internal/plan"
	"github.com/roach88/fieldir/internal/queryir"
	"github.com/roach88/fieldir/internal/schema"
	"github.com/roach88/fieldir/internal/selection"
	"github.com/roach88/fieldir/internal/session"
	"github.com/roach88/fieldir/internal/usage"
)

// FieldRequest is the per-request context a root field compiles under.
// Session and Headers are read, never modified.
type FieldRequest struct {
	Pipeline ir.Pipeline
	Session  *session.Session
	Headers  http.Header
}

// FieldCompiler compiles model root fields. It holds no per-request state
// and is safe for concurrent use when its selection Builder is.
type FieldCompiler struct {
	md         *metadata.Metadata
	selections selection.Builder
}

// NewFieldCompiler returns a FieldCompiler that delegates selection sets
// to selections.
func NewFieldCompiler(md *metadata.Metadata, selections selection.Builder) *FieldCompiler {
	return &FieldCompiler{md: md, selections: selections}
}

// Compile compiles a root field according to its root field annotation.
// Every model reached is recorded in counts.
func (c *FieldCompiler) Compile(field *normalized.Field, req FieldRequest, counts *usage.Counts) (*ModelSelection, error) {
	ann, ok := field.Annotation.(schema.RootFieldAnnotation)
	if !ok {
		return nil, diag.UnexpectedAnnotation(field.Annotation, field.Name)
	}
	switch ann.Kind {
	case schema.SelectOne:
		return c.SelectOne(field, req, counts)
	case schema.SelectMany:
		return c.SelectMany(field, req, counts)
	default:
		return nil, diag.Internal("unknown root field kind %s", ann.Kind)
	}
}

func (c *FieldCompiler) model(field *normalized.Field) (*metadata.Model, error) {
	ann, ok := field.Annotation.(schema.RootFieldAnnotation)
	if !ok {
		return nil, diag.UnexpectedAnnotation(field.Annotation, field.Name)
	}
	model, ok := c.md.Model(ann.Model)
	if !ok {
		return nil, diag.Internal("root field %q references unknown model %q", field.Name, ann.Model)
	}
	return model, nil
}

// presets resolves the caller's argument presets for field once, before
// the pipeline is chosen, so both dialects fail or succeed alike.
func (c *FieldCompiler) presets(model *metadata.Model, field *normalized.Field, req FieldRequest) (permissions.Presets, error) {
	return permissions.ResolveArgumentPresets(model, permissions.ArgumentPresets(field.Namespace), req.Session, req.Headers, field.Name, field.ParentType)
}

// legacyArguments resolves the client's model arguments and then applies
// presets, which replace client values.
func (c *FieldCompiler) legacyArguments(
	model *metadata.Model,
	field *normalized.Field,
	args []*normalized.InputField,
	presets permissions.Presets,
	counts *usage.Counts,
) (plan.Arguments, error) {
	var out plan.Arguments
	for _, arg := range args {
		name, v, err := arguments.LegacyValue(c.md, model, arg, counts)
		if err != nil {
			return plan.Arguments{}, err
		}
		if !out.Insert(name, v) {
			return plan.Arguments{}, diag.ArgumentConflict(name, field.Name, field.ParentType)
		}
	}
	presets.ApplyLegacy(&out)
	return out, nil
}

// structuredArguments is legacyArguments keyed by model argument name.
func (c *FieldCompiler) structuredArguments(
	field *normalized.Field,
	args []*normalized.InputField,
	presets permissions.Presets,
	counts *usage.Counts,
) (map[string]queryir.ArgumentValue, error) {
	out := make(map[string]queryir.ArgumentValue, len(args))
	for _, arg := range args {
		name, v, err := arguments.StructuredValue(c.md, arg, counts)
		if err != nil {
			return nil, err
		}
		if _, exists := out[name]; exists {
			return nil, diag.ArgumentConflict(name, field.Name, field.ParentType)
		}
		out[name] = v
	}
	presets.ApplyStructured(out)
	return out, nil
}

func (c *FieldCompiler) permissionFilter(model *metadata.Model, field *normalized.Field, req FieldRequest, counts *usage.Counts) (plan.Expression, error) {
	return permissions.PermissionFilter(c.md, model, permissions.SelectFilterPredicate(field.Namespace), req.Session, counts)
}

func result(field *normalized.Field, kind schema.RootFieldKind, model *metadata.Model, sel Selection, counts *usage.Counts) *ModelSelection {
	return &ModelSelection{
		FieldName:   field.Alias,
		Kind:        kind,
		Model:       model.Name,
		Selection:   sel,
		Type:        field.Type,
		UsageCounts: counts.Clone(),
	}
}
