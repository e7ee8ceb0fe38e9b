// Package selection compiles the selection set under a model root field into
// each IR dialect.
//
// The query compiler decides which rows to read and hands the rest to a
// Builder: which columns to project, which relationships to follow and how
// to filter the related rows. Resolver is the default Builder.
package selection

import (
	"net/http"

	"github.com/roach88/fieldir/internal/diag"
	"github.com/roach88/fieldir/internal/metadata"
	"github.com/roach88/fieldir/internal/normalized"
	"github.com/roach88/fieldir/internal/permissions"
	"github.com/roach88/fieldir/internal/plan"
	"github.com/roach88/fieldir/internal/queryir"
	"github.com/roach88/fieldir/internal/schema"
	"github.com/roach88/fieldir/internal/session"
	"github.com/roach88/fieldir/internal/usage"
)

// Builder compiles a selection set. Implementations record every model
// they reach in counts.
type Builder interface {
	Legacy(req LegacyRequest, counts *usage.Counts) (plan.ModelSelection, error)
	Structured(req StructuredRequest, counts *usage.Counts) (queryir.ModelSelection, error)
}

// LegacyRequest carries everything the root compiler resolved for a legacy
// model selection.
type LegacyRequest struct {
	Model     *metadata.Model
	Selection []*normalized.Field

	Session *session.Session
	Headers http.Header

	Arguments        plan.Arguments
	Filter           plan.QueryFilter
	PermissionFilter plan.Expression
	Limit            *uint32
	Offset           *uint32
	OrderBy          []plan.OrderByElement
}

// StructuredRequest carries the resolved target of a structured model
// selection. Session and Headers resolve relationship presets.
type StructuredRequest struct {
	Model     *metadata.Model
	Selection []*normalized.Field

	Session *session.Session
	Headers http.Header

	Target queryir.ModelTarget
}

// Resolver is the default Builder. It projects columns, __typename and
// relationships, recursing into relationship selection sets.
type Resolver struct {
	md *metadata.Metadata
}

var _ Builder = (*Resolver)(nil)

// NewResolver returns a Resolver over md.
func NewResolver(md *metadata.Metadata) *Resolver {
	return &Resolver{md: md}
}

// Legacy builds a connector-column selection. A relationship applies the
// target model's select permission and argument presets for the caller.
func (r *Resolver) Legacy(req LegacyRequest, counts *usage.Counts) (plan.ModelSelection, error) {
	src := req.Model.Source
	if src == nil {
		return plan.ModelSelection{}, diag.Internal("model %q has no source", req.Model.Name)
	}

	fields := make([]plan.Field, 0, len(req.Selection))
	for _, f := range req.Selection {
		field, err := r.legacyField(req, f, counts)
		if err != nil {
			return plan.ModelSelection{}, err
		}
		fields = append(fields, field)
	}

	return plan.ModelSelection{
		DataConnector:    src.DataConnector,
		Collection:       src.Collection,
		Arguments:        req.Arguments,
		Filter:           req.Filter,
		PermissionFilter: req.PermissionFilter,
		Limit:            req.Limit,
		Offset:           req.Offset,
		OrderBy:          req.OrderBy,
		Fields:           fields,
	}, nil
}

func (r *Resolver) legacyField(req LegacyRequest, f *normalized.Field, counts *usage.Counts) (plan.Field, error) {
	if f.Name == normalized.TypenameField {
		return plan.TypenameField{Alias: f.Alias, TypeName: f.ParentType}, nil
	}

	switch ann := f.Annotation.(type) {
	case schema.ColumnFieldAnnotation:
		column, err := columnOf(req.Model, ann.Field)
		if err != nil {
			return nil, err
		}
		return plan.ColumnField{Alias: f.Alias, Column: column}, nil

	case schema.RelationshipFieldAnnotation:
		rel := ann.Relationship
		target, err := r.target(rel)
		if err != nil {
			return nil, err
		}
		counts.CountModel(target.Name)

		mapping, err := columnMapping(req.Model, target, rel)
		if err != nil {
			return nil, err
		}
		permissionFilter, err := permissions.PermissionFilter(r.md, target, permissions.SelectFilterPredicate(f.Namespace), req.Session, counts)
		if err != nil {
			return nil, err
		}
		presets, err := permissions.ResolveArgumentPresets(target, permissions.ArgumentPresets(f.Namespace), req.Session, req.Headers, f.Name, f.ParentType)
		if err != nil {
			return nil, err
		}
		var args plan.Arguments
		presets.ApplyLegacy(&args)

		nested, err := r.Legacy(LegacyRequest{
			Model:            target,
			Selection:        f.SelectionSet,
			Session:          req.Session,
			Headers:          req.Headers,
			Arguments:        args,
			PermissionFilter: permissionFilter,
		}, counts)
		if err != nil {
			return nil, err
		}
		return plan.RelationshipField{
			Alias:        f.Alias,
			Relationship: rel.Name,
			Array:        rel.Type == metadata.RelationshipArray,
			Mapping:      mapping,
			Query:        nested,
		}, nil

	default:
		return nil, diag.UnexpectedAnnotation(f.Annotation, f.Name)
	}
}

// Structured builds a connector-agnostic selection around req.Target.
func (r *Resolver) Structured(req StructuredRequest, counts *usage.Counts) (queryir.ModelSelection, error) {
	sel, err := r.structuredFields(req.Selection, req.Session, req.Headers, counts)
	if err != nil {
		return queryir.ModelSelection{}, err
	}
	return queryir.ModelSelection{Target: req.Target, Selection: sel}, nil
}

func (r *Resolver) structuredFields(
	fields []*normalized.Field,
	sess *session.Session,
	headers http.Header,
	counts *usage.Counts,
) ([]queryir.ObjectSubSelection, error) {
	out := make([]queryir.ObjectSubSelection, 0, len(fields))
	for _, f := range fields {
		if f.Name == normalized.TypenameField {
			out = append(out, queryir.TypenameSelection{Alias: f.Alias, TypeName: f.ParentType})
			continue
		}
		switch ann := f.Annotation.(type) {
		case schema.ColumnFieldAnnotation:
			out = append(out, queryir.FieldSelection{Alias: f.Alias, FieldName: ann.Field})
		case schema.RelationshipFieldAnnotation:
			target, err := r.target(ann.Relationship)
			if err != nil {
				return nil, err
			}
			counts.CountModel(target.Name)
			presets, err := permissions.ResolveArgumentPresets(target, permissions.ArgumentPresets(f.Namespace), sess, headers, f.Name, f.ParentType)
			if err != nil {
				return nil, err
			}
			nested, err := r.structuredFields(f.SelectionSet, sess, headers, counts)
			if err != nil {
				return nil, err
			}
			rs := queryir.RelationshipSelection{
				Alias:        f.Alias,
				Relationship: ann.Relationship.Name,
				Target:       target.Name,
				Selection:    nested,
			}
			if len(presets.Arguments) > 0 {
				rs.Arguments = make(map[string]queryir.ArgumentValue, len(presets.Arguments))
				presets.ApplyStructured(rs.Arguments)
			}
			out = append(out, rs)
		default:
			return nil, diag.UnexpectedAnnotation(f.Annotation, f.Name)
		}
	}
	return out, nil
}

func (r *Resolver) target(rel *metadata.Relationship) (*metadata.Model, error) {
	target, ok := r.md.Model(rel.Target)
	if !ok {
		return nil, diag.Internal("relationship %q targets unknown model %q", rel.Name, rel.Target)
	}
	return target, nil
}

func columnOf(model *metadata.Model, field string) (string, error) {
	if model.Source == nil {
		return "", diag.Internal("model %q has no source", model.Name)
	}
	fm, ok := model.Source.FieldMapping(model.DataType, field)
	if !ok {
		return "", &diag.Error{
			Kind:     diag.KindMissingMapping,
			Message:  "field has no column mapping",
			Field:    field,
			TypeName: string(model.DataType),
		}
	}
	return fm.Column, nil
}

// columnMapping lowers a relationship's field mapping to connector columns
// on both sides.
func columnMapping(source, target *metadata.Model, rel *metadata.Relationship) ([]plan.ColumnMapping, error) {
	out := make([]plan.ColumnMapping, 0, len(rel.Mapping))
	for _, m := range rel.Mapping {
		src, err := columnOf(source, m.SourceField)
		if err != nil {
			return nil, err
		}
		dst, err := columnOf(target, m.TargetField)
		if err != nil {
			return nil, err
		}
		out = append(out, plan.ColumnMapping{Source: src, Target: dst})
	}
	return out, nil
}
