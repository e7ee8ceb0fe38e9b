package query

import (
	"github.com/roach88/fieldir/internal/diag"
	"github.com/roach88/fieldir/internal/filter"
	"github.com/roach88/fieldir/internal/ir"
	"github.com/roach88/fieldir/internal/metadata"
	"github.com/roach88/fieldir/internal/normalized"
	"github.com/roach88/fieldir/internal/plan"
	"github.com/roach88/fieldir/internal/queryir"
	"github.com/roach88/fieldir/internal/schema"
	"github.com/roach88/fieldir/internal/selection"
	"github.com/roach88/fieldir/internal/usage"
)

// SelectMany compiles a select-many root field: client where, order_by,
// limit and offset plus the args input.
func (c *FieldCompiler) SelectMany(field *normalized.Field, req FieldRequest, counts *usage.Counts) (*ModelSelection, error) {
	model, err := c.model(field)
	if err != nil {
		return nil, err
	}
	classified, err := ClassifySelectMany(field)
	if err != nil {
		return nil, err
	}
	counts.CountModel(model.Name)
	presets, err := c.presets(model, field, req)
	if err != nil {
		return nil, err
	}

	sel, err := ir.SwitchPipeline(req.Pipeline,
		func() (Selection, error) {
			args, err := c.legacyArguments(model, field, classified.ModelArguments, presets, counts)
			if err != nil {
				return nil, err
			}
			where, err := filter.ColumnWhere(c.md, model, classified.Where, counts)
			if err != nil {
				return nil, err
			}
			permissionFilter, err := c.permissionFilter(model, field, req, counts)
			if err != nil {
				return nil, err
			}
			orderBy, err := columnOrderBy(model, classified.OrderBy)
			if err != nil {
				return nil, err
			}
			p, err := c.selections.Legacy(selection.LegacyRequest{
				Model:            model,
				Selection:        field.SelectionSet,
				Session:          req.Session,
				Headers:          req.Headers,
				Arguments:        args,
				Filter:           plan.QueryFilter{WhereClause: where},
				PermissionFilter: permissionFilter,
				Limit:            classified.Limit,
				Offset:           classified.Offset,
				OrderBy:          orderBy,
			}, counts)
			if err != nil {
				return nil, err
			}
			return LegacySelection{Plan: p}, nil
		},
		func() (Selection, error) {
			args, err := c.structuredArguments(field, classified.ModelArguments, presets, counts)
			if err != nil {
				return nil, err
			}
			where, err := filter.StructuredWhere(c.md, classified.Where, counts)
			if err != nil {
				return nil, err
			}
			q, err := c.selections.Structured(selection.StructuredRequest{
				Model:     model,
				Selection: field.SelectionSet,
				Session:   req.Session,
				Headers:   req.Headers,
				Target: queryir.ModelTarget{
					Model:     model.Name,
					Arguments: args,
					Filter:    where,
					OrderBy:   structuredOrderBy(classified.OrderBy),
					Limit:     classified.Limit,
					Offset:    classified.Offset,
				},
			}, counts)
			if err != nil {
				return nil, err
			}
			return StructuredSelection{Query: q}, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return result(field, schema.SelectMany, model, sel, counts), nil
}

func columnOrderBy(model *metadata.Model, fields []OrderByField) ([]plan.OrderByElement, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	if model.Source == nil {
		return nil, diag.Internal("model %q has no source", model.Name)
	}
	out := make([]plan.OrderByElement, 0, len(fields))
	for _, f := range fields {
		fm, ok := model.Source.FieldMapping(model.DataType, f.Field)
		if !ok {
			return nil, &diag.Error{
				Kind:     diag.KindMissingMapping,
				Message:  "order_by field has no column mapping",
				Field:    f.Field,
				TypeName: string(model.DataType),
			}
		}
		dir := plan.Asc
		if f.Descending {
			dir = plan.Desc
		}
		out = append(out, plan.OrderByElement{Target: plan.ComparisonTarget{Name: fm.Column}, Direction: dir})
	}
	return out, nil
}

func structuredOrderBy(fields []OrderByField) []queryir.OrderByElement {
	if len(fields) == 0 {
		return nil
	}
	out := make([]queryir.OrderByElement, 0, len(fields))
	for _, f := range fields {
		dir := queryir.Asc
		if f.Descending {
			dir = queryir.Desc
		}
		out = append(out, queryir.OrderByElement{Operand: queryir.FieldOperand{FieldName: f.Field}, Direction: dir})
	}
	return out
}
