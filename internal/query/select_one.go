package query

import (
	"github.com/roach88/fieldir/internal/filter"
	"github.com/roach88/fieldir/internal/ir"
	"github.com/roach88/fieldir/internal/normalized"
	"github.com/roach88/fieldir/internal/plan"
	"github.com/roach88/fieldir/internal/queryir"
	"github.com/roach88/fieldir/internal/schema"
	"github.com/roach88/fieldir/internal/selection"
	"github.com/roach88/fieldir/internal/usage"
)

// SelectOne compiles a select-one root field. The only row filter is the
// conjunction of its unique identifier equalities; there is never a
// client where, order_by, limit or offset.
func (c *FieldCompiler) SelectOne(field *normalized.Field, req FieldRequest, counts *usage.Counts) (*ModelSelection, error) {
	model, err := c.model(field)
	if err != nil {
		return nil, err
	}
	classified, err := ClassifySelectOne(field)
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
			permissionFilter, err := c.permissionFilter(model, field, req, counts)
			if err != nil {
				return nil, err
			}
			p, err := c.selections.Legacy(selection.LegacyRequest{
				Model:            model,
				Selection:        field.SelectionSet,
				Session:          req.Session,
				Headers:          req.Headers,
				Arguments:        args,
				Filter:           plan.QueryFilter{AdditionalFilter: filter.ColumnUniqueFilter(classified.UniqueIdentifiers)},
				PermissionFilter: permissionFilter,
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
			q, err := c.selections.Structured(selection.StructuredRequest{
				Model:     model,
				Selection: field.SelectionSet,
				Session:   req.Session,
				Headers:   req.Headers,
				Target: queryir.ModelTarget{
					Model:     model.Name,
					Arguments: args,
					Filter:    filter.StructuredUniqueFilter(classified.UniqueIdentifiers),
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
	return result(field, schema.SelectOne, model, sel, counts), nil
}
