package query

import (
	"math"

	"github.com/roach88/fieldir/internal/diag"
	"github.com/roach88/fieldir/internal/filter"
	"github.com/roach88/fieldir/internal/ir"
	"github.com/roach88/fieldir/internal/normalized"
	"github.com/roach88/fieldir/internal/schema"
)

// SelectOneArguments is the classified argument set of a select-one field.
type SelectOneArguments struct {
	// ModelArguments are forwarded to argument value resolution.
	ModelArguments []*normalized.InputField

	// UniqueIdentifiers are the lookup components, in argument order.
	UniqueIdentifiers []filter.UniqueIdentifier
}

// ClassifySelectOne partitions the arguments of a select-one field. Every
// argument is either a model argument or a unique identifier component;
// anything else is UNEXPECTED_ANNOTATION. A unique identifier without its
// connector column is MISSING_MAPPING.
func ClassifySelectOne(field *normalized.Field) (SelectOneArguments, error) {
	var out SelectOneArguments
	for _, arg := range field.Arguments {
		switch ann := arg.Annotation.(type) {
		case schema.ModelArgumentAnnotation:
			out.ModelArguments = append(out.ModelArguments, arg)
		case schema.UniqueIdentifierAnnotation:
			if ann.Column == nil {
				return SelectOneArguments{}, diag.MissingMapping(arg.Name, field.Name)
			}
			out.UniqueIdentifiers = append(out.UniqueIdentifiers, filter.UniqueIdentifier{
				Field:  ann.Field,
				Column: *ann.Column,
				Value:  arg.Value.Value,
			})
		default:
			return SelectOneArguments{}, diag.UnexpectedAnnotation(arg.Annotation, arg.Name)
		}
	}
	return out, nil
}

// SelectManyArguments is the classified argument set of a select-many field.
// Absent and null arguments leave their slot empty.
type SelectManyArguments struct {
	// ModelArguments are the fields of the args input.
	ModelArguments []*normalized.InputField

	Where   *normalized.InputValue
	OrderBy []OrderByField
	Limit   *uint32
	Offset  *uint32
}

// OrderByField is one order_by element: a field and a direction.
type OrderByField struct {
	Field      string
	Descending bool
}

// ClassifySelectMany partitions the arguments of a select-many field and
// checks limit, offset and order_by values.
func ClassifySelectMany(field *normalized.Field) (SelectManyArguments, error) {
	var out SelectManyArguments
	for _, arg := range field.Arguments {
		var err error
		switch arg.Annotation.(type) {
		case schema.LimitAnnotation:
			out.Limit, err = count(arg)
		case schema.OffsetAnnotation:
			out.Offset, err = count(arg)
		case schema.OrderByAnnotation:
			out.OrderBy, err = orderBy(arg)
		case schema.WhereAnnotation:
			if !arg.Value.IsNull() {
				out.Where = arg.Value
			}
		case schema.ArgumentsInputAnnotation:
			if arg.Value.IsNull() {
				continue
			}
			for _, f := range arg.Value.Object {
				if _, ok := f.Annotation.(schema.ModelArgumentAnnotation); !ok {
					return SelectManyArguments{}, diag.UnexpectedAnnotation(f.Annotation, f.Name)
				}
				out.ModelArguments = append(out.ModelArguments, f)
			}
		default:
			err = diag.UnexpectedAnnotation(arg.Annotation, arg.Name)
		}
		if err != nil {
			return SelectManyArguments{}, err
		}
	}
	return out, nil
}

// count reads a limit or offset. Null means unset.
func count(arg *normalized.InputField) (*uint32, error) {
	if arg.Value.IsNull() {
		return nil, nil
	}
	n, ok := arg.Value.Value.(ir.Int)
	if !ok {
		return nil, diag.InvalidArgument(arg.Name, "expected an integer, got %T", arg.Value.Value)
	}
	if n < 0 {
		return nil, diag.InvalidArgument(arg.Name, "must not be negative, got %d", n)
	}
	if n > math.MaxUint32 {
		return nil, diag.InvalidArgument(arg.Name, "must be at most %d, got %d", uint32(math.MaxUint32), n)
	}
	v := uint32(n)
	return &v, nil
}

// orderBy reads a list of single-key order_by objects. Elements whose keys
// are all null are skipped.
func orderBy(arg *normalized.InputField) ([]OrderByField, error) {
	if arg.Value.IsNull() {
		return nil, nil
	}
	var out []OrderByField
	for _, item := range arg.Value.List {
		if item.IsNull() {
			continue
		}
		var set []*normalized.InputField
		for _, f := range item.Object {
			if !f.Value.IsNull() {
				set = append(set, f)
			}
		}
		switch len(set) {
		case 0:
			continue
		case 1:
		default:
			return nil, diag.InvalidArgument(arg.Name, "each element must set exactly one field, got %d", len(set))
		}

		f := set[0]
		ann, ok := f.Annotation.(schema.OrderByFieldAnnotation)
		if !ok {
			return nil, diag.UnexpectedAnnotation(f.Annotation, f.Name)
		}
		var desc bool
		switch f.Value.Value {
		case ir.String(schema.OrderAsc):
		case ir.String(schema.OrderDesc):
			desc = true
		default:
			return nil, diag.InvalidArgument(f.Name, "unknown order direction %v", f.Value.Value)
		}
		out = append(out, OrderByField{Field: ann.Field, Descending: desc})
	}
	return out, nil
}
