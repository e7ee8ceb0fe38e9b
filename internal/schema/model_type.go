package schema

import (
	"github.com/roach88/fieldir/internal/diag"
	"github.com/roach88/fieldir/internal/metadata"
)

// ModelOutputType returns the name of the object type rows of model are
// returned as, building it on first use.
func (b *Builder) ModelOutputType(model *metadata.Model) (string, error) {
	dt, err := b.dataType(model)
	if err != nil {
		return "", err
	}
	return b.object(dt.GraphQLTypeName, func(obj *Object) error {
		for _, f := range dt.Fields {
			obj.Fields = append(obj.Fields, &Field{
				Name:        f.Name,
				Description: f.Description,
				Type:        f.Type,
				Annotation:  ColumnFieldAnnotation{Field: f.Name, Type: f.Type},
			})
		}
		for _, rel := range sortedRelationships(dt) {
			if _, exists := obj.Field(rel.Name); exists {
				return &diag.Error{
					Kind:     diag.KindInternal,
					Message:  "relationship shadows a field",
					Field:    rel.Name,
					TypeName: obj.Name,
				}
			}
			target, err := b.targetModel(rel)
			if err != nil {
				return err
			}
			targetType, err := b.ModelOutputType(target)
			if err != nil {
				return err
			}
			var t metadata.TypeRef
			switch rel.Type {
			case metadata.RelationshipArray:
				t = metadata.NonNullListOf(metadata.NonNullNamed(targetType))
			default:
				t = metadata.Named(targetType)
			}
			obj.Fields = append(obj.Fields, &Field{
				Name:       rel.Name,
				Type:       t,
				Annotation: RelationshipFieldAnnotation{SourceType: dt.Name, Relationship: rel},
				Namespace:  modelNamespace(target),
			})
		}
		return nil
	})
}
