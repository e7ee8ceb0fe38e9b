package metadata

import (
	"github.com/roach88/fieldir/internal/ir"
)

// ModelName identifies a model.
type ModelName string

// CommandName identifies a command.
type CommandName string

// TypeName identifies an object type.
type TypeName string

// Role is the caller role a permission record is keyed by.
type Role string

// Metadata is the resolved, immutable description of every model and object
// type in a project. It is built once and shared read-only by schema builds
// and request compilations.
type Metadata struct {
	ObjectTypes map[TypeName]*ObjectType
	Models      map[ModelName]*Model

	// ModelOrder preserves declaration order for deterministic schema builds.
	ModelOrder []ModelName
}

// Model returns the model with the given name.
func (m *Metadata) Model(name ModelName) (*Model, bool) {
	model, ok := m.Models[name]
	return model, ok
}

// ObjectType returns the object type with the given name.
func (m *Metadata) ObjectType(name TypeName) (*ObjectType, bool) {
	t, ok := m.ObjectTypes[name]
	return t, ok
}

// ModelByFilterType returns the model whose where input type is name.
// Arguments typed this way take a boolean expression over that model.
func (m *Metadata) ModelByFilterType(name string) (*Model, bool) {
	for _, modelName := range m.ModelOrder {
		model := m.Models[modelName]
		if fe := model.GraphQL.FilterExpression; fe != nil && fe.TypeName == name {
			return model, true
		}
	}
	return nil, false
}

// OrderedModels returns models in declaration order.
func (m *Metadata) OrderedModels() []*Model {
	models := make([]*Model, 0, len(m.ModelOrder))
	for _, name := range m.ModelOrder {
		models = append(models, m.Models[name])
	}
	return models
}

// ObjectType is a named output shape with scalar fields and relationships.
type ObjectType struct {
	Name TypeName `json:"name"`

	// GraphQLTypeName is the published type name. Defaults to Name.
	GraphQLTypeName string `json:"graphql_type_name"`

	Fields        []ObjectField            `json:"fields"`
	Relationships map[string]*Relationship `json:"relationships,omitempty"`
}

// Field returns the field with the given name.
func (t *ObjectType) Field(name string) (ObjectField, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return ObjectField{}, false
}

// ObjectField is a scalar field of an object type.
type ObjectField struct {
	Name        string  `json:"name"`
	Type        TypeRef `json:"type"`
	Description string  `json:"description,omitempty"`
}

// RelationshipType is either "object" (zero or one target row) or "array".
type RelationshipType string

const (
	RelationshipObject RelationshipType = "object"
	RelationshipArray  RelationshipType = "array"
)

// Relationship links a source object type to a target model.
type Relationship struct {
	Name    string                `json:"name"`
	Target  ModelName             `json:"target"`
	Type    RelationshipType      `json:"type"`
	Mapping []RelationshipMapping `json:"mapping"`
}

// RelationshipMapping equates a source field with a target field.
type RelationshipMapping struct {
	SourceField string `json:"source_field"`
	TargetField string `json:"target_field"`
}

// Model is a queryable entity backed by a data connector collection.
type Model struct {
	Name        ModelName  `json:"name"`
	DataType    TypeName   `json:"data_type"`
	Description string     `json:"description,omitempty"`
	Arguments   []Argument `json:"arguments,omitempty"`

	// Source is nil for models that are declared but not yet connected.
	Source *ModelSource `json:"source,omitempty"`

	GraphQL     ModelGraphQL               `json:"graphql"`
	Permissions map[Role]*SelectPermission `json:"permissions,omitempty"`
}

// Argument returns the declared argument with the given name.
func (m *Model) Argument(name string) (Argument, bool) {
	for _, a := range m.Arguments {
		if a.Name == name {
			return a, true
		}
	}
	return Argument{}, false
}

// Argument is a declared model argument.
type Argument struct {
	Name        string  `json:"name"`
	Type        TypeRef `json:"type"`
	Description string  `json:"description,omitempty"`
}

// ModelSource describes where a model's rows come from and how OpenDD names
// map onto connector names.
type ModelSource struct {
	DataConnector string `json:"data_connector"`
	Collection    string `json:"collection"`

	// TypeMappings maps object type names to field mappings.
	TypeMappings map[TypeName]*TypeMapping `json:"type_mappings"`

	// ArgumentMappings maps model argument names to connector argument
	// names. Arguments without an entry keep their name.
	ArgumentMappings map[string]string `json:"argument_mappings,omitempty"`

	// LinkArgumentPresets are connector arguments filled from request
	// headers on every request.
	LinkArgumentPresets []LinkArgumentPreset `json:"link_argument_presets,omitempty"`
}

// ConnectorArgument returns the connector-side name of a model argument.
func (s *ModelSource) ConnectorArgument(name string) string {
	if mapped, ok := s.ArgumentMappings[name]; ok {
		return mapped
	}
	return name
}

// FieldMapping returns the column mapping for a field of an object type.
func (s *ModelSource) FieldMapping(typeName TypeName, field string) (*FieldMapping, bool) {
	tm, ok := s.TypeMappings[typeName]
	if !ok {
		return nil, false
	}
	fm, ok := tm.Fields[field]
	return fm, ok
}

// TypeMapping maps the fields of one object type onto connector columns.
type TypeMapping struct {
	Fields map[string]*FieldMapping `json:"fields"`
}

// FieldMapping is the connector column backing a field.
type FieldMapping struct {
	Column string `json:"column"`

	// EqualOperator is the connector's equality operator for the column.
	// Empty when the column is not comparable for equality.
	EqualOperator string `json:"equal_operator,omitempty"`
}

// UniqueColumn is the column plus equality operator used by unique
// identifier lookups.
type UniqueColumn struct {
	Column        string `json:"column"`
	EqualOperator string `json:"equal_operator"`
}

// LinkArgumentPreset fills a connector argument with an object of forwarded
// request headers.
type LinkArgumentPreset struct {
	Argument       string   `json:"argument"`
	ForwardHeaders []string `json:"forward_headers"`
}

// ModelGraphQL is the GraphQL API configuration of a model.
type ModelGraphQL struct {
	SelectUniques      []SelectUnique     `json:"select_uniques,omitempty"`
	SelectMany         *SelectMany        `json:"select_many,omitempty"`
	ArgumentsInputType string             `json:"arguments_input_type,omitempty"`
	FilterExpression   *FilterExpression  `json:"filter_expression,omitempty"`
	OrderByExpression  *OrderByExpression `json:"order_by_expression,omitempty"`
	LimitField         string             `json:"limit_field,omitempty"`
	OffsetField        string             `json:"offset_field,omitempty"`
}

// SelectUnique publishes a select-one root field keyed by unique fields.
type SelectUnique struct {
	QueryRootField   string   `json:"query_root_field"`
	UniqueIdentifier []string `json:"unique_identifier"`
	Description      string   `json:"description,omitempty"`
	Deprecated       *string  `json:"deprecated,omitempty"`
}

// SelectMany publishes a select-many root field.
type SelectMany struct {
	QueryRootField string  `json:"query_root_field"`
	Description    string  `json:"description,omitempty"`
	Deprecated     *string `json:"deprecated,omitempty"`
}

// FilterExpression configures the where argument.
type FilterExpression struct {
	TypeName  string `json:"type_name"`
	FieldName string `json:"field_name"`

	// Fields maps comparable field names to their operators.
	Fields []ComparableField `json:"fields"`

	// Relationships lists relationships that may appear in a where clause.
	Relationships []string `json:"relationships,omitempty"`
}

// ComparableField is a field that may be compared in a where clause.
type ComparableField struct {
	Field string `json:"field"`

	// Operators maps GraphQL operator names (e.g. "_gt") to connector
	// operator names. "_eq" always maps to the field's EqualOperator.
	Operators map[string]string `json:"operators"`
}

// OrderByExpression configures the order_by argument.
type OrderByExpression struct {
	TypeName  string   `json:"type_name"`
	FieldName string   `json:"field_name"`
	Fields    []string `json:"fields"`
}

// SelectPermission is what a role may select from a model.
type SelectPermission struct {
	// Filter restricts visible rows. Nil means all rows.
	Filter *Predicate `json:"filter,omitempty"`

	ArgumentPresets []ArgumentPreset `json:"argument_presets,omitempty"`
}

// ArgumentPreset forces a model argument to a server-side value.
type ArgumentPreset struct {
	Argument string          `json:"argument"`
	Value    ValueExpression `json:"value"`
}

// ValueExpression is either a literal or a session variable reference.
type ValueExpression struct {
	Literal         ir.Value `json:"literal,omitempty"`
	SessionVariable string   `json:"session_variable,omitempty"`
}

// Predicate is a permission filter. Exactly one group of fields is set:
// And, Or, Not, Relationship (with Nested), or Field with Operator and Value
// (IsNull replaces Operator and Value for null checks).
type Predicate struct {
	And []*Predicate `json:"and,omitempty"`
	Or  []*Predicate `json:"or,omitempty"`
	Not *Predicate   `json:"not,omitempty"`

	Relationship string     `json:"relationship,omitempty"`
	Nested       *Predicate `json:"nested,omitempty"`

	Field    string           `json:"field,omitempty"`
	Operator string           `json:"operator,omitempty"`
	Value    *ValueExpression `json:"value,omitempty"`
	IsNull   bool             `json:"is_null,omitempty"`
}
