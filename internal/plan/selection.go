package plan

// OrderDirection is Asc or Desc.
type OrderDirection string

const (
	Asc  OrderDirection = "asc"
	Desc OrderDirection = "desc"
)

// OrderByElement orders by one column.
type OrderByElement struct {
	Target    ComparisonTarget `json:"target"`
	Direction OrderDirection   `json:"direction"`
}

// ModelSelection is the legacy IR for reading rows from a collection.
//
// Filter holds what the request asked for; PermissionFilter is the caller
// role's select predicate and is always applied on top of it.
type ModelSelection struct {
	DataConnector    string           `json:"data_connector"`
	Collection       string           `json:"collection"`
	Arguments        Arguments        `json:"arguments"`
	Filter           QueryFilter      `json:"filter"`
	PermissionFilter Expression       `json:"permission_filter"`
	Limit            *uint32          `json:"limit"`
	Offset           *uint32          `json:"offset"`
	OrderBy          []OrderByElement `json:"order_by"`
	Fields           []Field          `json:"fields"`
}

// Predicate returns every filter the connector must apply, or nil.
func (s ModelSelection) Predicate() Expression {
	return MkAnd(s.Filter.Combined(), s.PermissionFilter)
}

// Field is one projected output field.
type Field interface {
	field() // seals the interface to this package
}

// ColumnField outputs a column under Alias.
type ColumnField struct {
	Alias  string
	Column string
}

func (ColumnField) field() {}

// MarshalJSON implements json.Marshaler.
func (f ColumnField) MarshalJSON() ([]byte, error) {
	return tagged("column", struct {
		Alias  string `json:"alias"`
		Column string `json:"column"`
	}{f.Alias, f.Column})
}

// ColumnMapping joins a source column to a target column.
type ColumnMapping struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// RelationshipField outputs related rows under Alias. Array relationships
// yield a list, object relationships at most one row.
type RelationshipField struct {
	Alias        string
	Relationship string
	Array        bool
	Mapping      []ColumnMapping
	Query        ModelSelection
}

func (RelationshipField) field() {}

// MarshalJSON implements json.Marshaler.
func (f RelationshipField) MarshalJSON() ([]byte, error) {
	return tagged("relationship", struct {
		Alias        string          `json:"alias"`
		Relationship string          `json:"relationship"`
		Array        bool            `json:"array"`
		Mapping      []ColumnMapping `json:"mapping"`
		Query        ModelSelection  `json:"query"`
	}{f.Alias, f.Relationship, f.Array, f.Mapping, f.Query})
}

// TypenameField outputs a constant type name under Alias.
type TypenameField struct {
	Alias    string
	TypeName string
}

func (TypenameField) field() {}

// MarshalJSON implements json.Marshaler.
func (f TypenameField) MarshalJSON() ([]byte, error) {
	return tagged("typename", struct {
		Alias    string `json:"alias"`
		TypeName string `json:"type_name"`
	}{f.Alias, f.TypeName})
}
