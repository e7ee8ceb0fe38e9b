package query

import (
	"encoding/json"

	"github.com/roach88/fieldir/internal/metadata"
	"github.com/roach88/fieldir/internal/plan"
	"github.com/roach88/fieldir/internal/queryir"
	"github.com/roach88/fieldir/internal/schema"
	"github.com/roach88/fieldir/internal/usage"
)

// ModelSelection is the compiled IR node of one model root field. It owns
// all of its data; nothing aliases the request or the schema.
type ModelSelection struct {
	// FieldName is the response key: the alias, or the field name.
	FieldName string `json:"field_name"`

	Kind  schema.RootFieldKind `json:"kind"`
	Model metadata.ModelName   `json:"model"`

	Selection Selection        `json:"selection"`
	Type      metadata.TypeRef `json:"type"`

	// UsageCounts are the models and commands this field references.
	UsageCounts *usage.Counts `json:"usage_counts"`
}

// Selection is a model selection in one IR dialect.
type Selection interface {
	selection() // seals the interface to this package
}

// LegacySelection is a connector-column model selection.
type LegacySelection struct {
	Plan plan.ModelSelection
}

func (LegacySelection) selection() {}

// MarshalJSON implements json.Marshaler.
func (s LegacySelection) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Pipeline string              `json:"pipeline"`
		Plan     plan.ModelSelection `json:"plan"`
	}{"legacy", s.Plan})
}

// StructuredSelection is a connector-agnostic model selection.
type StructuredSelection struct {
	Query queryir.ModelSelection
}

func (StructuredSelection) selection() {}

// MarshalJSON implements json.Marshaler.
func (s StructuredSelection) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Pipeline string                 `json:"pipeline"`
		Query    queryir.ModelSelection `json:"query"`
	}{"structured", s.Query})
}
