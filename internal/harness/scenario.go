package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/fieldir/internal/diag"
	"github.com/roach88/fieldir/internal/ir"
)

// Scenario is one request and the outcome it must produce.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	Role      string            `yaml:"role"`
	Session   map[string]string `yaml:"session"`
	Headers   map[string]string `yaml:"headers"`
	Pipeline  string            `yaml:"pipeline"` // "legacy" (default) | "structured"
	RequestID string            `yaml:"request_id"`

	Query     string         `yaml:"query"`
	Operation string         `yaml:"operation"`
	Variables map[string]any `yaml:"variables"`

	ExpectError *ExpectError `yaml:"expect_error"`
	Assertions  []Assertion  `yaml:"assertions"`
}

// Stages a scenario can fail at.
const (
	StageNormalize = "normalize"
	StageCompile   = "compile"
)

// ExpectError describes the failure a scenario must produce.
type ExpectError struct {
	Stage    string `yaml:"stage"`    // StageNormalize | StageCompile
	Kind     string `yaml:"kind"`     // diag.Kind, compile stage only
	Field    string `yaml:"field"`    // failing root field alias, compile stage only
	Contains string `yaml:"contains"` // substring of the error message
}

// Assertion types.
const (
	AssertRootField  = "root_field"
	AssertModelCount = "model_count"
	AssertFieldCount = "field_count"
	AssertIRContains = "ir_contains"
)

// Assertion is a check on a successfully compiled operation.
type Assertion struct {
	Type string `yaml:"type"`

	Field string `yaml:"field,omitempty"` // root_field
	Kind  string `yaml:"kind,omitempty"`  // root_field
	Model string `yaml:"model,omitempty"` // root_field, model_count

	// Count is a pointer so a missing count is distinguishable from zero.
	Count *int `yaml:"count,omitempty"` // model_count, field_count

	Text string `yaml:"text,omitempty"` // ir_contains
}

var knownKinds = map[diag.Kind]bool{
	diag.KindUnexpectedAnnotation:   true,
	diag.KindMissingMapping:         true,
	diag.KindArgumentConflict:       true,
	diag.KindInvalidArgument:        true,
	diag.KindMissingSessionVariable: true,
	diag.KindInternal:               true,
}

// LoadScenario reads and validates a scenario file. Unknown keys are
// rejected. A scenario without a name is named after its file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Name == "" {
		base := filepath.Base(path)
		sc.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if err := ValidateScenario(sc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// ParseScenario decodes a scenario without validating it.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}
	return &sc, nil
}

// ValidateScenario checks required fields and assertion shapes.
func ValidateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Role == "" {
		return fmt.Errorf("role is required")
	}
	if strings.TrimSpace(s.Query) == "" {
		return fmt.Errorf("query is required")
	}
	if s.Pipeline != "" {
		if _, err := ir.ParsePipeline(s.Pipeline); err != nil {
			return err
		}
	}
	if s.ExpectError == nil && len(s.Assertions) == 0 {
		return fmt.Errorf("expect_error or a non-empty assertions list is required")
	}

	if e := s.ExpectError; e != nil {
		switch e.Stage {
		case StageNormalize:
			if e.Kind != "" || e.Field != "" {
				return fmt.Errorf("expect_error: kind and field apply to the compile stage only")
			}
		case StageCompile:
			if e.Kind != "" && !knownKinds[diag.Kind(e.Kind)] {
				return fmt.Errorf("expect_error: unknown kind %q", e.Kind)
			}
		default:
			return fmt.Errorf("expect_error: stage must be %q or %q, got %q", StageNormalize, StageCompile, e.Stage)
		}
		if len(s.Assertions) > 0 {
			return fmt.Errorf("assertions cannot be combined with expect_error")
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertRootField:
		if a.Field == "" {
			return fmt.Errorf("assertions[%d]: field is required for root_field", index)
		}
	case AssertModelCount:
		if a.Model == "" {
			return fmt.Errorf("assertions[%d]: model is required for model_count", index)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for model_count", index)
		}
	case AssertFieldCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for field_count", index)
		}
	case AssertIRContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for ir_contains", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
