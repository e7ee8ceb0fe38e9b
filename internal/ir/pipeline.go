package ir

import "fmt"

// Pipeline selects the IR dialect a request compiles to.
//
// There are exactly two dialects. Code that depends on the dialect must
// branch through SwitchPipeline rather than comparing values directly, so
// adding a dialect changes SwitchPipeline's signature and breaks every call
// site at compile time.
type Pipeline int

const (
	// PipelineLegacy produces connector-column IR (package plan).
	PipelineLegacy Pipeline = iota + 1
	// PipelineStructured produces connector-agnostic IR (package queryir).
	PipelineStructured
)

// String returns the flag spelling of the pipeline.
func (p Pipeline) String() string {
	switch p {
	case PipelineLegacy:
		return "legacy"
	case PipelineStructured:
		return "structured"
	default:
		return fmt.Sprintf("pipeline(%d)", int(p))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Pipeline) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ParsePipeline parses "legacy" or "structured".
func ParsePipeline(s string) (Pipeline, error) {
	switch s {
	case "legacy":
		return PipelineLegacy, nil
	case "structured":
		return PipelineStructured, nil
	default:
		return 0, fmt.Errorf("unknown pipeline %q: must be legacy or structured", s)
	}
}

// SwitchPipeline runs the branch for p. A zero or out-of-range Pipeline is an
// error, never a silent default.
func SwitchPipeline[T any](p Pipeline, legacy func() (T, error), structured func() (T, error)) (T, error) {
	switch p {
	case PipelineLegacy:
		return legacy()
	case PipelineStructured:
		return structured()
	default:
		var zero T
		return zero, fmt.Errorf("unsupported pipeline %s", p)
	}
}
