package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/roach88/fieldir/internal/diag"
	"github.com/roach88/fieldir/internal/ir"
	"github.com/roach88/fieldir/internal/metadata"
	"github.com/roach88/fieldir/internal/normalized"
	"github.com/roach88/fieldir/internal/query"
	"github.com/roach88/fieldir/internal/schema"
	"github.com/roach88/fieldir/internal/session"
	"github.com/roach88/fieldir/internal/testutil"
)

// Result is the outcome of running a scenario.
type Result struct {
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`

	// Operation is set when compilation succeeded.
	Operation *query.CompiledOperation `json:"operation,omitempty"`

	// Stage and Err describe the failure when the request did not compile.
	Stage string `json:"stage,omitempty"`
	Err   error  `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError records a failed expectation and marks the result as failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

// Harness runs scenarios against one set of metadata. The schema is built
// once and shared; a Harness is safe for concurrent use.
type Harness struct {
	md     *metadata.Metadata
	schema *schema.Schema
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger handed to the compiler. Logs are discarded by
// default.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// New builds the schema of md. md is expected to have passed validation.
func New(md *metadata.Metadata, opts ...Option) (*Harness, error) {
	s, err := schema.Build(md)
	if err != nil {
		return nil, fmt.Errorf("failed to build schema: %w", err)
	}
	h := &Harness{
		md:     md,
		schema: s,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Run executes a scenario and returns the result. A returned error means the
// scenario could not be run at all; failed expectations are in the result.
//
// Execution flow:
//  1. Normalize the query against the schema visible to the role
//  2. Compile every root field with a fixed request id
//  3. Check expect_error, or evaluate the assertions
func (h *Harness) Run(ctx context.Context, sc *Scenario) (*Result, error) {
	pipeline := ir.PipelineLegacy
	if sc.Pipeline != "" {
		p, err := ir.ParsePipeline(sc.Pipeline)
		if err != nil {
			return nil, err
		}
		pipeline = p
	}

	role := metadata.Role(sc.Role)
	n, err := normalized.NewNormalizer(h.schema, role)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	op, err := n.Normalize(normalized.Request{
		Query:         sc.Query,
		OperationName: sc.Operation,
		Variables:     sc.Variables,
	})
	if err != nil {
		result.Stage, result.Err = StageNormalize, err
		checkExpectedError(result, sc.ExpectError)
		return result, nil
	}

	headers := http.Header{}
	for k, v := range sc.Headers {
		headers.Set(k, v)
	}

	c := query.NewCompiler(h.md,
		query.WithLogger(h.logger),
		query.WithRequestIDGenerator(testutil.NewFixedRequestIDGenerator(requestID(sc))),
	)
	out, err := c.Compile(ctx, query.OperationRequest{
		Operation: op,
		Pipeline:  pipeline,
		Session:   session.New(role, sc.Session),
		Headers:   headers,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		result.Stage, result.Err = StageCompile, err
		checkExpectedError(result, sc.ExpectError)
		return result, nil
	}

	result.Operation = out
	if sc.ExpectError != nil {
		result.AddError(fmt.Sprintf("expected %s error, but the operation compiled", sc.ExpectError.Stage))
		return result, nil
	}
	for _, msg := range EvaluateAssertions(out, sc.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// Run builds a Harness for md and runs one scenario.
func Run(ctx context.Context, md *metadata.Metadata, sc *Scenario) (*Result, error) {
	h, err := New(md)
	if err != nil {
		return nil, err
	}
	return h.Run(ctx, sc)
}

func requestID(sc *Scenario) string {
	if sc.RequestID != "" {
		return sc.RequestID
	}
	return "scenario-" + sc.Name
}

// checkExpectedError compares the failure recorded in result against want.
func checkExpectedError(result *Result, want *ExpectError) {
	if want == nil {
		result.AddError(fmt.Sprintf("unexpected %s error: %v", result.Stage, result.Err))
		return
	}
	if want.Stage != result.Stage {
		result.AddError(fmt.Sprintf("expected %s error, got %s error: %v", want.Stage, result.Stage, result.Err))
		return
	}

	if want.Kind != "" {
		var de *diag.Error
		switch {
		case !errors.As(result.Err, &de):
			result.AddError(fmt.Sprintf("expected error kind %s, got unstructured error: %v", want.Kind, result.Err))
		case string(de.Kind) != want.Kind:
			result.AddError(fmt.Sprintf("expected error kind %s, got %s", want.Kind, de.Kind))
		}
	}
	if want.Field != "" {
		var fe *query.FieldError
		switch {
		case !errors.As(result.Err, &fe):
			result.AddError(fmt.Sprintf("expected failing field %q, got error without field: %v", want.Field, result.Err))
		case fe.Alias != want.Field:
			result.AddError(fmt.Sprintf("expected failing field %q, got %q", want.Field, fe.Alias))
		}
	}
	if want.Contains != "" && !strings.Contains(result.Err.Error(), want.Contains) {
		result.AddError(fmt.Sprintf("expected error containing %q, got: %v", want.Contains, result.Err))
	}
}
