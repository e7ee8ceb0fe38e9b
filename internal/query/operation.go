package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/fieldir/internal/ir"
	"github.com/roach88/fieldir/internal/metadata"
	"github.com/roach88/fieldir/internal/normalized"
	"github.com/roach88/fieldir/internal/selection"
	"github.com/roach88/fieldir/internal/session"
	"github.com/roach88/fieldir/internal/usage"
)

// DefaultMaxConcurrency bounds how many root fields compile at once.
const DefaultMaxConcurrency = 4

// RequestIDGenerator generates request ids for compiled operations.
// Implemented by UUIDv7Generator (production) and the generators in
// testutil (tests).
type RequestIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-ordered UUIDv7 request ids.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FieldError attributes a compilation failure to a root field.
type FieldError struct {
	Alias string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Alias, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// OperationRequest is one normalized operation plus the context it is
// compiled under.
type OperationRequest struct {
	Operation *normalized.Operation
	Pipeline  ir.Pipeline
	Session   *session.Session
	Headers   http.Header
}

// CompiledOperation is the IR of every root field of an operation.
type CompiledOperation struct {
	RequestID     string            `json:"request_id"`
	OperationName string            `json:"operation_name,omitempty"`
	Pipeline      ir.Pipeline       `json:"pipeline"`
	Fields        []*ModelSelection `json:"fields"`

	// UsageCounts is the sum of the fields' counts.
	UsageCounts *usage.Counts `json:"usage_counts"`

	// Fingerprint hashes the pipeline and fields. It does not depend on
	// the request id.
	Fingerprint string `json:"fingerprint"`

	IRVersion       string `json:"ir_version"`
	CompilerVersion string `json:"compiler_version"`
}

// Compiler compiles operations. It is safe for concurrent use.
type Compiler struct {
	md             *metadata.Metadata
	selections     selection.Builder
	logger         *slog.Logger
	maxConcurrency int
	ids            RequestIDGenerator
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) {
		c.logger = l
	}
}

// WithSelectionBuilder replaces the default selection.Resolver.
func WithSelectionBuilder(b selection.Builder) Option {
	return func(c *Compiler) {
		c.selections = b
	}
}

// WithMaxConcurrency bounds concurrent root field compilation. Use 1 for
// strictly sequential compilation; n <= 0 removes the bound.
//
// Default: DefaultMaxConcurrency
func WithMaxConcurrency(n int) Option {
	return func(c *Compiler) {
		c.maxConcurrency = n
	}
}

// WithRequestIDGenerator sets the request id source. Default: UUIDv7Generator.
func WithRequestIDGenerator(g RequestIDGenerator) Option {
	return func(c *Compiler) {
		c.ids = g
	}
}

// NewCompiler returns a Compiler over md.
func NewCompiler(md *metadata.Metadata, opts ...Option) *Compiler {
	c := &Compiler{
		md:             md,
		logger:         slog.Default(),
		maxConcurrency: DefaultMaxConcurrency,
		ids:            UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.selections == nil {
		c.selections = selection.NewResolver(md)
	}
	return c
}

// Compile compiles every root field of req.Operation.
//
// Root fields compile concurrently, each against its own usage counter;
// the counters are merged in field order. When several fields fail, the
// error of the first failing field in document order is returned, wrapped
// in a *FieldError. No partial result is ever returned.
func (c *Compiler) Compile(ctx context.Context, req OperationRequest) (*CompiledOperation, error) {
	if req.Operation == nil {
		return nil, errors.New("no operation to compile")
	}
	requestID := c.ids.Generate()
	logger := c.logger.With("request_id", requestID)
	fields := NewFieldCompiler(c.md, c.selections)
	fr := FieldRequest{Pipeline: req.Pipeline, Session: req.Session, Headers: req.Headers}

	roots := req.Operation.RootFields
	results := make([]*ModelSelection, len(roots))
	errs := make([]error, len(roots))

	var g errgroup.Group
	if c.maxConcurrency > 0 {
		g.SetLimit(c.maxConcurrency)
	}
	for i, f := range roots {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			sel, err := fields.Compile(f, fr, usage.New())
			if err != nil {
				errs[i] = &FieldError{Alias: f.Alias, Err: err}
				return nil
			}
			results[i] = sel
			logger.Debug("compiled field",
				"field", f.Alias,
				"model", sel.Model,
				"pipeline", req.Pipeline.String())
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			logger.Error("compile operation", "operation", req.Operation.Name, "error", err)
			return nil, err
		}
	}

	merged := usage.New()
	for _, sel := range results {
		merged.Merge(sel.UsageCounts)
	}

	fingerprint, err := ir.Fingerprint(ir.DomainOperation, struct {
		Pipeline ir.Pipeline       `json:"pipeline"`
		Fields   []*ModelSelection `json:"fields"`
	}{req.Pipeline, results})
	if err != nil {
		return nil, err
	}

	logger.Info("compiled operation",
		"operation", req.Operation.Name,
		"fields", len(results),
		"models_used", merged.ModelNames())

	return &CompiledOperation{
		RequestID:       requestID,
		OperationName:   req.Operation.Name,
		Pipeline:        req.Pipeline,
		Fields:          results,
		UsageCounts:     merged,
		Fingerprint:     fingerprint,
		IRVersion:       ir.IRVersion,
		CompilerVersion: ir.CompilerVersion,
	}, nil
}
