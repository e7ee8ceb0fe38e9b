package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/fieldir/internal/compiler"
	"github.com/roach88/fieldir/internal/diag"
	"github.com/roach88/fieldir/internal/ir"
	"github.com/roach88/fieldir/internal/metadata"
	"github.com/roach88/fieldir/internal/normalized"
	"github.com/roach88/fieldir/internal/query"
	"github.com/roach88/fieldir/internal/schema"
	"github.com/roach88/fieldir/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Query          string // query file path
	Session        string // session YAML path
	Variables      string // variables JSON path
	Role           string // overrides the session file role
	Pipeline       string // "legacy" | "structured"
	Operation      string // operation name
	Output         string // output file path
	Record         string // operation log database path
	MaxConcurrency int
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <project-dir>",
		Short: "Compile a GraphQL query to model selection IR",
		Long: `Compile the model root fields of a GraphQL query to IR.

The query is validated against the schema visible to the caller's role,
then every root field is compiled to the chosen pipeline: legacy
(connector columns, permission filters and argument presets applied) or
structured (connector agnostic). Output is JSON.

With --record the compiled operation is appended to a SQLite operation
log that the history command reads.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "GraphQL query file (required)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session YAML file (role, variables, headers)")
	cmd.Flags().StringVar(&opts.Variables, "variables", "", "GraphQL variables JSON file")
	cmd.Flags().StringVar(&opts.Role, "role", "", "caller role (overrides the session file)")
	cmd.Flags().StringVar(&opts.Pipeline, "pipeline", "legacy", "IR pipeline (legacy|structured)")
	cmd.Flags().StringVar(&opts.Operation, "operation", "", "operation name when the document has several")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVar(&opts.Record, "record", "", "append the compiled operation to this SQLite log")
	cmd.Flags().IntVar(&opts.MaxConcurrency, "max-concurrency", query.DefaultMaxConcurrency, "root fields compiled in parallel (0 = unbounded)")
	_ = cmd.MarkFlagRequired("query")

	return cmd
}

func runCompile(opts *CompileOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	pipeline, err := ir.ParsePipeline(opts.Pipeline)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidFlag, err.Error(), nil)
	}

	req, err := readRequest(opts)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeReadFailed, err.Error(), nil)
	}
	rc, err := NewRequestContext(req.session, opts.Role)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidFlag, err.Error(), nil)
	}

	loaded, err := LoadMetadata(dir)
	if err != nil {
		return loadFailure(formatter, err)
	}
	md := loaded.Metadata
	formatter.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, dir)

	if errs := compiler.Validate(md); len(errs) > 0 {
		return formatter.Fail(ExitFailure, errs[0].Code,
			fmt.Sprintf("invalid metadata (%d error(s)): %s", len(errs), errs[0].Error()), errs)
	}

	s, err := schema.Build(md)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeSchemaFailed, err.Error(), nil)
	}
	n, err := normalized.NewNormalizer(s, rc.Session.Role)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeSchemaFailed, err.Error(), nil)
	}
	op, err := n.Normalize(normalized.Request{
		Query:         req.query,
		OperationName: opts.Operation,
		Variables:     req.variables,
	})
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeQueryInvalid, err.Error(), nil)
	}
	formatter.VerboseLog("Normalized %d root field(s) for role %s", len(op.RootFields), rc.Session.Role)

	c := query.NewCompiler(md,
		query.WithLogger(newLogger(opts.RootOptions, cmd)),
		query.WithMaxConcurrency(opts.MaxConcurrency),
	)
	out, err := c.Compile(cmd.Context(), query.OperationRequest{
		Operation: op,
		Pipeline:  pipeline,
		Session:   rc.Session,
		Headers:   rc.Headers,
	})
	if err != nil {
		return outputFieldError(formatter, err)
	}

	if opts.Output != "" {
		if err := writeIRToFile(out, opts.Output); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	if opts.Record != "" {
		inserted, err := recordOperation(cmd, opts.Record, rc.Session.Role, out)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeRecordFailed, fmt.Sprintf("recording operation: %v", err), nil)
		}
		formatter.VerboseLog("Recorded %s in %s (inserted=%t)", out.RequestID, opts.Record, inserted)
	}

	return outputCompileSuccess(formatter, out, opts.Output)
}

func recordOperation(cmd *cobra.Command, path string, role metadata.Role, out *query.CompiledOperation) (bool, error) {
	st, err := store.Open(path)
	if err != nil {
		return false, err
	}
	defer st.Close()
	return st.Record(cmd.Context(), role, out)
}

type compileRequest struct {
	query     string
	session   *SessionFile
	variables map[string]any
}

func readRequest(opts *CompileOptions) (*compileRequest, error) {
	q, err := os.ReadFile(opts.Query)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	req := &compileRequest{query: string(q)}

	if opts.Session != "" {
		if req.session, err = LoadSessionFile(opts.Session); err != nil {
			return nil, err
		}
	}
	if opts.Variables != "" {
		if req.variables, err = LoadVariables(opts.Variables); err != nil {
			return nil, err
		}
	}
	return req, nil
}

// newLogger writes compiler logs to stderr; Info and Debug only with --verbose.
func newLogger(opts *RootOptions, cmd *cobra.Command) *slog.Logger {
	logLevel := slog.LevelWarn
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: logLevel}))
}

// outputFieldError reports a failed root field with its diagnostic kind.
func outputFieldError(formatter *OutputFormatter, err error) error {
	details := map[string]any{}
	var fe *query.FieldError
	if errors.As(err, &fe) {
		details["field"] = fe.Alias
	}
	var de *diag.Error
	if errors.As(err, &de) {
		details["kind"] = string(de.Kind)
	}
	return formatter.Fail(ExitFailure, ErrCodeFieldFailed, err.Error(), details)
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, out *query.CompiledOperation, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.encode(CLIResponse{Status: "ok", Data: out, RequestID: out.RequestID})
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d root field(s) to %s IR\n\n", len(out.Fields), out.Pipeline)
	for _, f := range out.Fields {
		fmt.Fprintf(formatter.Writer, "  %s: %s %s\n", f.FieldName, f.Kind, f.Model)
	}
	fmt.Fprintln(formatter.Writer)

	fmt.Fprintln(formatter.Writer, "Models used:")
	for _, name := range out.UsageCounts.ModelNames() {
		fmt.Fprintf(formatter.Writer, "  %s: %d\n", name, out.UsageCounts.Model(name))
	}
	fmt.Fprintf(formatter.Writer, "\nFingerprint: %s\n", out.Fingerprint)

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote IR to %s\n", outputFile)
	}
	return nil
}

// writeIRToFile writes the compiled operation as indented JSON.
// Canonical JSON without indentation is used only for fingerprints.
func writeIRToFile(out *query.CompiledOperation, filename string) error {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling IR: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
