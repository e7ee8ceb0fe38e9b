package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/fieldir/internal/compiler"
	"github.com/roach88/fieldir/internal/metadata"
	"github.com/roach88/fieldir/internal/schema"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Models   int                        `json:"models"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.CycleWarning    `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <project-dir>",
		Short: "Validate model metadata",
		Long: `Validate the CUE model metadata of a project.

Compiles the metadata, checks every cross reference (types, fields,
relationships, arguments, presets, root field names) and builds the
GraphQL schema. Relationship cycles are reported as warnings.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	result, err := LoadMetadata(dir)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Code == ErrCodeCompileFailed {
			// Malformed metadata is a validation failure, not a command error.
			return outputValidationErrors(formatter, ValidationResult{Errors: []compiler.ValidationError{{
				Field:   loadErr.Field,
				Message: loadErr.Message,
				Code:    loadErr.Code,
				Line:    getLineFromCuePos(loadErr),
			}}})
		}
		return loadFailure(formatter, err)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", result.FileCount, dir)

	vr := validateMetadata(result.Metadata, formatter)
	if !vr.Valid {
		return outputValidationErrors(formatter, vr)
	}
	return outputValidateSuccess(formatter, vr)
}

// validateMetadata runs cross-reference validation and, when that passes,
// a schema build.
func validateMetadata(md *metadata.Metadata, formatter *OutputFormatter) ValidationResult {
	vr := ValidationResult{
		Models:   len(md.ModelOrder),
		Errors:   compiler.Validate(md),
		Warnings: compiler.AnalyzeRelationshipCycles(md),
	}
	for _, name := range md.ModelOrder {
		formatter.VerboseLog("Validated model: %s", name)
	}

	if len(vr.Errors) == 0 {
		if _, err := schema.Build(md); err != nil {
			vr.Errors = append(vr.Errors, compiler.ValidationError{
				Field:   "schema",
				Message: err.Error(),
				Code:    ErrCodeSchemaFailed,
			})
		}
	}

	vr.Valid = len(vr.Errors) == 0
	return vr
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, vr ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(vr)
	}

	fmt.Fprintf(formatter.Writer, "✓ %d model(s) valid\n", vr.Models)
	printWarnings(formatter, vr.Warnings)
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, vr ValidationResult) error {
	vr.Valid = false
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   vr,
			Error: &CLIError{
				Code:    vr.Errors[0].Code,
				Message: vr.Errors[0].Message,
			},
		}
		if err := formatter.encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(vr.Errors)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range vr.Errors {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}
	printWarnings(formatter, vr.Warnings)

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(vr.Errors)))
}

func printWarnings(formatter *OutputFormatter, warnings []compiler.CycleWarning) {
	for _, w := range warnings {
		fmt.Fprintf(formatter.Writer, "⚠ %s\n", w.Message)
	}
}
