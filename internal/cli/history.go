package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/fieldir/internal/metadata"
	"github.com/roach88/fieldir/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Fingerprint string
	Model       string
	Limit       int
	RequestID   string // show one operation with its IR
}

// HistoryResult is the JSON payload of a history listing.
type HistoryResult struct {
	Operations []store.OperationRecord    `json:"operations"`
	ModelUsage map[metadata.ModelName]int `json:"model_usage"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <db>",
		Short: "List recorded compiled operations",
		Long: `List operations recorded with compile --record, oldest first.

Examples:
  fieldir history ops.db
  fieldir history ops.db --model Users --limit 10
  fieldir history ops.db --request-id 7c1e0c9a-...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Fingerprint, "fingerprint", "", "only operations with this fingerprint")
	cmd.Flags().StringVar(&opts.Model, "model", "", "only operations that use this model")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "only the most recent N operations (0 = all)")
	cmd.Flags().StringVar(&opts.RequestID, "request-id", "", "show one operation and its IR")

	return cmd
}

func runHistory(opts *HistoryOptions, dbPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if opts.Limit < 0 {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidFlag, "--limit must be non-negative", nil)
	}
	// history reads an existing log; store.Open would create one.
	if _, err := os.Stat(dbPath); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("operation log not found: %s", dbPath), nil)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeRecordFailed, err.Error(), nil)
	}
	defer st.Close()
	ctx := cmd.Context()

	if opts.RequestID != "" {
		rec, err := st.Get(ctx, opts.RequestID)
		if errors.Is(err, store.ErrNotFound) {
			return formatter.Fail(ExitFailure, ErrCodeNotFound, err.Error(), nil)
		}
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeRecordFailed, err.Error(), nil)
		}
		if formatter.Format == "json" {
			return formatter.encode(CLIResponse{Status: "ok", Data: rec, RequestID: rec.RequestID})
		}
		printRecord(formatter, *rec)
		fmt.Fprintf(formatter.Writer, "\n%s\n", rec.IR)
		return nil
	}

	records, err := st.List(ctx, store.Filter{
		Fingerprint: opts.Fingerprint,
		Model:       metadata.ModelName(opts.Model),
		Limit:       opts.Limit,
	})
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeRecordFailed, err.Error(), nil)
	}
	usage, err := st.ModelUsage(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeRecordFailed, err.Error(), nil)
	}

	if formatter.Format == "json" {
		return formatter.Success(HistoryResult{Operations: records, ModelUsage: usage})
	}

	if len(records) == 0 {
		fmt.Fprintln(formatter.Writer, "No operations recorded.")
		return nil
	}
	for _, rec := range records {
		printRecord(formatter, rec)
	}
	fmt.Fprintf(formatter.Writer, "\n%d operation(s)\n", len(records))
	return nil
}

func printRecord(formatter *OutputFormatter, rec store.OperationRecord) {
	name := rec.OperationName
	if name == "" {
		name = "(anonymous)"
	}
	fmt.Fprintf(formatter.Writer, "#%d %s %s role=%s pipeline=%s fingerprint=%.12s\n",
		rec.Seq, rec.RequestID, name, rec.Role, rec.Pipeline, rec.Fingerprint)
}
