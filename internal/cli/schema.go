package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/fieldir/internal/metadata"
	"github.com/roach88/fieldir/internal/schema"
)

// SchemaOptions holds flags for the schema command.
type SchemaOptions struct {
	*RootOptions
	Role string
}

// SchemaResult is the JSON payload of the schema command.
type SchemaResult struct {
	Role string `json:"role"`
	SDL  string `json:"sdl"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schema <project-dir>",
		Short: "Print the GraphQL schema a role sees",
		Long: `Build the GraphQL schema of a project and print the SDL visible to
one role. Root fields and arguments the role has no permission for, or
whose value is preset for the role, are left out.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Role, "role", "", "caller role (required)")
	_ = cmd.MarkFlagRequired("role")

	return cmd
}

func runSchema(opts *SchemaOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	result, err := LoadMetadata(dir)
	if err != nil {
		return loadFailure(formatter, err)
	}

	s, err := schema.Build(result.Metadata)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeSchemaFailed, err.Error(), nil)
	}
	formatter.VerboseLog("Built schema with %d named type(s)", len(s.TypeNames()))

	sdl := s.SDL(metadata.Role(opts.Role))
	if formatter.Format == "json" {
		return formatter.Success(SchemaResult{Role: opts.Role, SDL: sdl})
	}

	fmt.Fprint(formatter.Writer, sdl)
	return nil
}
