package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Execute runs the apiforge CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "apiforge",
		Short:         "Generate OpenAPI documents and project scaffolding from a declarative API description",
		Long:          "apiforge turns a declarative apiforge.toml (endpoints, schemas, model translations) into an OpenAPI document and project files, merging generated regions into hand-edited files without clobbering them.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	// Convert Cobra flag errors (like unknown flags) into friendly usage
	// errors that also show the command's help text.
	flagErr := func(c *cobra.Command, err error) error {
		return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
	}
	cmd.SetFlagErrorFunc(flagErr)

	cmd.PersistentFlags().StringP("config", "c", "", "Flag-defaults file path (YAML)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	for _, sub := range []*cobra.Command{newNewCmd(), newGenerateCmd(), newCertCmd()} {
		sub.SetFlagErrorFunc(flagErr)
		cmd.AddCommand(sub)
	}

	return cmd
}
