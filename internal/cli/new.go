package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forgekit/apiforge/internal/scaffold"
)

// NewConfig captures the options for the new command.
type NewConfig struct {
	Name    string
	Dir     string
	Force   bool
	Git     bool
	Verbose bool
}

var newRunner = runNew

func newNewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Scaffold a new project from the embedded templates",
		Long: "Scaffold a complete project tree (configuration, README, server stub) into a new " +
			"directory and initialize a git repository unless --no-git is set.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cmd.Flags().GetString("dir")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			noGit, err := cmd.Flags().GetBool("no-git")
			if err != nil {
				return err
			}
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			name := strings.TrimSpace(args[0])
			if name == "" {
				return newUsageError("new: project name must not be empty")
			}
			cfg := &NewConfig{
				Name:    name,
				Dir:     strings.TrimSpace(dir),
				Force:   force,
				Git:     !noGit,
				Verbose: verbose,
			}
			return newRunner(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("dir", "", "Target directory (defaults to ./<name>)")
	cmd.Flags().Bool("force", false, "Write into a non-empty target directory")
	cmd.Flags().Bool("no-git", false, "Skip git repository initialization")

	return cmd
}

func runNew(ctx context.Context, cfg *NewConfig) error {
	err := scaffold.New(ctx, cfg.Name, scaffold.NewOptions{
		Dir:     cfg.Dir,
		Force:   cfg.Force,
		Git:     cfg.Git,
		Verbose: cfg.Verbose,
	})
	if err != nil {
		return fmt.Errorf("new %s: %w", cfg.Name, err)
	}
	return nil
}
