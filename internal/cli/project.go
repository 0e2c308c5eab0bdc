package cli

import (
	"github.com/assaylabs/assay/internal/domain/project"
	"github.com/spf13/cobra"
)

func newCreateCmd(e *env) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "create <path>",
		Short: "Turn a directory into a project",
		Long: `Create a project at <path>. The directory is created if needed, along with
.assay/assay.db and the evals, datasets, results, models and plugins folders.

Examples:
  assay create ./sentiment --name "Sentiment evals"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := e.app.Projects.Create(cmd.Context(), project.CreateRequest{Path: args[0], Name: name})
			if err != nil {
				return err
			}
			return e.printProject(cmd, proj)
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "project display name (required)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newOpenCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Show a project, migrating older metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := e.app.Projects.Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return e.printProject(cmd, proj)
		},
	}
}

func newRenameCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <path> <name>",
		Short: "Change a project's display name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := e.app.Projects.Rename(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return e.printProject(cmd, proj)
		},
	}
}

func newListCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [root]",
		Short: "Find projects under a directory",
		Long: `Search root (default: the current directory) for projects. Nothing is
migrated or locked. Directories whose metadata cannot be read are listed
separately.

Examples:
  assay list ~/evals
  assay list ~/evals --max-depth 1 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			listing, err := e.app.Scanner.List(cmd.Context(), root)
			if err != nil {
				return err
			}
			if e.jsonOut {
				return renderJSON(cmd.OutOrStdout(), listing)
			}
			renderProjects(cmd.OutOrStdout(), listing)
			return nil
		},
	}
	cmd.Flags().Int("max-depth", 0, "directory levels to search below root; -1 for no limit (default from config: 4)")
	cmd.Flags().Bool("include-hidden", false, "also search hidden directories")
	return cmd
}

func (e *env) printProject(cmd *cobra.Command, proj *project.Project) error {
	if e.jsonOut {
		return renderJSON(cmd.OutOrStdout(), proj)
	}
	renderProject(cmd.OutOrStdout(), proj)
	return nil
}
