// Package cli provides the assay command-line interface.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/assaylabs/assay/internal/app"
	"github.com/assaylabs/assay/internal/config"
	"github.com/assaylabs/assay/internal/logging"
	"github.com/assaylabs/assay/internal/mcp"
	"github.com/spf13/cobra"
)

// env is shared by every command of one invocation.
type env struct {
	cfgFile string
	jsonOut bool

	app    *app.App
	closer io.Closer
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	e := &env{}

	rootCmd := &cobra.Command{
		Use:   "assay",
		Short: "Eval workbench project manager",
		Long: `assay manages eval workbench projects: directories holding a small
metadata database under .assay/ and eval definitions under evals/.`,
		Version: app.Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			return e.setup(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if e.closer != nil {
				return e.closer.Close()
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&e.cfgFile, "config", "", "config file (default: $ASSAY_CONFIG_PATH)")
	flags.String("log-level", "info", "log level (debug|info|warn|error)")
	flags.String("log-path", "", "write logs to this file instead of stderr")
	flags.Duration("lock-timeout", 0, "how long to wait for a project lock")
	flags.BoolVar(&e.jsonOut, "json", false, "print JSON instead of tables")

	rootCmd.AddCommand(
		newCreateCmd(e),
		newOpenCmd(e),
		newRenameCmd(e),
		newListCmd(e),
		newEvalsCmd(e),
		newServeCmd(e),
	)
	return rootCmd
}

func (e *env) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(e.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	logger, closer, err := logging.New(logging.Options{
		Level:    cfg.Log.Level,
		Path:     cfg.Log.Path,
		Fallback: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	e.closer = closer
	e.app = app.New(cfg, logger)
	return nil
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		return 1
	}
	return 0
}

func printError(w io.Writer, err error) {
	apiErr := mcp.MapError(err)
	if apiErr == nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "Error [%s]: %s\n", apiErr.Code, apiErr.Message)
	if apiErr.RecoveryHint != "" {
		fmt.Fprintf(w, "Hint: %s\n", apiErr.RecoveryHint)
	}
}
