package cli

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/assaylabs/assay/internal/domain/eval"
	"github.com/spf13/cobra"
)

func newEvalsCmd(e *env) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "evals <project>",
		Short: "List a project's eval definitions",
		Long: `List the eval definitions in <project>/evals, sorted by name. Files that
fail to parse are reported after the table.

With --watch, the list is printed again whenever evals/ changes until
interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !watch {
				listing, err := e.app.Loader.List(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return e.printEvals(cmd, listing)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return e.app.Watcher.Watch(ctx, args[0], func(listing *eval.Listing) {
				if !e.jsonOut {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\n[%s]\n", time.Now().Format(time.TimeOnly))
				}
				if err := e.printEvals(cmd, listing); err != nil {
					e.app.Logger.Warn("failed to print evals", "error", err)
				}
			})
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep running and reprint on changes")
	cmd.Flags().Duration("debounce", 0, "quiet period before reprinting in --watch mode (default from config: 250ms)")
	return cmd
}

func (e *env) printEvals(cmd *cobra.Command, listing *eval.Listing) error {
	if e.jsonOut {
		return renderJSON(cmd.OutOrStdout(), listing)
	}
	renderEvals(cmd.OutOrStdout(), listing)
	return nil
}

