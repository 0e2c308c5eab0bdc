package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/assaylabs/assay/internal/app"
	"github.com/assaylabs/assay/internal/config"
	"github.com/assaylabs/assay/internal/mcp"
	"github.com/assaylabs/assay/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the project operations over MCP or HTTP",
		Long: `Run the RPC server.

  stdio  MCP over stdin/stdout, for editors and agents that spawn assay.
  http   JSON-RPC at POST /rpc, MCP (streamable HTTP) at /mcp and GET /health.

Logs always go to stderr or --log-path, never stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server := mcp.NewServer(mcp.Config{
				Services: e.app.Services(),
				Version:  app.Version,
				Logger:   e.app.Logger,
			})
			if e.app.Config.Transport.Mode == config.ModeStdio {
				return runStdio(ctx, e.app, server)
			}
			return runHTTP(ctx, e.app, server)
		},
	}
	cmd.Flags().String("transport", "", "stdio or http (default from config: stdio)")
	cmd.Flags().String("host", "", "HTTP listen host (default from config: 127.0.0.1)")
	cmd.Flags().Int("port", 0, "HTTP listen port (default from config: 7421)")
	return cmd
}

func runStdio(ctx context.Context, a *app.App, server *sdkmcp.Server) error {
	a.Logger.Info("starting stdio transport")

	// Run blocks until stdin closes or ctx is cancelled.
	if err := server.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	a.Logger.Info("shutting down")
	return nil
}

func runHTTP(ctx context.Context, a *app.App, server *sdkmcp.Server) error {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return server },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: 30 * time.Minute,
		},
	)

	addr := fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           transport.NewServer(a.Handler(), transport.Options{MCP: mcpHandler, Logger: a.Logger}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.Logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.Logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
