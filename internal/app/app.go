// Package app wires configuration into the store and domain services.
package app

import (
	"log/slog"

	"github.com/assaylabs/assay/internal/config"
	"github.com/assaylabs/assay/internal/domain/discovery"
	"github.com/assaylabs/assay/internal/domain/eval"
	"github.com/assaylabs/assay/internal/domain/project"
	"github.com/assaylabs/assay/internal/mcp"
	"github.com/assaylabs/assay/internal/schema"
	"github.com/assaylabs/assay/internal/sqlite"
)

// Version is reported to MCP clients and by the CLI. Overridden at link time.
var Version = "dev"

// App holds the services built from one configuration.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    *sqlite.ProjectStore
	Projects *project.Service
	Scanner  *discovery.Scanner
	Loader   *eval.Loader
	Watcher  *eval.Watcher
}

// New builds the services. A nil logger discards output.
func New(cfg *config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	store := sqlite.NewProjectStore(schema.Default(), sqlite.StoreOptions{
		LockTimeout: cfg.Store.LockTimeout,
		BusyTimeout: cfg.Store.BusyTimeout,
		Logger:      logger,
	})
	loader := eval.NewLoader(eval.LoaderOptions{MaxFileBytes: cfg.Evals.MaxFileBytes}, logger)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Projects: project.NewService(store, logger),
		Scanner: discovery.NewScanner(store, discovery.Options{
			MaxDepth:      cfg.Discovery.MaxDepth,
			SkipDirs:      cfg.Discovery.SkipDirs,
			IncludeHidden: cfg.Discovery.IncludeHidden,
		}, logger),
		Loader:  loader,
		Watcher: eval.NewWatcher(loader, cfg.Evals.WatchDebounce, logger),
	}
}

// Services exposes the domain services to the RPC layers.
func (a *App) Services() mcp.Services {
	return mcp.Services{
		Projects:  a.Projects,
		Discovery: a.Scanner,
		Evals:     a.Loader,
	}
}

// Handler returns the JSON-RPC dispatcher.
func (a *App) Handler() *mcp.Handler {
	return mcp.NewHandler(a.Services(), a.Logger)
}
