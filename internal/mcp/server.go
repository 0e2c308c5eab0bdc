package mcp

import (
	"context"
	"log/slog"

	"github.com/assaylabs/assay/internal/domain/discovery"
	"github.com/assaylabs/assay/internal/domain/eval"
	"github.com/assaylabs/assay/internal/domain/project"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ProjectService defines project operations needed by MCP.
type ProjectService interface {
	Create(ctx context.Context, req project.CreateRequest) (*project.Project, error)
	Open(ctx context.Context, path string) (*project.Project, error)
	Rename(ctx context.Context, path, name string) (*project.Project, error)
}

// DiscoveryService finds projects under a root directory.
type DiscoveryService interface {
	List(ctx context.Context, root string) (*discovery.Listing, error)
}

// EvalService reads eval definitions from a project.
type EvalService interface {
	List(ctx context.Context, projectPath string) (*eval.Listing, error)
	Get(ctx context.Context, projectPath, id string) (*eval.Definition, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Projects  ProjectService
	Discovery DiscoveryService
	Evals     EvalService
}

// Config contains server configuration.
type Config struct {
	Services Services
	Version  string
	Logger   *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and doc resources.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "assay",
		Version: cfg.Version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Services, cfg.Logger)

	return server
}
