package mcp

import (
	"context"
	"log/slog"

	"github.com/assaylabs/assay/internal/domain/project"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerTools(server *sdkmcp.Server, svc Services, logger *slog.Logger) {
	// Projects
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_project",
		Description: "Turn a directory into an assay project. Creates the directory, the .assay metadata database and the standard subfolders. Fails with ALREADY_EXISTS if a project is already there.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, args CreateProjectParams) (*sdkmcp.CallToolResult, ProjectResponse, error) {
		proj, err := svc.Projects.Create(ctx, project.CreateRequest{Path: args.Path, Name: args.Name})
		if err != nil {
			return nil, ProjectResponse{}, mapError(err)
		}
		return nil, ProjectResponse{Project: newProjectInfo(proj)}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "open_project",
		Description: "Open an existing project. Older metadata is migrated in place; metadata from a newer assay fails with VERSION_MISMATCH and is left untouched.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, args OpenProjectParams) (*sdkmcp.CallToolResult, ProjectResponse, error) {
		proj, err := svc.Projects.Open(ctx, args.Path)
		if err != nil {
			return nil, ProjectResponse{}, mapError(err)
		}
		return nil, ProjectResponse{Project: newProjectInfo(proj)}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "rename_project",
		Description: "Change a project's display name. The id, path and creation time never change.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, args RenameProjectParams) (*sdkmcp.CallToolResult, ProjectResponse, error) {
		proj, err := svc.Projects.Rename(ctx, args.Path, args.Name)
		if err != nil {
			return nil, ProjectResponse{}, mapError(err)
		}
		return nil, ProjectResponse{Project: newProjectInfo(proj)}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "Find projects under a root directory. Read-only: nothing is migrated or locked. Directories with unreadable metadata are reported as warnings.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, args ListProjectsParams) (*sdkmcp.CallToolResult, ListProjectsResponse, error) {
		listing, err := svc.Discovery.List(ctx, args.RootPath)
		if err != nil {
			return nil, ListProjectsResponse{}, mapError(err)
		}
		return nil, ListProjectsResponse{
			Projects: newProjectInfos(listing.Projects),
			Warnings: warningProblems(listing.Warnings),
		}, nil
	})

	// Evals
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_evals",
		Description: "Summarise the eval definitions in a project's evals/ folder, sorted by name. Files that fail to load are listed under errors.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, args ListEvalsParams) (*sdkmcp.CallToolResult, ListEvalsResponse, error) {
		listing, err := svc.Evals.List(ctx, args.ProjectPath)
		if err != nil {
			return nil, ListEvalsResponse{}, mapError(err)
		}
		return nil, ListEvalsResponse{
			Evals:  listing.Evals,
			Errors: fileErrorProblems(listing.Errors),
		}, nil
	})

	// Definitions carry free-form scorer and solver settings, so get_eval
	// has no output schema.
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_eval",
		Description: "Return the full definition of one eval by id.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, args GetEvalParams) (*sdkmcp.CallToolResult, any, error) {
		def, err := svc.Evals.Get(ctx, args.ProjectPath, args.ID)
		if err != nil {
			return nil, nil, mapError(err)
		}
		return nil, EvalResponse{Eval: def}, nil
	})

	logger.Debug("mcp tools registered", "count", 6)
}
