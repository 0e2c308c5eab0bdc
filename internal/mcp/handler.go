package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/assaylabs/assay/internal/domain/discovery"
	"github.com/assaylabs/assay/internal/domain/eval"
	"github.com/assaylabs/assay/internal/domain/project"
)

// Handler dispatches JSON-RPC methods to domain services. list_projects and
// list_evals return bare arrays and log their warnings; the *_with_warnings
// and *_with_errors variants return them alongside the results.
type Handler struct {
	services Services
	logger   *slog.Logger
}

// NewHandler creates a new JSON-RPC handler.
func NewHandler(services Services, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{services: services, logger: logger}
}

// Handle dispatches one request.
func (h *Handler) Handle(ctx context.Context, method string, params json.RawMessage) (any, error) {
	switch method {
	case "create_project":
		var req CreateProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.project(h.services.Projects.Create(ctx, project.CreateRequest{Path: req.Path, Name: req.Name}))
	case "open_project":
		var req OpenProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.project(h.services.Projects.Open(ctx, req.Path))
	case "rename_project":
		var req RenameProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.project(h.services.Projects.Rename(ctx, req.Path, req.Name))
	case "list_projects":
		var req ListProjectsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		listing, err := h.services.Discovery.List(ctx, req.RootPath)
		if err != nil {
			return nil, mapError(err)
		}
		h.logWarnings(listing.Warnings)
		return newProjectInfos(listing.Projects), nil
	case "list_projects_with_warnings":
		var req ListProjectsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		listing, err := h.services.Discovery.List(ctx, req.RootPath)
		if err != nil {
			return nil, mapError(err)
		}
		return ListProjectsResponse{
			Projects: newProjectInfos(listing.Projects),
			Warnings: warningProblems(listing.Warnings),
		}, nil
	case "list_evals":
		var req ListEvalsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		listing, err := h.services.Evals.List(ctx, req.ProjectPath)
		if err != nil {
			return nil, mapError(err)
		}
		return listing.Evals, nil
	case "list_evals_with_errors":
		var req ListEvalsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		listing, err := h.services.Evals.List(ctx, req.ProjectPath)
		if err != nil {
			return nil, mapError(err)
		}
		return ListEvalsResponse{Evals: listing.Evals, Errors: fileErrorProblems(listing.Errors)}, nil
	case "get_eval":
		var req GetEvalParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		def, err := h.services.Evals.Get(ctx, req.ProjectPath, req.ID)
		if err != nil {
			return nil, mapError(err)
		}
		return def, nil
	default:
		return nil, &APIError{
			Code:         CodeMethodNotFound,
			Message:      fmt.Sprintf("unknown method %q", method),
			RecoveryHint: "Call one of: create_project, open_project, rename_project, list_projects, list_projects_with_warnings, list_evals, list_evals_with_errors, get_eval",
		}
	}
}

func (h *Handler) project(p *project.Project, err error) (any, error) {
	if err != nil {
		return nil, mapError(err)
	}
	return newProjectInfo(p), nil
}

func (h *Handler) logWarnings(warnings []*discovery.Warning) {
	for _, w := range warnings {
		h.logger.Warn("skipped project directory", "path", w.Path, "error", w.Err)
	}
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return &APIError{Code: CodeInvalidParams, Message: err.Error(), RecoveryHint: "Params must be a JSON object"}
	}
	return nil
}

var (
	_ ProjectService   = (*project.Service)(nil)
	_ DiscoveryService = (*discovery.Scanner)(nil)
	_ EvalService      = (*eval.Loader)(nil)
)
