package mcp

import (
	"time"

	"github.com/assaylabs/assay/internal/domain/discovery"
	"github.com/assaylabs/assay/internal/domain/eval"
	"github.com/assaylabs/assay/internal/domain/project"
)

type CreateProjectParams struct {
	Path string `json:"path" jsonschema:"Directory to turn into a project; created if missing"`
	Name string `json:"name" jsonschema:"Project display name"`
}

type OpenProjectParams struct {
	Path string `json:"path" jsonschema:"Project directory"`
}

type RenameProjectParams struct {
	Path string `json:"path" jsonschema:"Project directory"`
	Name string `json:"name" jsonschema:"New display name"`
}

type ListProjectsParams struct {
	RootPath string `json:"root_path" jsonschema:"Directory to search for projects"`
}

type ListEvalsParams struct {
	ProjectPath string `json:"project_path" jsonschema:"Project directory whose evals/ folder is read"`
}

type GetEvalParams struct {
	ProjectPath string `json:"project_path" jsonschema:"Project directory"`
	ID          string `json:"id" jsonschema:"Eval id"`
}

// ProjectInfo is the wire shape of a project.
type ProjectInfo struct {
	ID        string `json:"id" jsonschema:"Stable project identifier"`
	Name      string `json:"name" jsonschema:"Display name"`
	Path      string `json:"path" jsonschema:"Canonical project directory"`
	CreatedAt string `json:"created_at" jsonschema:"Creation time, RFC 3339 UTC"`
	Version   int    `json:"version" jsonschema:"Metadata schema version"`
	DBPath    string `json:"db_path" jsonschema:"Embedded database location"`
}

func newProjectInfo(p *project.Project) ProjectInfo {
	return ProjectInfo{
		ID:        p.ID,
		Name:      p.Name,
		Path:      p.Path,
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339Nano),
		Version:   p.Version,
		DBPath:    p.DBPath,
	}
}

func newProjectInfos(projects []*project.Project) []ProjectInfo {
	out := make([]ProjectInfo, 0, len(projects))
	for _, p := range projects {
		out = append(out, newProjectInfo(p))
	}
	return out
}

// Problem is a skipped directory or eval file.
type Problem struct {
	Path    string `json:"path" jsonschema:"Offending path"`
	Code    string `json:"code,omitempty" jsonschema:"Error code when the directory is a recognisable project, e.g. CORRUPT or NEEDS_RECOVERY"`
	Message string `json:"message" jsonschema:"Why it was skipped"`
}

func warningProblems(warnings []*discovery.Warning) []Problem {
	out := make([]Problem, 0, len(warnings))
	for _, w := range warnings {
		p := Problem{Path: w.Path, Message: w.Err.Error()}
		if apiErr := MapError(w.Err); apiErr != nil {
			p.Code = apiErr.Code
		}
		out = append(out, p)
	}
	return out
}

func fileErrorProblems(errs []*eval.FileError) []Problem {
	out := make([]Problem, 0, len(errs))
	for _, fe := range errs {
		out = append(out, Problem{Path: fe.Path, Message: fe.Err.Error()})
	}
	return out
}

type ProjectResponse struct {
	Project ProjectInfo `json:"project" jsonschema:"The project"`
}

type ListProjectsResponse struct {
	Projects []ProjectInfo `json:"projects" jsonschema:"Projects found, in walk order"`
	Warnings []Problem     `json:"warnings" jsonschema:"Directories that looked like projects but could not be read"`
}

type ListEvalsResponse struct {
	Evals  []eval.Summary `json:"evals" jsonschema:"Loadable evals sorted by name"`
	Errors []Problem      `json:"errors" jsonschema:"Eval files that were skipped"`
}

type EvalResponse struct {
	Eval *eval.Definition `json:"eval" jsonschema:"Full eval definition"`
}
