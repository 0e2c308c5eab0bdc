package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `assay manages eval workbench projects on the local filesystem.

Core concepts:
- Project: a directory holding .assay/assay.db (identity + schema version) plus evals/, datasets/, results/, models/, plugins/.
- Project id and created_at never change. Only the name can be edited.
- Eval: one YAML, JSON or TOML file in evals/. Bad files are reported per file and never hide the good ones.

Typical flow:
1) list_projects(root_path) to find workspaces, or create_project(path, name) for a new one.
2) open_project(path) before working in a project. This migrates older metadata and rolls back interrupted writes.
3) list_evals(project_path) for summaries, get_eval(project_path, id) for one full definition.

Errors carry a code: PATH_INVALID, ALREADY_EXISTS, NOT_FOUND, CORRUPT, VERSION_MISMATCH, INVALID_INPUT, LOCKED, NEEDS_RECOVERY.

Docs:
- assay://docs/layout (project directory layout)
- assay://docs/eval-format (eval definition fields)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "assay://docs/layout",
		Name:        "docs_layout",
		Title:       "Project layout",
		Description: "What lives where inside an assay project directory.",
		Content: `# Project layout

` + "```" + `
<project>/
  .assay/
    assay.db     project metadata (SQLite), one row: id, name, created_at, version
    assay.lock   advisory lock held while the metadata is written
  evals/         eval definitions (*.yaml, *.yml, *.json, *.toml)
  datasets/
  results/
  models/
  plugins/
` + "```" + `

- A directory is a project if and only if ` + "`.assay/assay.db`" + ` exists.
- ` + "`create_project`" + ` builds the database in a temporary file and renames it into place, so a crash never leaves half a project.
- ` + "`open_project`" + ` upgrades older metadata in place. Metadata written by a newer assay is refused with VERSION_MISMATCH and left byte for byte untouched.
- ` + "`list_projects`" + ` never migrates or locks anything. It does not descend into projects or follow symlinks.
`,
	},
	{
		URI:         "assay://docs/eval-format",
		Name:        "docs_eval_format",
		Title:       "Eval definition format",
		Description: "Fields of an eval definition file and how they are validated.",
		Content: `# Eval definition format

Files in ` + "`evals/`" + ` are read in name order. Hidden files and other extensions are ignored.

` + "```yaml" + `
id: qa-basic            # optional, defaults to a slug of the file name
name: QA Basic          # required
description: Short factual questions
dataset:
  source: local
  path: datasets/qa.jsonl   # required when dataset is present
  limit: 50
  shuffle: true
  seed: 7
solver:
  type: chat                # required when solver is present
  system_prompt: Answer briefly.
  max_turns: 3
scorer:
  - type: exact_match       # required per scorer; other keys are scorer config
    case_sensitive: false
execution:
  max_concurrent: 4
  timeout_seconds: 60
  retries: 1
  model: gpt-a              # required; a string or a list of strings
` + "```" + `

- Two files with the same id: the first in name order wins, the second is reported as a duplicate.
- Files larger than the configured limit (1 MiB by default) are reported, not read.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
