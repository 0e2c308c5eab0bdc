package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/assaylabs/assay/internal/domain/discovery"
	"github.com/assaylabs/assay/internal/domain/eval"
	"github.com/assaylabs/assay/internal/domain/project"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

// now is swapped in tests so relative times are stable.
var now = time.Now

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderProject(w io.Writer, p *project.Project) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendRows([]table.Row{
		{"Name", p.Name},
		{"ID", p.ID},
		{"Path", p.Path},
		{"Created", fmt.Sprintf("%s (%s)", p.CreatedAt.Local().Format(time.DateTime), humanize.RelTime(p.CreatedAt, now(), "ago", "from now"))},
		{"Version", p.Version},
		{"Database", p.DBPath},
	})
	t.Render()
}

func renderProjects(w io.Writer, listing *discovery.Listing) {
	if len(listing.Projects) == 0 {
		_, _ = fmt.Fprintln(w, "No projects found.")
	} else {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Name", "Path", "Created", "Version"})
		for _, p := range listing.Projects {
			t.AppendRow(table.Row{p.Name, p.Path, humanize.RelTime(p.CreatedAt, now(), "ago", "from now"), p.Version})
		}
		t.Render()
	}
	renderProblems(w, "Skipped", len(listing.Warnings), func(i int) (string, error) {
		return listing.Warnings[i].Path, listing.Warnings[i].Err
	})
}

func renderEvals(w io.Writer, listing *eval.Listing) {
	if len(listing.Evals) == 0 {
		_, _ = fmt.Fprintln(w, "No evals found.")
	} else {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"ID", "Name", "Description", "File"})
		for _, s := range listing.Evals {
			t.AppendRow(table.Row{s.ID, s.Name, s.Description, s.Path})
		}
		t.Render()
	}
	renderProblems(w, "Errors", len(listing.Errors), func(i int) (string, error) {
		return listing.Errors[i].Path, listing.Errors[i].Err
	})
}

func renderProblems(w io.Writer, title string, n int, at func(int) (string, error)) {
	if n == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "\n%s (%d):\n", title, n)
	for i := range n {
		path, err := at(i)
		_, _ = fmt.Fprintf(w, "  %s: %v\n", path, err)
	}
}
