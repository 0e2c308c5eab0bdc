package discovery

import (
	"encoding/json"
	"fmt"

	"github.com/assaylabs/assay/internal/domain/project"
)

// Warning reports a directory that looked like a project but could not be
// listed. Warnings never abort a scan.
type Warning struct {
	Path string
	Err  error
}

func (w *Warning) Error() string {
	return fmt.Sprintf("%s: %v", w.Path, w.Err)
}

func (w *Warning) Unwrap() error {
	return w.Err
}

// MarshalJSON renders the warning as {path, message}.
func (w *Warning) MarshalJSON() ([]byte, error) {
	msg := ""
	if w.Err != nil {
		msg = w.Err.Error()
	}
	return json.Marshal(struct {
		Path    string `json:"path"`
		Message string `json:"message"`
	}{Path: w.Path, Message: msg})
}

// Result is one item of a scan: exactly one of Project or Warning is set.
type Result struct {
	Project *project.Project
	Warning *Warning
}

// Listing is a fully collected scan.
type Listing struct {
	Projects []*project.Project `json:"projects"`
	Warnings []*Warning         `json:"warnings"`
}

// Options controls how far and where a scan descends.
type Options struct {
	// MaxDepth bounds descent below the root (depth 0). Negative means no limit.
	MaxDepth      int
	SkipDirs      []string
	IncludeHidden bool
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		MaxDepth: 4,
		SkipDirs: []string{".git", "node_modules", "vendor", project.InternalDir},
	}
}
