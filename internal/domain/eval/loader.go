// Package eval loads eval definitions from a project's evals directory.
package eval

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/assaylabs/assay/internal/domain/project"
)

// DefaultMaxFileBytes caps eval files at 1 MiB.
const DefaultMaxFileBytes int64 = 1 << 20

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	MaxFileBytes int64
}

// Loader reads eval definitions. It keeps no state between calls.
type Loader struct {
	opts   LoaderOptions
	logger *slog.Logger
}

// NewLoader creates a loader.
func NewLoader(opts LoaderOptions, logger *slog.Logger) *Loader {
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = DefaultMaxFileBytes
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{opts: opts, logger: logger}
}

// Load returns a lazy sequence over the eval files of the project at
// projectPath, in file name order. A project without an evals directory
// yields nothing. When two files declare the same id the first one wins and
// the later one is reported as ErrDuplicateID.
func (l *Loader) Load(ctx context.Context, projectPath string) (iter.Seq[Result], error) {
	dir, err := project.Canonicalize(projectPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", project.ErrPathInvalid, err)
	}

	evalsDir := filepath.Join(dir, project.EvalsDir)
	info, err := os.Stat(evalsDir)
	if errors.Is(err, fs.ErrNotExist) {
		return func(func(Result) bool) {}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", project.ErrPathInvalid, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", project.ErrPathInvalid, evalsDir)
	}
	f, err := os.Open(evalsDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", project.ErrPathInvalid, err)
	}
	_ = f.Close()

	return func(yield func(Result) bool) {
		entries, err := os.ReadDir(evalsDir)
		if err != nil {
			yield(Result{Err: &FileError{Path: evalsDir, Err: err}})
			return
		}

		seen := make(map[string]string)
		for _, entry := range entries {
			if ctx.Err() != nil {
				return
			}
			if !entry.Type().IsRegular() || !isEvalFile(entry.Name()) {
				continue
			}

			path := filepath.Join(evalsDir, entry.Name())
			def, err := l.loadFile(path)
			if err != nil {
				if !yield(Result{Err: &FileError{Path: path, Err: err}}) {
					return
				}
				continue
			}

			if first, ok := seen[def.ID]; ok {
				err := fmt.Errorf("%w: %q is already defined by %s", ErrDuplicateID, def.ID, filepath.Base(first))
				if !yield(Result{Err: &FileError{Path: path, Err: err}}) {
					return
				}
				continue
			}
			seen[def.ID] = path

			if !yield(Result{Definition: def}) {
				return
			}
		}
	}, nil
}

// List collects every summary and per-file error. Summaries are ordered by
// case-insensitive name, then id.
func (l *Loader) List(ctx context.Context, projectPath string) (*Listing, error) {
	seq, err := l.Load(ctx, projectPath)
	if err != nil {
		return nil, err
	}

	listing := &Listing{
		Evals:  []Summary{},
		Errors: []*FileError{},
	}
	for res := range seq {
		if res.Definition != nil {
			listing.Evals = append(listing.Evals, res.Definition.Summary())
			continue
		}
		listing.Errors = append(listing.Errors, res.Err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(listing.Evals, func(a, b Summary) int {
		return cmp.Or(
			cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
			cmp.Compare(a.ID, b.ID),
		)
	})

	for _, fe := range listing.Errors {
		l.logger.Warn("skipping eval file", "path", fe.Path, "error", fe.Err)
	}
	return listing, nil
}

// Get returns the definition with the given id.
func (l *Loader) Get(ctx context.Context, projectPath, id string) (*Definition, error) {
	seq, err := l.Load(ctx, projectPath)
	if err != nil {
		return nil, err
	}
	for res := range seq {
		if res.Definition != nil && res.Definition.ID == id {
			return res.Definition, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("eval %q: %w", id, ErrNotFound)
}

func (l *Loader) loadFile(path string) (*Definition, error) {
	data, err := readLimited(path, l.opts.MaxFileBytes)
	if err != nil {
		return nil, err
	}
	return parseDefinition(path, data)
}
