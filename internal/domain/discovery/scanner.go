// Package discovery finds project directories under a root.
package discovery

import (
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

// Scanner walks directory trees looking for project databases.
type Scanner struct {
	prober Prober
	opts   Options
	logger *slog.Logger
}

// NewScanner creates a scanner that reads metadata through prober.
func NewScanner(prober Prober, opts Options, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scanner{prober: prober, opts: opts, logger: logger}
}

// Scan returns a lazy sequence of the projects under root, in pre-order with
// siblings sorted by name. Each range over the sequence walks the tree again.
// Only an inaccessible root is an error; problems below it become warnings.
func (s *Scanner) Scan(ctx context.Context, root string) (iter.Seq[Result], error) {
	dir, err := project.Canonicalize(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", project.ErrPathInvalid, err)
	}
	f, err := os.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", project.ErrPathInvalid, err)
	}
	_ = f.Close()

	return func(yield func(Result) bool) {
		s.walk(ctx, dir, 0, yield)
	}, nil
}

// List collects a full scan.
func (s *Scanner) List(ctx context.Context, root string) (*Listing, error) {
	seq, err := s.Scan(ctx, root)
	if err != nil {
		return nil, err
	}

	listing := &Listing{
		Projects: []*project.Project{},
		Warnings: []*Warning{},
	}
	for res := range seq {
		if res.Project != nil {
			listing.Projects = append(listing.Projects, res.Project)
			continue
		}
		listing.Warnings = append(listing.Warnings, res.Warning)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.logger.Debug("discovery finished", "root", root, "projects", len(listing.Projects), "warnings", len(listing.Warnings))
	return listing, nil
}

// walk reports whether the caller should keep going.
func (s *Scanner) walk(ctx context.Context, dir string, depth int, yield func(Result) bool) bool {
	if ctx.Err() != nil {
		return false
	}

	if _, err := os.Lstat(project.DBPath(dir)); err == nil {
		proj, err := s.prober.Peek(ctx, dir)
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			s.logger.Debug("skipping unreadable project", "path", dir, "error", err)
			return yield(Result{Warning: &Warning{Path: dir, Err: project.WrapStoreError("reading project", err)}})
		}
		return yield(Result{Project: proj})
	} else if !errors.Is(err, fs.ErrNotExist) {
		return yield(Result{Warning: &Warning{Path: dir, Err: err}})
	}

	if s.opts.MaxDepth >= 0 && depth >= s.opts.MaxDepth {
		return true
	}

	// ReadDir closes the handle before returning, so nothing stays open
	// while results are yielded.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return yield(Result{Warning: &Warning{Path: dir, Err: err}})
	}

	for _, entry := range entries {
		// Symlinks report a non-directory type here and are not followed.
		if !entry.IsDir() || s.skip(entry.Name()) {
			continue
		}
		if !s.walk(ctx, filepath.Join(dir, entry.Name()), depth+1, yield) {
			return false
		}
	}
	return true
}

func (s *Scanner) skip(name string) bool {
	if !s.opts.IncludeHidden && strings.HasPrefix(name, ".") {
		return true
	}
	return slices.Contains(s.opts.SkipDirs, name)
}
