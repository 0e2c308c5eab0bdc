package eval

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/assaylabs/assay/internal/domain/project"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for a burst of changes to settle.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads a project's evals whenever its evals directory changes.
type Watcher struct {
	loader   *Loader
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher creates a watcher backed by loader.
func NewWatcher(loader *Loader, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{loader: loader, debounce: debounce, logger: logger}
}

// Watch calls fn with the current listing, then again after every settled
// burst of changes, until ctx is done. fn runs on the calling goroutine.
func (w *Watcher) Watch(ctx context.Context, projectPath string, fn func(*Listing)) error {
	dir, err := project.Canonicalize(projectPath)
	if err != nil {
		return fmt.Errorf("%w: %w", project.ErrPathInvalid, err)
	}
	evalsDir := filepath.Join(dir, project.EvalsDir)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	// The project dir is watched so evals/ appearing later is noticed.
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	if err := fsw.Add(evalsDir); err != nil {
		w.logger.Debug("evals directory not watched yet", "path", evalsDir, "error", err)
	}

	reload := func() bool {
		listing, err := w.loader.List(ctx, dir)
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			w.logger.Warn("failed to reload evals", "path", dir, "error", err)
			return true
		}
		fn(listing)
		return true
	}

	if !reload() {
		return nil
	}

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Name == evalsDir && event.Has(fsnotify.Create) {
				if err := fsw.Add(evalsDir); err != nil {
					w.logger.Warn("failed to watch evals directory", "path", evalsDir, "error", err)
				}
			}
			if event.Name != evalsDir && filepath.Dir(event.Name) != evalsDir {
				continue
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}

			w.logger.Debug("eval change detected", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)

		case <-pending:
			pending = nil
			if !reload() {
				return nil
			}
		}
	}
}
