package sqlite

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/assaylabs/assay/internal/domain/project"
	"github.com/assaylabs/assay/internal/repository"
	"github.com/gofrs/flock"
)

const lockRetryDelay = 25 * time.Millisecond

// lock takes the project's advisory lock, waiting up to LockTimeout.
func (s *ProjectStore) lock(ctx context.Context, dir string) (func(), error) {
	path := project.LockPath(dir)
	fl := flock.New(path)

	lockCtx, cancel := context.WithTimeout(ctx, s.opts.LockTimeout)
	defer cancel()

	ok, err := fl.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case errors.Is(err, context.DeadlineExceeded):
			return nil, fmt.Errorf("%s: %w", path, repository.ErrLocked)
		case errors.Is(err, fs.ErrPermission), errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("lock %s: %w: %w", path, repository.ErrPathInvalid, err)
		}
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, repository.ErrLocked)
	}

	return func() {
		if err := fl.Unlock(); err != nil {
			s.logger.Warn("failed to release project lock", "path", path, "error", err)
		}
	}, nil
}
