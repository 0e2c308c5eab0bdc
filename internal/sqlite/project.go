package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/assaylabs/assay/internal/domain/project"
	"github.com/assaylabs/assay/internal/repository"
	"github.com/assaylabs/assay/internal/schema"
)

// StoreOptions configures a ProjectStore.
type StoreOptions struct {
	LockTimeout time.Duration
	BusyTimeout time.Duration
	Logger      *slog.Logger
}

// ProjectStore keeps project metadata in the per-project database file
// <dir>/.assay/assay.db.
type ProjectStore struct {
	guard  *schema.Guard
	opts   StoreOptions
	logger *slog.Logger
}

// NewProjectStore creates a store that bootstraps and migrates databases with
// the given guard.
func NewProjectStore(guard *schema.Guard, opts StoreOptions) *ProjectStore {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 10 * time.Second
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = 5 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ProjectStore{guard: guard, opts: opts, logger: logger}
}

// Initialize creates the database for a new project. The file appears at its
// final location fully populated or not at all.
func (s *ProjectStore) Initialize(ctx context.Context, dir string, proj *project.Project) error {
	internal := filepath.Join(dir, project.InternalDir)
	if err := os.MkdirAll(internal, 0o755); err != nil {
		return fmt.Errorf("prepare %s: %w: %w", internal, repository.ErrPathInvalid, err)
	}

	unlock, err := s.lock(ctx, dir)
	if err != nil {
		return err
	}
	defer unlock()

	dbPath := project.DBPath(dir)
	if _, err := os.Lstat(dbPath); err == nil {
		_, err := s.readMeta(ctx, dir)
		if errors.Is(err, repository.ErrNeedsRecovery) {
			_, err = s.recoverMeta(ctx, dir)
		}
		if err != nil && !errors.Is(err, schema.ErrVersionMismatch) {
			return err
		}
		return fmt.Errorf("%s: %w", dir, repository.ErrAlreadyExists)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w: %w", dbPath, repository.ErrPathInvalid, err)
	}

	tmp, err := os.CreateTemp(internal, project.DBFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp database: %w: %w", repository.ErrPathInvalid, err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()

	renamed := false
	defer func() {
		if !renamed {
			removeTemp(tmpPath)
		}
	}()

	version, err := s.build(ctx, tmpPath, proj)
	if err != nil {
		return err
	}
	if err := syncFile(tmpPath); err != nil {
		return fmt.Errorf("sync temp database: %w", err)
	}
	if err := os.Rename(tmpPath, dbPath); err != nil {
		return fmt.Errorf("install database: %w", err)
	}
	renamed = true
	if err := syncDir(internal); err != nil {
		return fmt.Errorf("sync %s: %w", internal, err)
	}

	proj.Version = version
	proj.DBPath = dbPath
	s.logger.Debug("project database initialized", "path", dbPath, "version", version)
	return nil
}

func (s *ProjectStore) build(ctx context.Context, path string, proj *project.Project) (int, error) {
	db, err := Open(path, OpenOptions{BusyTimeout: s.opts.BusyTimeout})
	if err != nil {
		return 0, err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	version, err := s.guard.Bootstrap(ctx, tx)
	if err != nil {
		return 0, fmt.Errorf("bootstrap schema: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO project_meta (singleton, id, name, created_at, version) VALUES (1, ?, ?, ?, ?)`,
		proj.ID, proj.Name, formatTime(proj.CreatedAt), version,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to write project metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return version, nil
}

// Load reads project metadata and migrates older databases in place. A
// database newer than the guard supports is reported and left untouched.
// An interrupted write is rolled back first.
func (s *ProjectStore) Load(ctx context.Context, dir string) (*project.Project, error) {
	proj, err := s.readMeta(ctx, dir)
	if errors.Is(err, repository.ErrNeedsRecovery) {
		proj, err = s.recoverJournal(ctx, dir)
	}
	if err != nil {
		return nil, err
	}

	outcome, err := s.guard.Check(proj.Version)
	switch outcome {
	case schema.Compatible:
		return proj, nil
	case schema.Incompatible:
		return nil, err
	}
	return s.migrate(ctx, dir)
}

// Peek reads project metadata without changing the database. An interrupted
// write is reported as repository.ErrNeedsRecovery rather than rolled back.
func (s *ProjectStore) Peek(ctx context.Context, dir string) (*project.Project, error) {
	proj, err := s.readMeta(ctx, dir)
	if err != nil {
		return nil, err
	}
	if outcome, err := s.guard.Check(proj.Version); outcome == schema.Incompatible {
		return nil, err
	}
	return proj, nil
}

// Write persists the mutable metadata fields of an existing project.
func (s *ProjectStore) Write(ctx context.Context, dir string, proj *project.Project) error {
	unlock, err := s.lock(ctx, dir)
	if err != nil {
		return err
	}
	defer unlock()

	db, err := Open(project.DBPath(dir), OpenOptions{BusyTimeout: s.opts.BusyTimeout})
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE project_meta SET name = ? WHERE singleton = 1 AND id = ?`,
		proj.Name, proj.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *ProjectStore) recoverJournal(ctx context.Context, dir string) (*project.Project, error) {
	unlock, err := s.lock(ctx, dir)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.recoverMeta(ctx, dir)
}

// recoverMeta re-reads metadata over a read-write connection, which makes
// SQLite roll back a hot journal. The caller holds the project lock.
func (s *ProjectStore) recoverMeta(ctx context.Context, dir string) (*project.Project, error) {
	dbPath := project.DBPath(dir)
	db, err := Open(dbPath, OpenOptions{BusyTimeout: s.opts.BusyTimeout})
	if err != nil {
		return nil, err
	}
	defer db.Close()

	proj, err := scanMeta(ctx, db, dir)
	if err != nil {
		return nil, err
	}
	s.logger.Warn("rolled back interrupted write", "path", dbPath)
	return proj, nil
}

func (s *ProjectStore) migrate(ctx context.Context, dir string) (*project.Project, error) {
	unlock, err := s.lock(ctx, dir)
	if err != nil {
		return nil, err
	}
	defer unlock()

	db, err := Open(project.DBPath(dir), OpenOptions{BusyTimeout: s.opts.BusyTimeout})
	if err != nil {
		return nil, err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Another process may have migrated while we waited for the lock.
	proj, err := scanMeta(ctx, tx, dir)
	if err != nil {
		return nil, err
	}
	outcome, err := s.guard.Check(proj.Version)
	switch outcome {
	case schema.Compatible:
		return proj, nil
	case schema.Incompatible:
		return nil, err
	}

	from := proj.Version
	to, err := s.guard.Migrate(ctx, tx, from)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE project_meta SET version = ? WHERE singleton = 1`, to); err != nil {
		return nil, fmt.Errorf("failed to record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit migration: %w", err)
	}

	proj.Version = to
	s.logger.Info("project database migrated", "path", proj.DBPath, "from", from, "to", to)
	return proj, nil
}

// readMeta opens the database read-only and returns its metadata row. A file
// that cannot be reached is ErrPathInvalid; one that is not a readable
// project database is ErrCorrupt.
func (s *ProjectStore) readMeta(ctx context.Context, dir string) (*project.Project, error) {
	dbPath := project.DBPath(dir)
	info, err := os.Stat(dbPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", dbPath, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w: %w", dbPath, repository.ErrPathInvalid, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file: %w", dbPath, repository.ErrCorrupt)
	}

	db, err := Open(dbPath, OpenOptions{ReadOnly: true, BusyTimeout: s.opts.BusyTimeout})
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return scanMeta(ctx, db, dir)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanMeta(ctx context.Context, q queryRower, dir string) (*project.Project, error) {
	var (
		proj      project.Project
		createdAt string
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, name, created_at, version FROM project_meta WHERE singleton = 1`,
	).Scan(&proj.ID, &proj.Name, &createdAt, &proj.Version)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("project metadata missing: %w", repository.ErrCorrupt)
		}
		return nil, fmt.Errorf("failed to read project metadata: %w", classifyReadError(err))
	}

	proj.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at %q: %w", createdAt, repository.ErrCorrupt)
	}
	if strings.TrimSpace(proj.ID) == "" || strings.TrimSpace(proj.Name) == "" {
		return nil, fmt.Errorf("incomplete project metadata: %w", repository.ErrCorrupt)
	}
	if proj.Version < 1 {
		return nil, fmt.Errorf("invalid schema version %d: %w", proj.Version, repository.ErrCorrupt)
	}

	proj.Path = dir
	proj.DBPath = project.DBPath(dir)
	return &proj, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
