package project

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/assaylabs/assay/internal/repository"
	"github.com/google/uuid"
)

// Service handles project create/open/rename.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new project service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	Path string
	Name string
}

// Create turns a directory into a project. The directory is created if it
// does not exist yet.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.Path) == "" {
		return nil, fmt.Errorf("%w: path is required", ErrPathInvalid)
	}

	abs, err := filepath.Abs(req.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPathInvalid, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPathInvalid, err)
	}
	dir, err := Canonicalize(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPathInvalid, err)
	}

	proj := &Project{
		ID:        uuid.NewString(),
		Name:      name,
		Path:      dir,
		CreatedAt: s.now().UTC(),
		DBPath:    DBPath(dir),
	}

	if err := s.store.Initialize(ctx, dir, proj); err != nil {
		return nil, WrapStoreError("creating project", err)
	}

	for _, sub := range ScaffoldDirs {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			s.logger.Warn("failed to scaffold project directory", "path", dir, "dir", sub, "error", err)
		}
	}

	s.logger.Info("project created", "id", proj.ID, "path", dir, "version", proj.Version)
	return proj, nil
}

// Open loads an existing project, migrating its metadata if it is older than
// the current schema.
func (s *Service) Open(ctx context.Context, path string) (*Project, error) {
	dir, err := Canonicalize(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProjectNotFound, err)
	}

	proj, err := s.store.Load(ctx, dir)
	if err != nil {
		return nil, WrapStoreError("opening project", err)
	}
	s.logger.Debug("project opened", "id", proj.ID, "path", dir, "version", proj.Version)
	return proj, nil
}

// Rename changes the display name of an existing project.
func (s *Service) Rename(ctx context.Context, path, name string) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	proj, err := s.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	if proj.Name == name {
		return proj, nil
	}

	updated := *proj
	updated.Name = name
	if err := s.store.Write(ctx, proj.Path, &updated); err != nil {
		return nil, WrapStoreError("renaming project", err)
	}
	s.logger.Info("project renamed", "id", proj.ID, "from", proj.Name, "to", name)
	return &updated, nil
}

// WrapStoreError translates store failures into this package's errors.
func WrapStoreError(op string, err error) error {
	switch {
	case errors.Is(err, ErrVersionMismatch):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s: %w: %w", op, ErrProjectNotFound, err)
	case errors.Is(err, repository.ErrAlreadyExists):
		return fmt.Errorf("%s: %w: %w", op, ErrAlreadyExists, err)
	case errors.Is(err, repository.ErrNeedsRecovery):
		return fmt.Errorf("%s: %w: %w", op, ErrNeedsRecovery, err)
	case errors.Is(err, repository.ErrCorrupt):
		return fmt.Errorf("%s: %w: %w", op, ErrCorrupt, err)
	case errors.Is(err, repository.ErrPathInvalid):
		return fmt.Errorf("%s: %w: %w", op, ErrPathInvalid, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
