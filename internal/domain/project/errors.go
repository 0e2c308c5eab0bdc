package project

import (
	"errors"

	"github.com/assaylabs/assay/internal/schema"
)

var (
	// ErrProjectNotFound indicates no project exists at the path.
	ErrProjectNotFound = errors.New("project not found")
	// ErrInvalidInput indicates invalid project input.
	ErrInvalidInput = errors.New("invalid project input")
	// ErrPathInvalid indicates the path is not an accessible, writable directory.
	ErrPathInvalid = errors.New("path is not an accessible directory")
	// ErrAlreadyExists indicates a valid project already occupies the path.
	ErrAlreadyExists = errors.New("project already exists")
	// ErrCorrupt indicates project metadata is present but unreadable.
	ErrCorrupt = errors.New("project metadata is corrupt")
	// ErrNeedsRecovery indicates an interrupted write that opening the
	// project will roll back.
	ErrNeedsRecovery = errors.New("project has an interrupted write")
	// ErrVersionMismatch indicates metadata newer than this build supports.
	ErrVersionMismatch = schema.ErrVersionMismatch
)
