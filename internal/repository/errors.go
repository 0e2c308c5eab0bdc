package repository

import "errors"

var (
	// ErrNotFound is returned when no project database exists at a path
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when a valid project database already occupies a path
	ErrAlreadyExists = errors.New("already exists")

	// ErrCorrupt is returned when a project database exists but cannot be read
	ErrCorrupt = errors.New("corrupt")

	// ErrPathInvalid is returned when a path is not a writable directory
	ErrPathInvalid = errors.New("path invalid")

	// ErrNeedsRecovery is returned when a read-only open finds an interrupted
	// write that only a read-write connection can roll back
	ErrNeedsRecovery = errors.New("interrupted write needs recovery")

	// ErrLocked is returned when the project lock could not be acquired in time
	ErrLocked = errors.New("project locked by another process")
)
