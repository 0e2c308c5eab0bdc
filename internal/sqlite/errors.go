package sqlite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/assaylabs/assay/internal/repository"
	driver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// errorCode returns the extended SQLite result code carried by err, or 0.
func errorCode(err error) int {
	var e *driver.Error
	if errors.As(err, &e) {
		return e.Code()
	}
	return 0
}

// isBusy reports lock contention, which is transient and must not be
// reported as corruption.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	switch errorCode(err) & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

// classifyReadError maps a failed metadata read onto a repository sentinel.
func classifyReadError(err error) error {
	code := errorCode(err)
	switch {
	case code == sqlite3.SQLITE_READONLY_ROLLBACK:
		return fmt.Errorf("%w: %w", repository.ErrNeedsRecovery, err)
	case isBusy(err):
		return fmt.Errorf("%w: %w", repository.ErrLocked, err)
	}
	switch code & 0xff {
	case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_PERM, sqlite3.SQLITE_AUTH, sqlite3.SQLITE_READONLY:
		return fmt.Errorf("%w: %w", repository.ErrPathInvalid, err)
	}
	return fmt.Errorf("%w: %w", repository.ErrCorrupt, err)
}
