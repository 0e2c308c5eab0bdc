package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// On-disk layout of a project directory.
const (
	InternalDir = ".assay"
	DBFile      = "assay.db"
	LockFile    = "assay.lock"
	EvalsDir    = "evals"
)

// ScaffoldDirs are created alongside a new project.
var ScaffoldDirs = []string{"evals", "datasets", "results", "models", "plugins"}

// DBPath returns the database location for a canonical project directory.
func DBPath(dir string) string {
	return filepath.Join(dir, InternalDir, DBFile)
}

// LockPath returns the advisory lock file for a canonical project directory.
func LockPath(dir string) string {
	return filepath.Join(dir, InternalDir, LockFile)
}

// Canonicalize returns the absolute, symlink-free, cleaned form of an existing
// directory. Case is preserved as reported by the filesystem.
func Canonicalize(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	resolved = filepath.Clean(resolved)

	info, err := os.Stat(resolved)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", resolved)
	}
	return resolved, nil
}
