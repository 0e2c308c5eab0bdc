// Package schema decides whether on-disk project metadata can be used as-is,
// migrated forward, or must be refused, and applies ordered migration steps.
package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrVersionMismatch indicates metadata written by a newer (or unknown) schema.
var ErrVersionMismatch = errors.New("version mismatch")

// VersionMismatchError carries the versions involved in a refused check.
type VersionMismatchError struct {
	Found     int
	Supported int
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("version mismatch: metadata is at schema version %d, this build supports up to %d", e.Found, e.Supported)
}

// Is lets errors.Is match ErrVersionMismatch.
func (e *VersionMismatchError) Is(target error) bool {
	return target == ErrVersionMismatch
}

// Outcome is the result of a version check.
type Outcome int

const (
	Compatible Outcome = iota
	Migratable
	Incompatible
)

func (o Outcome) String() string {
	switch o {
	case Compatible:
		return "compatible"
	case Migratable:
		return "migratable"
	default:
		return "incompatible"
	}
}

// Step advances a database from Version-1 to Version.
type Step struct {
	Version int
	Name    string
	Up      func(ctx context.Context, tx *sql.Tx) error
}

// Guard holds the ordered migration steps for project databases.
type Guard struct {
	steps []Step
}

// NewGuard validates that steps are contiguous starting at version 1.
func NewGuard(steps ...Step) (*Guard, error) {
	if len(steps) == 0 {
		return nil, errors.New("schema: at least one step is required")
	}
	for i, step := range steps {
		if step.Version != i+1 {
			return nil, fmt.Errorf("schema: step %q has version %d, want %d", step.Name, step.Version, i+1)
		}
		if step.Up == nil {
			return nil, fmt.Errorf("schema: step %q has no Up func", step.Name)
		}
	}
	return &Guard{steps: steps}, nil
}

// Default returns the guard for the steps this build ships.
func Default() *Guard {
	g, err := NewGuard(defaultSteps...)
	if err != nil {
		panic(err)
	}
	return g
}

// Current is the newest schema version the guard knows.
func (g *Guard) Current() int {
	return len(g.steps)
}

// At returns a guard that stops at version, for producing databases the way
// an older build would.
func (g *Guard) At(version int) (*Guard, error) {
	if version < 1 || version > g.Current() {
		return nil, fmt.Errorf("schema: version %d out of range 1..%d", version, g.Current())
	}
	return NewGuard(g.steps[:version]...)
}

// Check classifies a stored version. Incompatible versions come back with a
// *VersionMismatchError.
func (g *Guard) Check(version int) (Outcome, error) {
	switch {
	case version == g.Current():
		return Compatible, nil
	case version >= 1 && version < g.Current():
		return Migratable, nil
	default:
		return Incompatible, &VersionMismatchError{Found: version, Supported: g.Current()}
	}
}

// Bootstrap applies every step to an empty database.
func (g *Guard) Bootstrap(ctx context.Context, tx *sql.Tx) (int, error) {
	return g.apply(ctx, tx, 0)
}

// Migrate applies the steps after from, inside tx. The caller commits; nothing
// is persisted if any step fails and the caller rolls back.
func (g *Guard) Migrate(ctx context.Context, tx *sql.Tx, from int) (int, error) {
	outcome, err := g.Check(from)
	if err != nil {
		return from, err
	}
	if outcome == Compatible {
		return from, nil
	}
	return g.apply(ctx, tx, from)
}

func (g *Guard) apply(ctx context.Context, tx *sql.Tx, from int) (int, error) {
	version := from
	for _, step := range g.steps[from:] {
		if err := step.Up(ctx, tx); err != nil {
			return from, fmt.Errorf("migration %03d_%s: %w", step.Version, step.Name, err)
		}
		version = step.Version
	}
	return version, nil
}
