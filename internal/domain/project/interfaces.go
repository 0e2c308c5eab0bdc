package project

import "context"

// Store persists project metadata in the embedded database under a project
// directory. All dir arguments are canonical.
type Store interface {
	Initialize(ctx context.Context, dir string, proj *Project) error
	Load(ctx context.Context, dir string) (*Project, error)
	Peek(ctx context.Context, dir string) (*Project, error)
	Write(ctx context.Context, dir string, proj *Project) error
}
