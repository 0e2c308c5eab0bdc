package discovery

import (
	"context"

	"github.com/assaylabs/assay/internal/domain/project"
)

// Prober reads project metadata without modifying it.
type Prober interface {
	Peek(ctx context.Context, dir string) (*project.Project, error)
}
