package mocks

import (
	"context"

	"github.com/assaylabs/assay/internal/domain/project"
	"github.com/stretchr/testify/mock"
)

// ProjectStore is a mock for project.Store.
type ProjectStore struct {
	mock.Mock
}

func (m *ProjectStore) Initialize(ctx context.Context, dir string, proj *project.Project) error {
	args := m.Called(ctx, dir, proj)
	return args.Error(0)
}

func (m *ProjectStore) Load(ctx context.Context, dir string) (*project.Project, error) {
	args := m.Called(ctx, dir)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectStore) Peek(ctx context.Context, dir string) (*project.Project, error) {
	args := m.Called(ctx, dir)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectStore) Write(ctx context.Context, dir string, proj *project.Project) error {
	args := m.Called(ctx, dir, proj)
	return args.Error(0)
}
