package integration_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/assaylabs/assay/internal/app"
	"github.com/assaylabs/assay/internal/config"
	"github.com/assaylabs/assay/internal/domain/eval"
	"github.com/assaylabs/assay/internal/domain/project"
	"github.com/assaylabs/assay/internal/sqlite"
	"github.com/assaylabs/assay/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	root string
	app  *app.App
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root, err := project.Canonicalize(t.TempDir())
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Store.LockTimeout = 10 * time.Second
	return &testEnv{root: root, app: app.New(cfg, testutil.NewTestLogger(t))}
}

func (e *testEnv) create(t *testing.T, rel, name string) *project.Project {
	t.Helper()
	proj, err := e.app.Projects.Create(context.Background(), project.CreateRequest{
		Path: filepath.Join(e.root, rel),
		Name: name,
	})
	require.NoError(t, err)
	return proj
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// bumpVersion rewrites the stored schema version as a newer build would.
func bumpVersion(t *testing.T, proj *project.Project, version int) {
	t.Helper()
	db, err := sqlite.Open(proj.DBPath, sqlite.OpenOptions{})
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`UPDATE project_meta SET version = ?`, version)
	require.NoError(t, err)
}

func TestIntegration_CreateThenOpenRoundTrips(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created := env.create(t, "alpha", "Alpha")
	for _, sub := range project.ScaffoldDirs {
		assert.DirExists(t, filepath.Join(created.Path, sub))
	}

	opened, err := env.app.Projects.Open(ctx, filepath.Join(env.root, "alpha"))
	require.NoError(t, err)
	assert.Equal(t, created.ID, opened.ID)
	assert.True(t, created.CreatedAt.Equal(opened.CreatedAt))
	assert.Equal(t, created.DBPath, opened.DBPath)
	assert.Equal(t, created.Version, opened.Version)
}

func TestIntegration_SecondCreateFails(t *testing.T) {
	env := newTestEnv(t)
	env.create(t, "alpha", "Alpha")

	// Same canonical path spelled differently.
	_, err := env.app.Projects.Create(context.Background(), project.CreateRequest{
		Path: filepath.Join(env.root, "alpha", "..", "alpha") + string(filepath.Separator),
		Name: "Again",
	})
	require.ErrorIs(t, err, project.ErrAlreadyExists)
}

func TestIntegration_OpenWithoutDatabase(t *testing.T) {
	env := newTestEnv(t)
	dir := filepath.Join(env.root, "plain")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	_, err := env.app.Projects.Open(context.Background(), dir)
	require.ErrorIs(t, err, project.ErrProjectNotFound)
}

func TestIntegration_NewerVersionIsRefusedAndUntouched(t *testing.T) {
	env := newTestEnv(t)
	proj := env.create(t, "future", "Future")
	bumpVersion(t, proj, proj.Version+1)

	before, err := os.ReadFile(proj.DBPath)
	require.NoError(t, err)

	_, err = env.app.Projects.Open(context.Background(), proj.Path)
	require.ErrorIs(t, err, project.ErrVersionMismatch)

	after, err := os.ReadFile(proj.DBPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// Discovery reports it as a warning rather than a project.
	listing, err := env.app.Scanner.List(context.Background(), env.root)
	require.NoError(t, err)
	assert.Empty(t, listing.Projects)
	require.Len(t, listing.Warnings, 1)
	assert.ErrorIs(t, listing.Warnings[0], project.ErrVersionMismatch)
}

func TestIntegration_ListSkipsInvalidProjects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	valid := []string{"a", "b/nested", "c"}
	for _, rel := range valid {
		env.create(t, rel, "P "+rel)
	}
	writeFile(t, filepath.Join(env.root, "broken", project.InternalDir, project.DBFile), "not sqlite")
	writeFile(t, filepath.Join(env.root, "empty", project.InternalDir, project.DBFile), "")
	require.NoError(t, os.MkdirAll(filepath.Join(env.root, "plain"), 0o755))

	first, err := env.app.Scanner.List(ctx, env.root)
	require.NoError(t, err)
	require.Len(t, first.Projects, len(valid))
	assert.Len(t, first.Warnings, 2)

	second, err := env.app.Scanner.List(ctx, env.root)
	require.NoError(t, err)
	for i := range first.Projects {
		assert.Equal(t, first.Projects[i].Path, second.Projects[i].Path, "order is stable")
	}
}

func TestIntegration_EvalsWithOneMalformedFile(t *testing.T) {
	env := newTestEnv(t)
	proj := env.create(t, "evals", "Evals")
	evals := filepath.Join(proj.Path, project.EvalsDir)

	writeFile(t, filepath.Join(evals, "a.yaml"), "name: Alpha\n")
	writeFile(t, filepath.Join(evals, "b.json"), `{"name": "Bravo"}`)
	writeFile(t, filepath.Join(evals, "c.toml"), "name = \"Charlie\"\n")
	writeFile(t, filepath.Join(evals, "d.yaml"), "name: [oops\n")

	listing, err := env.app.Loader.List(context.Background(), proj.Path)
	require.NoError(t, err)
	assert.Len(t, listing.Evals, 3)
	require.Len(t, listing.Errors, 1)
	assert.Equal(t, filepath.Join(evals, "d.yaml"), listing.Errors[0].Path)
}

func TestIntegration_DuplicateEvalIDs(t *testing.T) {
	env := newTestEnv(t)
	proj := env.create(t, "dups", "Dups")
	evals := filepath.Join(proj.Path, project.EvalsDir)

	writeFile(t, filepath.Join(evals, "1.yaml"), "id: same\nname: One\n")
	writeFile(t, filepath.Join(evals, "2.yaml"), "id: same\nname: Two\n")

	listing, err := env.app.Loader.List(context.Background(), proj.Path)
	require.NoError(t, err)
	require.Len(t, listing.Evals, 1)
	assert.Equal(t, "One", listing.Evals[0].Name)
	require.Len(t, listing.Errors, 1)
	assert.ErrorIs(t, listing.Errors[0], eval.ErrDuplicateID)
}

func TestIntegration_NoEvalsDirectory(t *testing.T) {
	env := newTestEnv(t)
	proj := env.create(t, "bare", "Bare")
	require.NoError(t, os.RemoveAll(filepath.Join(proj.Path, project.EvalsDir)))

	listing, err := env.app.Loader.List(context.Background(), proj.Path)
	require.NoError(t, err)
	assert.Empty(t, listing.Evals)
	assert.Empty(t, listing.Errors)
}

func TestIntegration_ConcurrentCreates(t *testing.T) {
	env := newTestEnv(t)
	dir := filepath.Join(env.root, "race")

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = env.app.Projects.Create(context.Background(), project.CreateRequest{
				Path: dir,
				Name: fmt.Sprintf("racer %d", i),
			})
		}()
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, project.ErrAlreadyExists):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)

	proj, err := env.app.Projects.Open(context.Background(), dir)
	require.NoError(t, err)
	assert.NotEmpty(t, proj.ID)
}
