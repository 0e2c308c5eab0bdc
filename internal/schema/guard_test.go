package schema

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestGuard_Check(t *testing.T) {
	g := Default()
	require.Equal(t, 2, g.Current())

	tests := []struct {
		name     string
		version  int
		want     Outcome
		mismatch bool
	}{
		{name: "current", version: 2, want: Compatible},
		{name: "older", version: 1, want: Migratable},
		{name: "newer", version: 3, want: Incompatible, mismatch: true},
		{name: "zero", version: 0, want: Incompatible, mismatch: true},
		{name: "negative", version: -4, want: Incompatible, mismatch: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.Check(tt.version)
			require.Equal(t, tt.want, got)
			if !tt.mismatch {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrVersionMismatch)
			var vm *VersionMismatchError
			require.True(t, errors.As(err, &vm))
			require.Equal(t, tt.version, vm.Found)
			require.Equal(t, 2, vm.Supported)
		})
	}
}

func TestNewGuard_RejectsGaps(t *testing.T) {
	noop := func(context.Context, *sql.Tx) error { return nil }

	_, err := NewGuard()
	require.Error(t, err)

	_, err = NewGuard(Step{Version: 1, Name: "a", Up: noop}, Step{Version: 3, Name: "c", Up: noop})
	require.Error(t, err)

	_, err = NewGuard(Step{Version: 1, Name: "a"})
	require.Error(t, err)
}

func TestGuard_BootstrapCreatesTables(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	g := Default()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	version, err := g.Bootstrap(ctx, tx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.Equal(t, g.Current(), version)

	for _, table := range []string{"project_meta", "eval_runs", "samples", "annotations", "samples_fts"} {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}
}

func TestGuard_MigrateFromV1(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	v1, err := NewGuard(defaultSteps[0])
	require.NoError(t, err)
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = v1.Bootstrap(ctx, tx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	_, err = db.Exec(`INSERT INTO eval_runs (id, project_id, eval_id, model_id, started_at, status, config_json)
		VALUES ('r1', 'p1', 'e1', 'm1', CURRENT_TIMESTAMP, 'done', '{}')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO samples (id, run_id, index_num, input_json, output_json, status)
		VALUES ('s1', 'r1', 0, '{"prompt":"capital of peru"}', '{"text":"lima"}', 'done')`)
	require.NoError(t, err)

	tx, err = db.BeginTx(ctx, nil)
	require.NoError(t, err)
	version, err := Default().Migrate(ctx, tx, 1)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.Equal(t, 2, version)

	// Existing samples are searchable after the backfill.
	var count int
	err = db.QueryRow(`SELECT COUNT(*) FROM samples_fts WHERE samples_fts MATCH ?`, "lima").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestGuard_MigrateFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	boom := errors.New("boom")
	g, err := NewGuard(
		Step{Version: 1, Name: "base", Up: execStep(`CREATE TABLE base (id TEXT)`)},
		Step{Version: 2, Name: "half", Up: execStep(`CREATE TABLE half (id TEXT)`)},
		Step{Version: 3, Name: "fails", Up: func(context.Context, *sql.Tx) error { return boom }},
	)
	require.NoError(t, err)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = g.apply(ctx, tx, 0)
	require.ErrorIs(t, err, boom)
	require.NoError(t, tx.Rollback())

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table'").Scan(&count)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestGuard_MigrateRefusesNewer(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = Default().Migrate(ctx, tx, 9)
	require.ErrorIs(t, err, ErrVersionMismatch)
}
