package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/assaylabs/assay/internal/schema"
	"github.com/stretchr/testify/require"
)

// NewTestDB creates a bootstrapped database file in a temp dir for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path, OpenOptions{})
	require.NoError(t, err, "failed to create test database")
	t.Cleanup(func() {
		db.Close()
	})

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = schema.Default().Bootstrap(ctx, tx)
	require.NoError(t, err, "failed to bootstrap schema")
	require.NoError(t, tx.Commit())

	return db
}

func TestDSN(t *testing.T) {
	rw := dsn("/tmp/my project/.assay/assay.db", OpenOptions{BusyTimeout: 2 * time.Second})
	require.True(t, strings.HasPrefix(rw, "file:///tmp/my%20project/.assay/assay.db?"), rw)
	require.Contains(t, rw, "busy_timeout%282000%29")
	require.Contains(t, rw, "foreign_keys%281%29")
	require.NotContains(t, rw, "mode=ro")

	ro := dsn("/tmp/p/.assay/assay.db", OpenOptions{ReadOnly: true})
	require.Contains(t, ro, "mode=ro")
	require.Contains(t, ro, "busy_timeout%285000%29")
}

// TestForeignKeys verifies that foreign key constraints are enabled
func TestForeignKeys(t *testing.T) {
	db := NewTestDB(t)

	var enabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	require.Equal(t, 1, enabled, "foreign keys not enabled")

	_, err = db.Exec(`INSERT INTO samples (id, run_id, index_num, input_json, status) VALUES ('s1', 'missing', 0, '{}', 'done')`)
	require.Error(t, err, "should fail with unknown run_id")
}

// TestSamplesSearchIndex verifies the full-text index follows sample writes
func TestSamplesSearchIndex(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `INSERT INTO eval_runs (id, project_id, eval_id, model_id, started_at, status, config_json)
		VALUES ('r1', 'p1', 'e1', 'm1', CURRENT_TIMESTAMP, 'done', '{}')`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO samples (id, run_id, index_num, input_json, output_json, status)
		VALUES ('s1', 'r1', 0, '{"prompt":"largest ocean"}', '{"text":"pacific"}', 'done')`)
	require.NoError(t, err)

	var count int
	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM samples_fts WHERE samples_fts MATCH ?`, "pacific").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	_, err = db.ExecContext(ctx, `UPDATE samples SET output_json = ? WHERE id = 's1'`, `{"text":"atlantic"}`)
	require.NoError(t, err)

	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM samples_fts WHERE samples_fts MATCH ?`, "pacific").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 0, count, "old output should leave the index after update")
}

func TestOpen_ReadOnlyRejectsWrites(t *testing.T) {
	db := NewTestDB(t)
	var path string
	require.NoError(t, db.QueryRow(`SELECT file FROM pragma_database_list WHERE name = 'main'`).Scan(&path))
	require.NoError(t, db.Close())

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	ro, err := Open(path, OpenOptions{ReadOnly: true})
	require.NoError(t, err)
	defer ro.Close()

	_, err = ro.Exec(`CREATE TABLE nope (id TEXT)`)
	require.Error(t, err)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, before, after)
}
