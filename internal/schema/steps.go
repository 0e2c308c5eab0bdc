package schema

import (
	"context"
	"database/sql"
)

var defaultSteps = []Step{
	{Version: 1, Name: "initial_schema", Up: execStep(initialSchema)},
	{Version: 2, Name: "annotations_and_search", Up: execStep(annotationsAndSearch)},
}

func execStep(ddl string) func(ctx context.Context, tx *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, ddl)
		return err
	}
}

const initialSchema = `
-- Project metadata (exactly one row)
CREATE TABLE project_meta (
    singleton INTEGER PRIMARY KEY CHECK (singleton = 1),
    id TEXT NOT NULL,
    name TEXT NOT NULL,
    created_at TEXT NOT NULL,
    version INTEGER NOT NULL
);

-- Eval runs
CREATE TABLE eval_runs (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    eval_id TEXT NOT NULL,
    model_id TEXT NOT NULL,
    started_at TIMESTAMP NOT NULL,
    completed_at TIMESTAMP,
    status TEXT NOT NULL,
    config_json TEXT NOT NULL,
    metrics_json TEXT
);
CREATE INDEX idx_runs_eval ON eval_runs(eval_id);

-- Samples produced by a run
CREATE TABLE samples (
    id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL,
    index_num INTEGER NOT NULL,
    input_json TEXT NOT NULL,
    output_json TEXT,
    scores_json TEXT,
    trajectory_json TEXT,
    status TEXT NOT NULL,
    latency_ms INTEGER,
    tokens_input INTEGER,
    tokens_output INTEGER,
    FOREIGN KEY (run_id) REFERENCES eval_runs(id)
);
CREATE INDEX idx_samples_run ON samples(run_id);
`

const annotationsAndSearch = `
CREATE TABLE annotations (
    id TEXT PRIMARY KEY,
    sample_id TEXT NOT NULL,
    author TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    annotation_type TEXT NOT NULL,
    content TEXT NOT NULL,
    FOREIGN KEY (sample_id) REFERENCES samples(id)
);
CREATE INDEX idx_annotations_sample ON annotations(sample_id);

-- Full-text search over sample input/output (SQLite FTS5)
CREATE VIRTUAL TABLE samples_fts USING fts5(
    input_json,
    output_json,
    content='samples',
    content_rowid='rowid'
);

CREATE TRIGGER samples_ai AFTER INSERT ON samples BEGIN
    INSERT INTO samples_fts(rowid, input_json, output_json)
    VALUES (new.rowid, new.input_json, new.output_json);
END;

CREATE TRIGGER samples_ad AFTER DELETE ON samples BEGIN
    INSERT INTO samples_fts(samples_fts, rowid, input_json, output_json)
    VALUES('delete', old.rowid, old.input_json, old.output_json);
END;

CREATE TRIGGER samples_au AFTER UPDATE ON samples BEGIN
    INSERT INTO samples_fts(samples_fts, rowid, input_json, output_json)
    VALUES('delete', old.rowid, old.input_json, old.output_json);
    INSERT INTO samples_fts(rowid, input_json, output_json)
    VALUES (new.rowid, new.input_json, new.output_json);
END;

-- Backfill the index for samples written before this step
INSERT INTO samples_fts(rowid, input_json, output_json)
SELECT rowid, input_json, output_json FROM samples;
`
