package protocol

// SchemaDDL defines the SQLite schema for the yolla runtime database.
// Tables: events (lifecycle event log), tasks (persisted task table for
// out-of-process status rendering). Execute with: db.Exec(SchemaDDL)
const SchemaDDL = `
-- Runtime event log: every directive and registry transition
CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY,
    type TEXT NOT NULL,
    source TEXT NOT NULL,
    task_id TEXT,
    agent_id TEXT,
    payload TEXT,
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);

-- Task table mirror: upserted by the registry sink on every transition
CREATE TABLE IF NOT EXISTS tasks (
    task_id TEXT PRIMARY KEY,
    agent_id TEXT NOT NULL,
    description TEXT NOT NULL,
    state TEXT NOT NULL,
    progress INTEGER NOT NULL DEFAULT 0,
    failure_reason TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS events_task_idx ON events(task_id);
CREATE INDEX IF NOT EXISTS events_type_idx ON events(type);
`
