// Package eventlog persists lifecycle events and the task table mirror to
// the yolla SQLite state database. The append side is the registry's
// production sink; the read side serves yolla logs, yolla status, and the
// dashboard.
package eventlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"yolla/pkg/protocol"
)

// sqliteTimeFormat is the timestamp layout stored in the state database.
const sqliteTimeFormat = "2006-01-02 15:04:05"

// Log appends events to the events table. Safe for concurrent use; SQLite
// serializes writers and the database is opened with a busy timeout.
type Log struct {
	db *sql.DB

	// nowFunc allows tests to control time.
	nowFunc func() time.Time
}

// New creates a Log over an open database. Callers are expected to have
// executed protocol.SchemaDDL.
func New(db *sql.DB) *Log {
	return &Log{db: db, nowFunc: time.Now}
}

// Append writes one event row.
func (l *Log) Append(ctx context.Context, typ, source, taskID, agentID, payload string) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO events (type, source, task_id, agent_id, payload, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		typ, source, taskID, agentID, payload, l.nowFunc().UTC().Format(sqliteTimeFormat))
	if err != nil {
		return fmt.Errorf("append event %s: %w", typ, err)
	}
	return nil
}

// Tasks returns every persisted task snapshot, oldest first. Conductor
// turns run in separate processes; this feeds registry.Restore so later
// turns can address tasks started in earlier ones.
func (l *Log) Tasks(ctx context.Context) ([]protocol.Task, error) {
	rows, err := l.db.QueryContext(ctx, `
SELECT task_id, agent_id, description, state, progress, failure_reason, created_at, updated_at
FROM tasks ORDER BY created_at, task_id`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []protocol.Task
	for rows.Next() {
		var t protocol.Task
		var state, createdAt, updatedAt string
		if err := rows.Scan(&t.ID, &t.AgentID, &t.Description, &state,
			&t.Progress, &t.FailureReason, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.State = protocol.TaskState(state)
		if t.CreatedAt, err = parseSQLiteTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		if t.UpdatedAt, err = parseSQLiteTime(updatedAt); err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// upsertTask mirrors a task snapshot into the tasks table.
func (l *Log) upsertTask(ctx context.Context, task protocol.Task) error {
	_, err := l.db.ExecContext(ctx, `
INSERT INTO tasks (task_id, agent_id, description, state, progress, failure_reason, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(task_id) DO UPDATE SET
    state = excluded.state,
    progress = excluded.progress,
    failure_reason = excluded.failure_reason,
    updated_at = excluded.updated_at`,
		task.ID, task.AgentID, task.Description, string(task.State), task.Progress,
		task.FailureReason,
		task.CreatedAt.UTC().Format(sqliteTimeFormat),
		task.UpdatedAt.UTC().Format(sqliteTimeFormat))
	if err != nil {
		return fmt.Errorf("upsert task %s: %w", task.ID, err)
	}
	return nil
}

// Sink adapts the Log to the registry's sink interface. source labels where
// the events came from (one pipeline session id per conductor run).
type Sink struct {
	log    *Log
	source string
}

// NewSink creates a registry sink writing through log with the given source.
func NewSink(log *Log, source string) *Sink {
	return &Sink{log: log, source: source}
}

// TaskEvent records the event and, when the snapshot carries a state,
// refreshes the task table mirror. Best-effort: storage errors must never
// stall registry operations.
func (s *Sink) TaskEvent(ctx context.Context, typ string, task protocol.Task, payload string) {
	_ = s.log.Append(ctx, typ, s.source, task.ID, task.AgentID, payload)
	if task.State.Valid() {
		_ = s.log.upsertTask(ctx, task)
	}
}
