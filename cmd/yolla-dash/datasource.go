package main

import (
	"context"
	"os"
	"path/filepath"

	"yolla/pkg/eventlog"
	"yolla/pkg/protocol"
)

// statePath returns the state database path from env or the default.
func statePath() string {
	if v := os.Getenv("YOLLA_DB_PATH"); v != "" {
		return v
	}
	if v := os.Getenv("YOLLA_HOME"); v != "" {
		return filepath.Join(v, "state.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, protocol.YollaDir, "state.db")
}

// fetchState reads the current task table and the event tail. Each fetch
// opens a fresh read-only handle so the dashboard survives the database
// appearing or disappearing underneath it.
func fetchState(ctx context.Context) ([]protocol.TaskRow, []eventlog.Event, error) {
	reader, err := eventlog.NewReader(statePath())
	if err != nil {
		return nil, nil, err
	}
	defer reader.Close()

	tasks, err := reader.ListTasks(ctx)
	if err != nil {
		return nil, nil, err
	}

	events, err := reader.QueryEvents(ctx, eventlog.QueryOpts{Limit: eventTail})
	if err != nil {
		return nil, nil, err
	}

	return tasks, events, nil
}
