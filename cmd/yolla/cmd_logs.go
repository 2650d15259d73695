package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"yolla/pkg/eventlog"

	"github.com/spf13/cobra"
)

// logsConfig holds configuration for the logs command.
type logsConfig struct {
	tail   int
	follow bool
	typ    string
}

// newLogsCmd creates the "yolla logs" subcommand.
func newLogsCmd() *cobra.Command {
	var cfg logsConfig

	cmd := &cobra.Command{
		Use:   "logs [task-id]",
		Short: "Query and tail lifecycle events",
		Long:  "Displays events from the state database event log.\nOptionally filter by task-id or event type and follow new events.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var taskID string
			if len(args) == 1 {
				taskID = args[0]
			}

			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}

			reader, err := eventlog.NewReader(paths.StateDBPath)
			if err != nil {
				return fmt.Errorf("open state db: %w", err)
			}
			defer reader.Close()

			w := cmd.OutOrStdout()

			if cfg.follow {
				return followLogs(cmd.Context(), reader, w, taskID, cfg)
			}
			return printLogs(cmd.Context(), reader, w, taskID, cfg)
		},
	}

	cmd.Flags().IntVar(&cfg.tail, "tail", 20, "number of recent events to show")
	cmd.Flags().BoolVarP(&cfg.follow, "follow", "f", false, "poll for new events every 1s")
	cmd.Flags().StringVar(&cfg.typ, "type", "", "filter by event type (e.g. task_failed)")

	return cmd
}

// printLogs displays the last N events in chronological order.
func printLogs(ctx context.Context, reader *eventlog.Reader, w io.Writer, taskID string, cfg logsConfig) error {
	events, err := reader.QueryEvents(ctx, eventlog.QueryOpts{
		TaskID:    taskID,
		EventType: cfg.typ,
		Limit:     cfg.tail,
	})
	if err != nil {
		return err
	}

	if len(events) == 0 {
		fmt.Fprintln(w, "no events found")
		return nil
	}

	// QueryEvents returns newest first; print oldest first.
	for i := len(events) - 1; i >= 0; i-- {
		formatEvent(w, events[i])
	}
	return nil
}

// followLogs prints the initial tail and then polls for rows with a higher
// id than the last one seen.
func followLogs(ctx context.Context, reader *eventlog.Reader, w io.Writer, taskID string, cfg logsConfig) error {
	events, err := reader.QueryEvents(ctx, eventlog.QueryOpts{
		TaskID:    taskID,
		EventType: cfg.typ,
		Limit:     cfg.tail,
	})
	if err != nil {
		return err
	}

	var lastID int64
	for i := len(events) - 1; i >= 0; i-- {
		formatEvent(w, events[i])
		lastID = events[i].ID
	}
	if len(events) > 0 && events[0].ID > lastID {
		lastID = events[0].ID
	}

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fresh, err := reader.QueryEvents(ctx, eventlog.QueryOpts{
				TaskID:    taskID,
				EventType: cfg.typ,
				AfterID:   lastID,
			})
			if err != nil {
				return err
			}
			for i := len(fresh) - 1; i >= 0; i-- {
				formatEvent(w, fresh[i])
				if fresh[i].ID > lastID {
					lastID = fresh[i].ID
				}
			}
		}
	}
}

// formatEvent renders one event line: timestamp, type, task, payload.
func formatEvent(w io.Writer, e eventlog.Event) {
	ts := e.CreatedAt.Format("15:04:05")
	line := fmt.Sprintf("%s  %-20s", ts, e.Type)
	if e.TaskID != "" {
		line += "  " + e.TaskID
	}
	if e.Payload != "" {
		line += "  " + e.Payload
	}
	fmt.Fprintln(w, line)
}
