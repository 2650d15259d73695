package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"yolla/pkg/eventlog"
	"yolla/pkg/protocol"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// stateStyles maps task states to their display styles.
var stateStyles = map[string]lipgloss.Style{ //nolint:gochecknoglobals // render table
	string(protocol.TaskPending): lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	string(protocol.TaskRunning): lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	string(protocol.TaskDone):    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	string(protocol.TaskFailed):  lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
}

// newStatusCmd creates the "yolla status" subcommand.
func newStatusCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show tracked tasks and their lifecycle state",
		Long:  "Displays the task table from the state database: id, agent,\nstate, progress, and failure reason for failed tasks.",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}

			reader, err := eventlog.NewReader(paths.StateDBPath)
			if err != nil {
				return fmt.Errorf("open state db: %w", err)
			}
			defer reader.Close()

			tasks, err := reader.ListTasks(cmd.Context())
			if err != nil {
				return err
			}

			return printStatus(cmd.OutOrStdout(), tasks, all)
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "include done and failed tasks")

	return cmd
}

// printStatus renders the task table. Colors are applied only when stdout
// is a terminal.
func printStatus(w io.Writer, tasks []protocol.TaskRow, all bool) error {
	colored := isatty.IsTerminal(os.Stdout.Fd())

	shown := 0
	for _, t := range tasks {
		if !all && (t.State == string(protocol.TaskDone) || t.State == string(protocol.TaskFailed)) {
			continue
		}
		fmt.Fprintln(w, formatTaskRow(t, colored))
		shown++
	}

	if shown == 0 {
		fmt.Fprintln(w, "no tasks")
	}
	return nil
}

// formatTaskRow renders one task line: id, agent, state, progress, reason.
func formatTaskRow(t protocol.TaskRow, colored bool) string {
	// Pad before styling so ANSI escapes don't skew column widths.
	state := fmt.Sprintf("%-8s", t.State)
	if colored {
		if style, ok := stateStyles[t.State]; ok {
			state = style.Render(state)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %-12s %s %3d%%", t.TaskID, t.AgentID, state, t.Progress)
	if t.State == string(protocol.TaskFailed) && t.FailureReason != "" {
		fmt.Fprintf(&b, "  (%s)", t.FailureReason)
	}
	return b.String()
}
