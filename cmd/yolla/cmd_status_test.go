package main

import (
	"strings"
	"testing"

	"yolla/pkg/protocol"
)

func TestFormatTaskRow(t *testing.T) {
	tests := []struct {
		name string
		row  protocol.TaskRow
		want []string
	}{
		{
			name: "running task",
			row:  protocol.TaskRow{TaskID: "sec-1", AgentID: "sec-1", State: "running", Progress: 40},
			want: []string{"sec-1", "running", "40%"},
		},
		{
			name: "failed task shows reason",
			row:  protocol.TaskRow{TaskID: "sec-2", AgentID: "sec-2", State: "failed", Progress: 10, FailureReason: "repo unreachable"},
			want: []string{"sec-2", "failed", "(repo unreachable)"},
		},
		{
			name: "done task without reason",
			row:  protocol.TaskRow{TaskID: "sec-3", AgentID: "sec-3", State: "done", Progress: 100},
			want: []string{"sec-3", "done", "100%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatTaskRow(tt.row, false)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("formatTaskRow() = %q, missing %q", got, want)
				}
			}
		})
	}
}

func TestPrintStatusFiltersTerminalTasks(t *testing.T) {
	tasks := []protocol.TaskRow{
		{TaskID: "a", State: "running", Progress: 10},
		{TaskID: "b", State: "done", Progress: 100},
		{TaskID: "c", State: "failed", Progress: 0},
	}

	var active strings.Builder
	if err := printStatus(&active, tasks, false); err != nil {
		t.Fatalf("printStatus: %v", err)
	}
	if strings.Contains(active.String(), "b") || strings.Contains(active.String(), "c") {
		t.Errorf("terminal tasks shown without --all:\n%s", active.String())
	}

	var all strings.Builder
	if err := printStatus(&all, tasks, true); err != nil {
		t.Fatalf("printStatus: %v", err)
	}
	for _, id := range []string{"a", "b", "c"} {
		if !strings.Contains(all.String(), id) {
			t.Errorf("task %s missing with --all:\n%s", id, all.String())
		}
	}
}

func TestPrintStatusEmpty(t *testing.T) {
	var out strings.Builder
	if err := printStatus(&out, nil, false); err != nil {
		t.Fatalf("printStatus: %v", err)
	}
	if !strings.Contains(out.String(), "no tasks") {
		t.Errorf("expected 'no tasks', got: %s", out.String())
	}
}
