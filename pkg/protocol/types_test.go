package protocol_test

import (
	"errors"
	"testing"

	"yolla/pkg/protocol"
)

func TestTaskStateTerminal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state    protocol.TaskState
		terminal bool
	}{
		{protocol.TaskPending, false},
		{protocol.TaskRunning, false},
		{protocol.TaskDone, true},
		{protocol.TaskFailed, true},
	}
	for _, tt := range tests {
		if got := tt.state.Terminal(); got != tt.terminal {
			t.Errorf("%s.Terminal() = %v, want %v", tt.state, got, tt.terminal)
		}
	}
}

func TestTaskStateValid(t *testing.T) {
	t.Parallel()

	for _, s := range []protocol.TaskState{
		protocol.TaskPending, protocol.TaskRunning, protocol.TaskDone, protocol.TaskFailed,
	} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if protocol.TaskState("exploded").Valid() {
		t.Error("unexpected state should be invalid")
	}
}

func TestTypedErrors(t *testing.T) {
	t.Parallel()

	var dup *protocol.DuplicateTaskError
	err := error(&protocol.DuplicateTaskError{TaskID: "sec-1"})
	if !errors.As(err, &dup) || dup.TaskID != "sec-1" {
		t.Fatalf("errors.As failed for DuplicateTaskError: %v", err)
	}

	var term *protocol.TerminalTaskError
	err = error(&protocol.TerminalTaskError{TaskID: "sec-1", State: protocol.TaskDone})
	if !errors.As(err, &term) || term.State != protocol.TaskDone {
		t.Fatalf("errors.As failed for TerminalTaskError: %v", err)
	}

	msg := (&protocol.DispatchError{TaskID: "t", AgentID: "a", Reason: "unknown agent"}).Error()
	if msg == "" {
		t.Error("DispatchError message must not be empty")
	}
}
