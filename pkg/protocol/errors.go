package protocol

import "fmt"

// DuplicateTaskError reports a start directive reusing an active task id.
// It enables typed error discrimination via errors.As.
type DuplicateTaskError struct {
	TaskID string
}

func (e *DuplicateTaskError) Error() string {
	return fmt.Sprintf("task %s already active", e.TaskID)
}

// UnknownTaskError reports a lifecycle directive referencing a task id that
// was never started.
type UnknownTaskError struct {
	TaskID string
}

func (e *UnknownTaskError) Error() string {
	return fmt.Sprintf("task %s not found", e.TaskID)
}

// TerminalTaskError reports a lifecycle directive referencing a task that
// already reached a terminal state. State records which one.
type TerminalTaskError struct {
	TaskID string
	State  TaskState
}

func (e *TerminalTaskError) Error() string {
	return fmt.Sprintf("task %s already terminal (%s)", e.TaskID, e.State)
}

// DispatchError reports that the dispatcher could not hand work to the named
// agent. It surfaces as a synthetic fail transition, never as a dropped event.
type DispatchError struct {
	TaskID  string
	AgentID string
	Reason  string
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s to agent %s: %s", e.TaskID, e.AgentID, e.Reason)
}
