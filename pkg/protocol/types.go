package protocol

import "time"

// TaskState represents the lifecycle state of a delegated task.
type TaskState string

// Task state constants. Pending exists only before the Start directive is
// accepted; a task observable through the registry is Running or terminal.
const (
	TaskPending TaskState = "pending"
	TaskRunning TaskState = "running"
	TaskDone    TaskState = "done"
	TaskFailed  TaskState = "failed"
)

// Terminal reports whether s is a terminal state.
func (s TaskState) Terminal() bool {
	return s == TaskDone || s == TaskFailed
}

// Valid reports whether s is one of the four known task states.
func (s TaskState) Valid() bool {
	switch s {
	case TaskPending, TaskRunning, TaskDone, TaskFailed:
		return true
	default:
		return false
	}
}

// Task is the registry's record of one delegated unit of work. AgentID and
// Description are set at creation and never change; State only moves forward.
type Task struct {
	ID            string    `json:"id"`
	AgentID       string    `json:"agent_id"`
	Description   string    `json:"description"`
	State         TaskState `json:"state"`
	Progress      int       `json:"progress"` // 0-100, meaningful while running
	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
