package protocol

// Event type constants written to the events table. Registry transitions,
// rejected operations, and pipeline diagnostics all land here.
const (
	EventTaskStarted        = "task_started"
	EventTaskProgress       = "task_progress"
	EventTaskDone           = "task_done"
	EventTaskFailed         = "task_failed"
	EventStartReplay        = "start_replay"
	EventDuplicateTask      = "duplicate_task"
	EventUnknownTask        = "unknown_task"
	EventTerminalTask       = "terminal_task"
	EventProgressRegression = "progress_regression"
	EventDirectiveMalformed = "directive_malformed"
	EventDispatchFailed     = "dispatch_failed"
)

// Event represents a row in the events SQLite table.
// Tracks every directive and registry lifecycle transition.
type Event struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Source    string `json:"source"`
	TaskID    string `json:"task_id"`
	AgentID   string `json:"agent_id"`
	Payload   string `json:"payload"`
	CreatedAt string `json:"created_at"`
}

// TaskRow represents a row in the tasks SQLite table. It mirrors the
// in-memory registry so that status commands and the dashboard can render
// task state without talking to the conductor process.
type TaskRow struct {
	TaskID        string `json:"task_id"`
	AgentID       string `json:"agent_id"`
	Description   string `json:"description"`
	State         string `json:"state"`
	Progress      int    `json:"progress"`
	FailureReason string `json:"failure_reason"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}
