// Package registry implements the authoritative in-memory task store. All
// task mutation goes through its operations so state-machine invariants are
// enforced in one place: states only move forward, terminal states are
// idempotent, and operations on the same task are strictly ordered while
// operations on different tasks proceed independently.
package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"yolla/pkg/protocol"
)

// Outcome describes what an operation did.
type Outcome string

// Operation outcome constants.
const (
	OutcomeApplied  Outcome = "applied"
	OutcomeNoOp     Outcome = "noop"
	OutcomeRejected Outcome = "rejected"
)

// Result is returned by every registry operation. Err carries the typed
// reason for no-ops and rejections (DuplicateTaskError, UnknownTaskError,
// TerminalTaskError); Task is a snapshot taken after the operation.
type Result struct {
	Outcome Outcome
	Task    protocol.Task
	Err     error
}

// Applied reports whether the operation mutated state.
func (r Result) Applied() bool {
	return r.Outcome == OutcomeApplied
}

// Sink receives every registry event, applied or not. Implementations must
// be safe for concurrent use; the event log writer is the production sink.
type Sink interface {
	TaskEvent(ctx context.Context, typ string, task protocol.Task, payload string)
}

// Update is delivered to subscribers on every registry event.
type Update struct {
	Type    string
	Task    protocol.Task
	Payload string
}

// entry wraps one task with its own lock so concurrent operations on
// different tasks never serialize on each other.
type entry struct {
	mu   sync.Mutex
	task protocol.Task
}

// Registry is the task store. Create with New.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]*entry
	order []string // creation order, for stable listing

	sink Sink

	subsMu sync.Mutex
	subs   map[int]chan Update
	nextID int

	// nowFunc allows tests to control time.
	nowFunc func() time.Time
}

// New creates an empty Registry. sink may be nil.
func New(sink Sink) *Registry {
	return &Registry{
		tasks:   make(map[string]*entry),
		sink:    sink,
		subs:    make(map[int]chan Update),
		nowFunc: time.Now,
	}
}

// NewTaskID mints a fresh task identifier for programmatic task creation.
// Directive-created tasks use the agent id from the wire instead.
func NewTaskID() string {
	return "task-" + strings.Split(uuid.New().String(), "-")[0]
}

// Restore seeds the registry with previously persisted task snapshots
// without emitting events, so a new conductor turn can address tasks
// started in earlier turns. Ids already present are left untouched.
func (r *Registry) Restore(tasks []protocol.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range tasks {
		if t.ID == "" || !t.State.Valid() {
			continue
		}
		if _, exists := r.tasks[t.ID]; exists {
			continue
		}
		r.tasks[t.ID] = &entry{task: t}
		r.order = append(r.order, t.ID)
	}
}

// Start creates a new task in the running state. An empty id mints a fresh
// one. A start against an active id is rejected with DuplicateTaskError; a
// start against a terminal id is accepted as an informational no-op and does
// not resurrect the task.
func (r *Registry) Start(ctx context.Context, id, agentID, description string) Result {
	if id == "" {
		id = NewTaskID()
	}

	r.mu.Lock()
	e, exists := r.tasks[id]
	if !exists {
		e = &entry{}
		e.mu.Lock()
		r.tasks[id] = e
		r.order = append(r.order, id)
		r.mu.Unlock()

		now := r.nowFunc()
		e.task = protocol.Task{
			ID:          id,
			AgentID:     agentID,
			Description: description,
			State:       protocol.TaskRunning,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		snap := e.task
		r.emit(ctx, protocol.EventTaskStarted, snap, "")
		e.mu.Unlock()
		return Result{Outcome: OutcomeApplied, Task: snap}
	}
	r.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	snap := e.task
	if snap.State.Terminal() {
		r.emit(ctx, protocol.EventStartReplay, snap, "")
		return Result{
			Outcome: OutcomeNoOp,
			Task:    snap,
			Err:     &protocol.TerminalTaskError{TaskID: id, State: snap.State},
		}
	}
	r.emit(ctx, protocol.EventDuplicateTask, snap, "")
	return Result{
		Outcome: OutcomeRejected,
		Task:    snap,
		Err:     &protocol.DuplicateTaskError{TaskID: id},
	}
}

// Progress updates a running task's progress percentage, clamped to 0-100.
// A value below the stored progress is applied anyway but flagged with a
// regression event, since it signals data rather than invalidates state.
func (r *Registry) Progress(ctx context.Context, id string, percent int) Result {
	e, ok := r.lookup(id)
	if !ok {
		return r.unknown(ctx, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.task.State.Terminal() {
		return r.terminal(ctx, e.task)
	}

	clamped := percent
	if clamped < 0 {
		clamped = 0
	}
	if clamped > 100 {
		clamped = 100
	}
	if clamped < e.task.Progress {
		r.emit(ctx, protocol.EventProgressRegression, e.task,
			payloadPercent(clamped))
	}
	e.task.Progress = clamped
	e.task.UpdatedAt = r.nowFunc()
	snap := e.task
	r.emit(ctx, protocol.EventTaskProgress, snap, payloadPercent(clamped))
	return Result{Outcome: OutcomeApplied, Task: snap}
}

// Done transitions a running task to the done state. A repeat on an
// already-done task is an idempotent no-op; done on a failed task is
// rejected without mutation.
func (r *Registry) Done(ctx context.Context, id string) Result {
	e, ok := r.lookup(id)
	if !ok {
		return r.unknown(ctx, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.task.State {
	case protocol.TaskDone:
		r.emit(ctx, protocol.EventTerminalTask, e.task, "")
		return Result{
			Outcome: OutcomeNoOp,
			Task:    e.task,
			Err:     &protocol.TerminalTaskError{TaskID: id, State: e.task.State},
		}
	case protocol.TaskFailed:
		return r.terminal(ctx, e.task)
	}

	e.task.State = protocol.TaskDone
	e.task.Progress = 100
	e.task.UpdatedAt = r.nowFunc()
	snap := e.task
	r.emit(ctx, protocol.EventTaskDone, snap, "")
	return Result{Outcome: OutcomeApplied, Task: snap}
}

// Fail transitions a running task to the failed state and records the
// reason (empty permitted). A repeat on an already-failed task is an
// idempotent no-op; fail on a done task is rejected without mutation.
func (r *Registry) Fail(ctx context.Context, id, reason string) Result {
	e, ok := r.lookup(id)
	if !ok {
		return r.unknown(ctx, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.task.State {
	case protocol.TaskFailed:
		r.emit(ctx, protocol.EventTerminalTask, e.task, "")
		return Result{
			Outcome: OutcomeNoOp,
			Task:    e.task,
			Err:     &protocol.TerminalTaskError{TaskID: id, State: e.task.State},
		}
	case protocol.TaskDone:
		return r.terminal(ctx, e.task)
	}

	e.task.State = protocol.TaskFailed
	e.task.FailureReason = reason
	e.task.UpdatedAt = r.nowFunc()
	snap := e.task
	r.emit(ctx, protocol.EventTaskFailed, snap, payloadReason(reason))
	return Result{Outcome: OutcomeApplied, Task: snap}
}

// Get returns a snapshot of one task.
func (r *Registry) Get(id string) (protocol.Task, bool) {
	e, ok := r.lookup(id)
	if !ok {
		return protocol.Task{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.task, true
}

// List returns snapshots of all tasks in creation order, terminal ones
// included — aborted work stays enumerable.
func (r *Registry) List() []protocol.Task {
	r.mu.RLock()
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	r.mu.RUnlock()

	out := make([]protocol.Task, 0, len(ids))
	for _, id := range ids {
		if t, ok := r.Get(id); ok {
			out = append(out, t)
		}
	}
	return out
}

// Len returns the number of tasks ever created.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// Subscribe registers a lifecycle update channel with the given buffer.
// Updates are dropped rather than blocking registry operations when the
// subscriber falls behind. The returned func cancels the subscription.
func (r *Registry) Subscribe(buffer int) (<-chan Update, func()) {
	ch := make(chan Update, buffer)
	r.subsMu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = ch
	r.subsMu.Unlock()

	return ch, func() {
		r.subsMu.Lock()
		if _, ok := r.subs[id]; ok {
			delete(r.subs, id)
			close(ch)
		}
		r.subsMu.Unlock()
	}
}

// --- internals ---

func (r *Registry) lookup(id string) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tasks[id]
	return e, ok
}

func (r *Registry) unknown(ctx context.Context, id string) Result {
	r.emit(ctx, protocol.EventUnknownTask, protocol.Task{ID: id}, "")
	return Result{
		Outcome: OutcomeRejected,
		Err:     &protocol.UnknownTaskError{TaskID: id},
	}
}

// terminal reports a rejected operation against a terminal task.
// Caller holds the entry lock.
func (r *Registry) terminal(ctx context.Context, snap protocol.Task) Result {
	r.emit(ctx, protocol.EventTerminalTask, snap, "")
	return Result{
		Outcome: OutcomeRejected,
		Task:    snap,
		Err:     &protocol.TerminalTaskError{TaskID: snap.ID, State: snap.State},
	}
}

func (r *Registry) emit(ctx context.Context, typ string, task protocol.Task, payload string) {
	if r.sink != nil {
		r.sink.TaskEvent(ctx, typ, task, payload)
	}
	r.subsMu.Lock()
	for _, ch := range r.subs {
		select {
		case ch <- Update{Type: typ, Task: task, Payload: payload}:
		default:
		}
	}
	r.subsMu.Unlock()
}

func payloadPercent(pct int) string {
	return fmt.Sprintf(`{"percent":%d}`, pct)
}

func payloadReason(reason string) string {
	return fmt.Sprintf(`{"reason":%q}`, reason)
}
