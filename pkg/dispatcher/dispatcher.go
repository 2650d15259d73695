// Package dispatcher turns registry-accepted start events into running
// background work. Each task gets its own goroutine and cancel handle;
// lifecycle reporting flows back through the registry only, so the
// dispatcher never mutates task state directly. Failed dispatches are not
// retried — they surface as synthetic fail transitions with a
// dispatch-specific reason.
package dispatcher

import (
	"context"
	"fmt"
	"sync"

	"yolla/pkg/protocol"
	"yolla/pkg/registry"
	"yolla/pkg/roster"
)

// Applier is the subset of registry operations runners report through.
// *registry.Registry satisfies it.
type Applier interface {
	Progress(ctx context.Context, id string, percent int) registry.Result
	Done(ctx context.Context, id string) registry.Result
	Fail(ctx context.Context, id, reason string) registry.Result
}

// AgentSource resolves agent ids to profiles. *roster.Roster satisfies it.
type AgentSource interface {
	Lookup(id string) (roster.Profile, bool)
}

// Assignment is one unit of work handed to a runner.
type Assignment struct {
	TaskID      string
	AgentID     string
	Description string
	Profile     roster.Profile
}

// Runner executes one assignment. Progress/done/fail reporting goes through
// the applier; a nil return with the task still running counts as done, a
// non-nil return fails the task.
type Runner interface {
	Run(ctx context.Context, a Assignment, apply Applier) error
}

// Config holds Dispatcher configuration.
type Config struct {
	MaxConcurrent  int    // concurrent task limit (default 4)
	Strict         bool   // reject start directives naming unknown agents
	DefaultCommand string // launch command for agents without one (non-strict mode)
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.MaxConcurrent == 0 {
		out.MaxConcurrent = 4
	}
	return out
}

// Dispatcher schedules background work for accepted start events.
type Dispatcher struct {
	cfg    Config
	reg    Applier
	agents AgentSource
	runner Runner
	sem    chan struct{}

	mu      sync.Mutex
	running map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a Dispatcher. agents may be nil when no roster is configured;
// strict mode then fails every dispatch.
func New(cfg Config, reg Applier, agents AgentSource, runner Runner) *Dispatcher {
	resolved := cfg.withDefaults()
	return &Dispatcher{
		cfg:     resolved,
		reg:     reg,
		agents:  agents,
		runner:  runner,
		sem:     make(chan struct{}, resolved.MaxConcurrent),
		running: make(map[string]context.CancelFunc),
	}
}

// HandleStart schedules work for a task the registry just accepted. It never
// blocks the caller: slot waiting happens inside the task goroutine.
func (d *Dispatcher) HandleStart(ctx context.Context, task protocol.Task) {
	profile, err := d.resolveAgent(task.ID, task.AgentID)
	if err != nil {
		// Synthetic fail, reported through the registry like any other
		// transition so it is enumerable and logged.
		d.reg.Fail(ctx, task.ID, err.Error())
		return
	}

	d.mu.Lock()
	if _, dup := d.running[task.ID]; dup {
		d.mu.Unlock()
		return
	}
	taskCtx, cancel := context.WithCancel(ctx)
	d.running[task.ID] = cancel
	d.mu.Unlock()

	a := Assignment{
		TaskID:      task.ID,
		AgentID:     task.AgentID,
		Description: task.Description,
		Profile:     profile,
	}

	d.wg.Add(1)
	go d.runTask(taskCtx, a)
}

// resolveAgent validates the agent id against the roster. In non-strict mode
// unknown agents run with the default command so loose setups keep working.
func (d *Dispatcher) resolveAgent(taskID, agentID string) (roster.Profile, error) {
	if d.agents != nil {
		if p, ok := d.agents.Lookup(agentID); ok {
			return p, nil
		}
	}
	if d.cfg.Strict {
		return roster.Profile{}, &protocol.DispatchError{
			TaskID:  taskID,
			AgentID: agentID,
			Reason:  "unknown agent",
		}
	}
	return roster.Profile{ID: agentID, Command: d.cfg.DefaultCommand}, nil
}

// runTask waits for a slot, runs the assignment, and reports the terminal
// transition if the runner didn't already.
func (d *Dispatcher) runTask(ctx context.Context, a Assignment) {
	defer d.wg.Done()
	defer d.forget(a.TaskID)

	select {
	case d.sem <- struct{}{}:
		defer func() { <-d.sem }()
	case <-ctx.Done():
		d.reg.Fail(context.Background(), a.TaskID, "cancelled before start")
		return
	}

	err := d.runner.Run(ctx, a, d.reg)

	// Terminal reporting uses a fresh context: the task context is already
	// dead on cancellation, and the fail transition must still be recorded.
	switch {
	case ctx.Err() != nil:
		d.reg.Fail(context.Background(), a.TaskID, "cancelled: "+ctx.Err().Error())
	case err != nil:
		d.reg.Fail(context.Background(), a.TaskID, fmt.Sprintf("agent error: %v", err))
	default:
		// No-op if the runner already reported done or fail itself.
		d.reg.Done(context.Background(), a.TaskID)
	}
}

func (d *Dispatcher) forget(taskID string) {
	d.mu.Lock()
	delete(d.running, taskID)
	d.mu.Unlock()
}

// Cancel aborts the running work for a task. The abort is observable as a
// fail transition with a cancellation reason, never a silent disappearance.
func (d *Dispatcher) Cancel(taskID string) bool {
	d.mu.Lock()
	cancel, ok := d.running[taskID]
	d.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// CancelAll aborts every running task.
func (d *Dispatcher) CancelAll() {
	d.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(d.running))
	for _, c := range d.running {
		cancels = append(cancels, c)
	}
	d.mu.Unlock()
	for _, c := range cancels {
		c()
	}
}

// Running returns the number of tasks currently scheduled or executing.
func (d *Dispatcher) Running() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.running)
}

// Wait blocks until all scheduled work has finished reporting.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
