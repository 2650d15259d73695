package dispatcher //nolint:testpackage // exercises internal scheduling state

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"yolla/pkg/protocol"
	"yolla/pkg/registry"
	"yolla/pkg/roster"
)

// fakeAgents is a static AgentSource.
type fakeAgents map[string]roster.Profile

func (f fakeAgents) Lookup(id string) (roster.Profile, bool) {
	p, ok := f[id]
	return p, ok
}

// fakeRunner records assignments and runs a configurable body.
type fakeRunner struct {
	mu   sync.Mutex
	runs []Assignment
	body func(ctx context.Context, a Assignment, apply Applier) error
}

func (f *fakeRunner) Run(ctx context.Context, a Assignment, apply Applier) error {
	f.mu.Lock()
	f.runs = append(f.runs, a)
	f.mu.Unlock()
	if f.body != nil {
		return f.body(ctx, a, apply)
	}
	return nil
}

func (f *fakeRunner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.runs)
}

// startTask creates a running task and hands it to the dispatcher.
func startTask(t *testing.T, reg *registry.Registry, d *Dispatcher, id string) {
	t.Helper()
	res := reg.Start(context.Background(), id, id, "work")
	if !res.Applied() {
		t.Fatalf("start %s: %+v", id, res)
	}
	d.HandleStart(context.Background(), res.Task)
}

func TestSuccessfulRunReportsDone(t *testing.T) {
	t.Parallel()

	reg := registry.New(nil)
	runner := &fakeRunner{}
	d := New(Config{}, reg, fakeAgents{"sec-1": {ID: "sec-1"}}, runner)

	startTask(t, reg, d, "sec-1")
	d.Wait()

	task, _ := reg.Get("sec-1")
	if task.State != protocol.TaskDone {
		t.Errorf("state = %s, want done", task.State)
	}
	if runner.count() != 1 {
		t.Errorf("runs = %d, want 1", runner.count())
	}
}

func TestRunnerErrorReportsFail(t *testing.T) {
	t.Parallel()

	reg := registry.New(nil)
	runner := &fakeRunner{body: func(context.Context, Assignment, Applier) error {
		return errors.New("exit status 3")
	}}
	d := New(Config{}, reg, fakeAgents{"sec-1": {}}, runner)

	startTask(t, reg, d, "sec-1")
	d.Wait()

	task, _ := reg.Get("sec-1")
	if task.State != protocol.TaskFailed {
		t.Fatalf("state = %s, want failed", task.State)
	}
	if !strings.HasPrefix(task.FailureReason, "agent error:") {
		t.Errorf("reason = %q", task.FailureReason)
	}
}

func TestStrictUnknownAgentFailsDispatch(t *testing.T) {
	t.Parallel()

	reg := registry.New(nil)
	runner := &fakeRunner{}
	d := New(Config{Strict: true}, reg, fakeAgents{}, runner)

	startTask(t, reg, d, "ghost-1")
	d.Wait()

	task, _ := reg.Get("ghost-1")
	if task.State != protocol.TaskFailed {
		t.Fatalf("state = %s, want failed", task.State)
	}
	if !strings.Contains(task.FailureReason, "unknown agent") {
		t.Errorf("reason = %q, want dispatch-specific reason", task.FailureReason)
	}
	if runner.count() != 0 {
		t.Error("runner must not be invoked for a failed dispatch")
	}
}

func TestNonStrictUnknownAgentUsesDefaultCommand(t *testing.T) {
	t.Parallel()

	reg := registry.New(nil)
	runner := &fakeRunner{}
	d := New(Config{DefaultCommand: "specialist"}, reg, fakeAgents{}, runner)

	startTask(t, reg, d, "ghost-1")
	d.Wait()

	if runner.count() != 1 {
		t.Fatalf("runs = %d, want 1", runner.count())
	}
	runner.mu.Lock()
	a := runner.runs[0]
	runner.mu.Unlock()
	if a.Profile.Command != "specialist" {
		t.Errorf("profile command = %q, want default", a.Profile.Command)
	}
	task, _ := reg.Get("ghost-1")
	if task.State != protocol.TaskDone {
		t.Errorf("state = %s, want done", task.State)
	}
}

func TestCancelSurfacesAsFail(t *testing.T) {
	t.Parallel()

	reg := registry.New(nil)
	started := make(chan struct{})
	runner := &fakeRunner{body: func(ctx context.Context, _ Assignment, _ Applier) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}}
	d := New(Config{}, reg, fakeAgents{"sec-1": {}}, runner)

	startTask(t, reg, d, "sec-1")
	<-started

	if !d.Cancel("sec-1") {
		t.Fatal("cancel should find the running task")
	}
	d.Wait()

	task, _ := reg.Get("sec-1")
	if task.State != protocol.TaskFailed {
		t.Fatalf("state = %s, want failed", task.State)
	}
	if !strings.HasPrefix(task.FailureReason, "cancelled") {
		t.Errorf("reason = %q, want cancellation reason", task.FailureReason)
	}
	if d.Running() != 0 {
		t.Errorf("running = %d after cancel", d.Running())
	}
}

func TestDuplicateHandleStartIgnored(t *testing.T) {
	t.Parallel()

	reg := registry.New(nil)
	release := make(chan struct{})
	runner := &fakeRunner{body: func(context.Context, Assignment, Applier) error {
		<-release
		return nil
	}}
	d := New(Config{}, reg, fakeAgents{"sec-1": {}}, runner)

	res := reg.Start(context.Background(), "sec-1", "sec-1", "work")
	d.HandleStart(context.Background(), res.Task)
	d.HandleStart(context.Background(), res.Task)

	close(release)
	d.Wait()

	if runner.count() != 1 {
		t.Errorf("runs = %d, want 1", runner.count())
	}
}

func TestConcurrencyCap(t *testing.T) {
	t.Parallel()

	reg := registry.New(nil)
	var mu sync.Mutex
	var active, peak int
	release := make(chan struct{})
	runner := &fakeRunner{body: func(context.Context, Assignment, Applier) error {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		mu.Unlock()
		<-release
		mu.Lock()
		active--
		mu.Unlock()
		return nil
	}}
	d := New(Config{MaxConcurrent: 2}, reg, nil, runner)

	for _, id := range []string{"a", "b", "c", "d"} {
		startTask(t, reg, d, id)
	}

	// Let the first two occupy their slots before releasing everyone.
	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := active
		mu.Unlock()
		if n == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("never reached the concurrency cap")
		case <-time.After(5 * time.Millisecond):
		}
	}
	close(release)
	d.Wait()

	if peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
}

func TestRunnerSelfReportedFailIsPreserved(t *testing.T) {
	t.Parallel()

	reg := registry.New(nil)
	runner := &fakeRunner{body: func(ctx context.Context, a Assignment, apply Applier) error {
		apply.Fail(ctx, a.TaskID, "target unreachable")
		return nil
	}}
	d := New(Config{}, reg, nil, runner)

	startTask(t, reg, d, "sec-1")
	d.Wait()

	task, _ := reg.Get("sec-1")
	if task.State != protocol.TaskFailed {
		t.Fatalf("state = %s, want failed", task.State)
	}
	// The dispatcher's trailing Done must not override the self-report.
	if task.FailureReason != "target unreachable" {
		t.Errorf("reason = %q", task.FailureReason)
	}
}

func TestCancelAll(t *testing.T) {
	t.Parallel()

	reg := registry.New(nil)
	var started sync.WaitGroup
	started.Add(3)
	runner := &fakeRunner{body: func(ctx context.Context, _ Assignment, _ Applier) error {
		started.Done()
		<-ctx.Done()
		return ctx.Err()
	}}
	d := New(Config{MaxConcurrent: 3}, reg, nil, runner)

	for _, id := range []string{"a", "b", "c"} {
		startTask(t, reg, d, id)
	}
	started.Wait()
	d.CancelAll()
	d.Wait()

	for _, task := range reg.List() {
		if task.State != protocol.TaskFailed {
			t.Errorf("task %s state = %s, want failed", task.ID, task.State)
		}
	}
}
