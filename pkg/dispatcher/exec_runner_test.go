package dispatcher //nolint:testpackage // shares test helpers with dispatcher_test.go

import (
	"context"
	"testing"

	"yolla/pkg/protocol"
	"yolla/pkg/registry"
	"yolla/pkg/roster"
)

func TestExecRunnerAppliesDirectivesFromStdout(t *testing.T) {
	t.Parallel()

	reg := registry.New(nil)
	ctx := context.Background()
	reg.Start(ctx, "sec-1", "sec-1", "scan")

	a := Assignment{
		TaskID:  "sec-1",
		AgentID: "sec-1",
		Profile: roster.Profile{
			Command: `printf 'working [yolla:task progress %s 50] then [yolla:task done %s] bye\n' "$YOLLA_TASK_ID" "$YOLLA_TASK_ID"`,
		},
	}
	r := &ExecRunner{}
	if err := r.Run(ctx, a, reg); err != nil {
		t.Fatalf("run: %v", err)
	}

	task, _ := reg.Get("sec-1")
	if task.State != protocol.TaskDone {
		t.Errorf("state = %s, want done", task.State)
	}
}

func TestExecRunnerProgressOnly(t *testing.T) {
	t.Parallel()

	reg := registry.New(nil)
	ctx := context.Background()
	reg.Start(ctx, "sec-2", "sec-2", "scan")

	a := Assignment{
		TaskID:  "sec-2",
		AgentID: "sec-2",
		Profile: roster.Profile{Command: `printf '[yolla:task progress sec-2 40]'`},
	}
	if err := (&ExecRunner{}).Run(ctx, a, reg); err != nil {
		t.Fatalf("run: %v", err)
	}

	task, _ := reg.Get("sec-2")
	if task.State != protocol.TaskRunning || task.Progress != 40 {
		t.Errorf("task = %+v, want running at 40", task)
	}
}

func TestExecRunnerMissingCommand(t *testing.T) {
	t.Parallel()

	reg := registry.New(nil)
	err := (&ExecRunner{}).Run(context.Background(), Assignment{TaskID: "t", AgentID: "a"}, reg)
	if err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestExecRunnerNonZeroExit(t *testing.T) {
	t.Parallel()

	reg := registry.New(nil)
	a := Assignment{
		TaskID:  "t",
		AgentID: "a",
		Profile: roster.Profile{Command: "exit 3"},
	}
	if err := (&ExecRunner{}).Run(context.Background(), a, reg); err == nil {
		t.Fatal("expected error for non-zero exit")
	}
}
