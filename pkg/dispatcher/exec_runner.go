package dispatcher

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"yolla/pkg/extractor"
	"yolla/pkg/protocol"
)

// ExecRunner launches the agent's profile command as a subprocess. The
// subprocess reports its own lifecycle by printing ordinary wire-format
// directives on stdout; the runner scans them out and applies the lifecycle
// verbs through the registry. Start directives from specialists are ignored
// — delegation is the conductor's job.
type ExecRunner struct{}

// Run executes the assignment's command and pumps its stdout through the
// directive pipeline until the process exits or ctx is cancelled.
func (r *ExecRunner) Run(ctx context.Context, a Assignment, apply Applier) error {
	command := a.Profile.Command
	if command == "" {
		return fmt.Errorf("agent %s has no launch command", a.AgentID)
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Env = append(os.Environ(),
		"YOLLA_TASK_ID="+a.TaskID,
		"YOLLA_AGENT_ID="+a.AgentID,
		"YOLLA_TASK_DESCRIPTION="+a.Description,
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %q: %w", command, err)
	}

	var sc extractor.Scanner
	reader := bufio.NewReader(stdout)
	buf := make([]byte, 4096)
	for {
		n, readErr := reader.Read(buf)
		if n > 0 {
			r.applySpans(ctx, apply, sc.Feed(string(buf[:n])))
		}
		if readErr != nil {
			break
		}
	}
	r.applySpans(ctx, apply, sc.Flush())

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%q: %w", command, err)
		}
		return fmt.Errorf("wait %q: %w", command, err)
	}
	return nil
}

// applySpans feeds directive spans from subprocess output back into the
// registry.
func (r *ExecRunner) applySpans(ctx context.Context, apply Applier, spans []extractor.Span) {
	for _, sp := range spans {
		if sp.Kind != extractor.SpanDirective {
			continue
		}
		d := protocol.Parse(sp.Text)
		switch d.Kind {
		case protocol.KindProgress:
			apply.Progress(ctx, d.Progress.TaskID, d.Progress.Percent)
		case protocol.KindDone:
			apply.Done(ctx, d.Done.TaskID)
		case protocol.KindFail:
			apply.Fail(ctx, d.Fail.TaskID, d.Fail.Reason)
		}
	}
}
