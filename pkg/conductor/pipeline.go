// Package conductor wires the directive pipeline: incoming response chunks
// are partitioned by the extractor, directive spans are parsed and folded
// into the task registry, accepted starts are handed to the dispatcher, and
// the plain-text remainder streams back to the caller for display.
package conductor

import (
	"context"
	"fmt"
	"strings"

	"yolla/pkg/extractor"
	"yolla/pkg/protocol"
	"yolla/pkg/registry"
)

// Starter schedules work for a registry-accepted start event.
// *dispatcher.Dispatcher satisfies it.
type Starter interface {
	HandleStart(ctx context.Context, task protocol.Task)
}

// Pipeline processes one response stream. Not safe for concurrent use; each
// stream gets its own Pipeline over a shared registry.
type Pipeline struct {
	scanner extractor.Scanner
	reg     *registry.Registry
	disp    Starter       // nil disables dispatch (parse and track only)
	events  registry.Sink // nil disables malformed-directive logging
}

// New creates a Pipeline. disp and events may be nil.
func New(reg *registry.Registry, disp Starter, events registry.Sink) *Pipeline {
	return &Pipeline{reg: reg, disp: disp, events: events}
}

// Feed consumes the next chunk of the response stream and returns the
// sanitized text that became settled, directives removed. Directives are
// acted on as soon as their closing bracket arrives — nothing waits for the
// end of the response.
func (p *Pipeline) Feed(ctx context.Context, chunk string) string {
	return p.consume(ctx, p.scanner.Feed(chunk))
}

// Flush ends the stream, resolving any held-back span.
func (p *Pipeline) Flush(ctx context.Context) string {
	return p.consume(ctx, p.scanner.Flush())
}

// Process runs a complete response through the pipeline in one call.
func (p *Pipeline) Process(ctx context.Context, text string) string {
	return p.Feed(ctx, text) + p.Flush(ctx)
}

func (p *Pipeline) consume(ctx context.Context, spans []extractor.Span) string {
	var clean strings.Builder
	for _, sp := range spans {
		if sp.Kind == extractor.SpanPlain {
			clean.WriteString(sp.Text)
			continue
		}
		p.apply(ctx, protocol.Parse(sp.Text))
	}
	return clean.String()
}

// apply folds one parsed directive into the registry. Malformed directives
// are logged and skipped, never surfaced to the user or the registry.
func (p *Pipeline) apply(ctx context.Context, d protocol.Directive) {
	switch d.Kind {
	case protocol.KindStart:
		// The wire format carries no separate task id: the task is
		// addressed by the agent id, matching how progress/done/fail
		// directives reference it.
		res := p.reg.Start(ctx, d.Start.AgentID, d.Start.AgentID, d.Start.Description)
		if res.Applied() && p.disp != nil {
			p.disp.HandleStart(ctx, res.Task)
		}
	case protocol.KindProgress:
		p.reg.Progress(ctx, d.Progress.TaskID, d.Progress.Percent)
	case protocol.KindDone:
		p.reg.Done(ctx, d.Done.TaskID)
	case protocol.KindFail:
		p.reg.Fail(ctx, d.Fail.TaskID, d.Fail.Reason)
	case protocol.KindUnknown:
		if p.events != nil {
			p.events.TaskEvent(ctx, protocol.EventDirectiveMalformed,
				protocol.Task{}, fmt.Sprintf(`{"raw":%q}`, d.Raw))
		}
	}
}
