package main

import (
	"fmt"
	"io"

	"github.com/haasonsaas/agentcore/internal/events"
)

// eventRenderer drains the Event Bus and prints a plain-text transcript,
// the only renderer this entry point implements: spec.md's Non-goals
// exclude UI layout entirely, so "--ui tui" gets the same renderer with
// a one-line notice rather than a terminal UI integration.
type eventRenderer struct {
	out io.Writer
	tui bool
}

func newEventRenderer(ui string, out io.Writer) *eventRenderer {
	r := &eventRenderer{out: out}
	if ui == "tui" {
		r.tui = true
		fmt.Fprintln(out, "(--ui tui requested; no terminal UI is implemented, falling back to stdout rendering)")
	}
	return r
}

// run ranges over bus until it is closed, Acking every event so
// WaitDrained unblocks the REPL's next prompt.
func (r *eventRenderer) run(bus *events.Bus) {
	for ev := range bus.Events() {
		r.render(ev)
		bus.Ack()
	}
}

func (r *eventRenderer) render(ev events.Event) {
	switch ev.Type {
	case events.Welcome:
		if p := ev.Welcome; p != nil {
			fmt.Fprintf(r.out, "\n[welcome] workspace=%s model=%s/%s\n", p.WorkDir, p.LLMConfig.DefaultProvider, p.LLMConfig.DefaultModel)
		}
	case events.ReplayHistory:
		if p := ev.ReplayHistory; p != nil && len(p.Events) > 0 {
			fmt.Fprintf(r.out, "[replay] %d prior events\n", len(p.Events))
			for _, inner := range p.Events {
				r.render(inner)
			}
		}
	case events.TaskStart:
		fmt.Fprintln(r.out, "[task started]")
	case events.TurnStart:
		fmt.Fprintln(r.out, "[turn started]")
	case events.UserMessage:
		if p := ev.UserMessage; p != nil {
			fmt.Fprintf(r.out, "you: %s\n", p.Content)
		}
	case events.DeveloperMessage:
		if p := ev.DeveloperMessage; p != nil && p.Item.Content != "" {
			fmt.Fprintf(r.out, "[reminder] %s\n", p.Item.Content)
		}
	case events.ThinkingDelta:
		if p := ev.ThinkingDelta; p != nil {
			fmt.Fprint(r.out, p.Content)
		}
	case events.Thinking:
		fmt.Fprintln(r.out)
	case events.AssistantMessageDelta:
		if p := ev.AssistantMessageDelta; p != nil {
			fmt.Fprint(r.out, p.Content)
		}
	case events.AssistantMessage:
		fmt.Fprintln(r.out)
	case events.ToolCall:
		if p := ev.ToolCall; p != nil {
			fmt.Fprintf(r.out, "[tool call] %s(%s)\n", p.ToolName, string(p.Arguments))
		}
	case events.ToolResult:
		if p := ev.ToolResult; p != nil {
			fmt.Fprintf(r.out, "[tool result] %s -> %s: %s\n", p.ToolName, p.Status, truncate(p.Result, 400))
		}
	case events.TodoChange:
		if p := ev.TodoChange; p != nil {
			fmt.Fprintf(r.out, "[todos] %d item(s)\n", len(p.Todos))
			for _, t := range p.Todos {
				fmt.Fprintf(r.out, "  - [%s] %s\n", t.Status, t.Content)
			}
		}
	case events.ResponseMetadata:
		if p := ev.ResponseMetadata; p != nil {
			if u := p.Metadata.Usage; u != nil {
				fmt.Fprintf(r.out, "[metadata] status=%s input_tokens=%d output_tokens=%d\n",
					p.Metadata.Status, u.InputTokens, u.OutputTokens)
			} else {
				fmt.Fprintf(r.out, "[metadata] status=%s\n", p.Metadata.Status)
			}
		}
	case events.TaskFinish:
		if p := ev.TaskFinish; p != nil {
			fmt.Fprintf(r.out, "[task finished: %s]\n", p.TaskResult)
		}
	case events.TurnEnd:
		fmt.Fprintln(r.out, "[turn ended]")
	case events.Interrupt:
		fmt.Fprintln(r.out, "[interrupted]")
	case events.Error:
		if p := ev.Error; p != nil {
			fmt.Fprintf(r.out, "[error] %s (can_retry=%v)\n", p.ErrorMessage, p.CanRetry)
		}
	case events.End:
		fmt.Fprintln(r.out, "[end]")
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
