package tools

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/haasonsaas/agentcore/pkg/models"
	"golang.org/x/sync/errgroup"
)

// callStatus tracks one inflight tool call for cancellation synthesis.
type callStatus int

const (
	statusPending callStatus = iota
	statusInProgress
)

// HistoryAppender is the subset of sessions.Store the Runner needs. A
// narrow interface (rather than importing internal/sessions directly)
// keeps the Runner usable against any store, including a no-op one in
// tests.
type HistoryAppender interface {
	AppendHistory(ctx context.Context, sessionID string, items ...models.ConversationItem) error
}

// EventSink receives the Runner's lifecycle notifications, matching the
// Event Bus (C7) contract without creating an import cycle.
type EventSink interface {
	ToolCallStarted(call models.ToolCallItem)
	ToolResult(result models.ToolResultItem)
	TodoChanged(todos []models.TodoItem)
}

// NoopEventSink discards every notification; useful for tests and for
// sub-agent runs that don't drive a UI.
type NoopEventSink struct{}

func (NoopEventSink) ToolCallStarted(models.ToolCallItem) {}
func (NoopEventSink) ToolResult(models.ToolResultItem)    {}
func (NoopEventSink) TodoChanged([]models.TodoItem)       {}

// inflightEntry is one entry of the Runner's pending/in-progress map.
type inflightEntry struct {
	call   models.ToolCallItem
	status callStatus
}

// Runner executes one turn's worth of tool calls against a Registry,
// partitioning into sequential and concurrent buckets, tracking inflight
// calls, and synthesizing cancellation results per spec §4.2.
type Runner struct {
	registry *Registry

	mu       sync.Mutex
	inflight map[string]*inflightEntry
}

// NewRunner creates a Runner backed by registry.
func NewRunner(registry *Registry) *Runner {
	return &Runner{
		registry: registry,
		inflight: make(map[string]*inflightEntry),
	}
}

// Run executes calls for one LLM turn: sequential calls run in submission
// order, concurrent calls fan out afterward with results landing in
// completion order. Each ToolResultItem is appended to sessionID's history
// immediately after the tool returns, before the next tool starts. If ctx
// is cancelled partway through, every remaining pending/in-progress call
// is resolved with the fixed cancellation payload and an InterruptItem is
// appended last.
func (r *Runner) Run(ctx context.Context, sessionID string, history HistoryAppender, sink EventSink, calls []models.ToolCallItem) ([]models.ToolResultItem, error) {
	if sink == nil {
		sink = NoopEventSink{}
	}
	results := make([]models.ToolResultItem, len(calls))

	var sequential, concurrent []int
	for i, call := range calls {
		r.markPending(call)
		sink.ToolCallStarted(call)
		if r.classOf(call.Name) == Concurrent {
			concurrent = append(concurrent, i)
		} else {
			sequential = append(sequential, i)
		}
	}

	cancelled := false
	for _, idx := range sequential {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		call := calls[idx]
		result := r.invoke(ctx, call)
		if err := r.resolve(ctx, sessionID, history, sink, call, result); err != nil {
			return results, err
		}
		results[idx] = result
	}

	if !cancelled && len(concurrent) > 0 {
		if ctx.Err() != nil {
			cancelled = true
		} else {
			group, gctx := errgroup.WithContext(ctx)
			var mu sync.Mutex
			for _, idx := range concurrent {
				idx := idx
				call := calls[idx]
				group.Go(func() error {
					result := r.invoke(gctx, call)
					mu.Lock()
					defer mu.Unlock()
					if err := r.resolve(ctx, sessionID, history, sink, call, result); err != nil {
						return err
					}
					results[idx] = result
					return nil
				})
			}
			if err := group.Wait(); err != nil {
				return results, err
			}
		}
	}

	if cancelled || ctx.Err() != nil {
		if err := r.cancelRemaining(ctx, sessionID, history, sink, calls, results); err != nil {
			return results, err
		}
		if err := history.AppendHistory(context.Background(), sessionID, models.ConversationItem{
			Type:      models.ItemInterrupt,
			Interrupt: &models.InterruptItem{},
		}); err != nil {
			return results, err
		}
	}

	return results, nil
}

func (r *Runner) classOf(name string) ConcurrencyClass {
	if tool, ok := r.registry.Get(name); ok {
		return tool.ConcurrencyClass()
	}
	return Sequential
}

func (r *Runner) markPending(call models.ToolCallItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inflight[call.CallID] = &inflightEntry{call: call, status: statusPending}
}

func (r *Runner) markInProgress(callID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.inflight[callID]; ok {
		e.status = statusInProgress
	}
}

func (r *Runner) clearInflight(callID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, callID)
}

func (r *Runner) invoke(ctx context.Context, call models.ToolCallItem) models.ToolResultItem {
	r.markInProgress(call.CallID)
	defer r.clearInflight(call.CallID)

	tool, ok := r.registry.Get(call.Name)
	if !ok {
		return models.ToolResultItem{
			CallID:   call.CallID,
			ToolName: call.Name,
			Output:   "tool not found: " + call.Name,
			Status:   models.ToolResultError,
		}
	}
	return tool.Execute(ctx, call.CallID, call.ArgumentsRaw)
}

// resolve appends a single result to history, emits the result event, and
// handles the TodoWrite/UpdatePlan UI-extra follow-up event.
func (r *Runner) resolve(ctx context.Context, sessionID string, history HistoryAppender, sink EventSink, call models.ToolCallItem, result models.ToolResultItem) error {
	item := models.ConversationItem{Type: models.ItemToolResult, ToolResult: &result}
	if err := history.AppendHistory(ctx, sessionID, item); err != nil {
		return err
	}
	sink.ToolResult(result)

	if call.Name == "TodoWrite" || call.Name == "UpdatePlan" {
		if todos, ok := decodeTodos(result.UIExtra); ok {
			sink.TodoChanged(todos)
		}
	}
	return nil
}

func decodeTodos(uiExtra json.RawMessage) ([]models.TodoItem, bool) {
	if len(uiExtra) == 0 {
		return nil, false
	}
	var todos []models.TodoItem
	if err := json.Unmarshal(uiExtra, &todos); err != nil {
		return nil, false
	}
	return todos, true
}

// cancelRemaining resolves every still-inflight call with the fixed
// cancellation payload, in deterministic call order.
func (r *Runner) cancelRemaining(ctx context.Context, sessionID string, history HistoryAppender, sink EventSink, calls []models.ToolCallItem, results []models.ToolResultItem) error {
	for i, call := range calls {
		r.mu.Lock()
		_, stillInflight := r.inflight[call.CallID]
		r.mu.Unlock()
		if !stillInflight {
			continue
		}

		result := models.ToolResultItem{
			CallID:   call.CallID,
			ToolName: call.Name,
			Output:   models.CancelledToolOutput,
			Status:   models.ToolResultError,
		}
		if err := history.AppendHistory(context.Background(), sessionID, models.ConversationItem{
			Type:       models.ItemToolResult,
			ToolResult: &result,
		}); err != nil {
			return err
		}
		sink.ToolResult(result)
		results[i] = result
		r.clearInflight(call.CallID)
	}
	return nil
}
