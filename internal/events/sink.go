package events

import (
	"context"

	"github.com/haasonsaas/agentcore/pkg/models"
)

// ToolEventSink adapts a Bus to the tools.EventSink interface (satisfied
// structurally; this package intentionally does not import internal/tools
// to avoid a dependency the Runner doesn't need). One ToolEventSink is
// created per turn so ResponseID stays fixed across the turn's calls.
type ToolEventSink struct {
	bus        *Bus
	sessionID  string
	responseID string
}

// NewToolEventSink creates a sink that emits onto bus for sessionID/
// responseID.
func NewToolEventSink(bus *Bus, sessionID, responseID string) *ToolEventSink {
	return &ToolEventSink{bus: bus, sessionID: sessionID, responseID: responseID}
}

func (s *ToolEventSink) ToolCallStarted(call models.ToolCallItem) {
	s.bus.Emit(context.Background(), Event{
		Type: ToolCall,
		ToolCall: &ToolCallPayload{
			SessionID:  s.sessionID,
			ResponseID: s.responseID,
			ToolCallID: call.CallID,
			ToolName:   call.Name,
			Arguments:  call.ArgumentsRaw,
		},
	})
}

func (s *ToolEventSink) ToolResult(result models.ToolResultItem) {
	s.bus.Emit(context.Background(), Event{
		Type: ToolResult,
		ToolResult: &ToolResultPayload{
			SessionID:  s.sessionID,
			ResponseID: s.responseID,
			ToolCallID: result.CallID,
			ToolName:   result.ToolName,
			Result:     result.Output,
			Status:     result.Status,
			UIExtra:    result.UIExtra,
		},
	})
}

func (s *ToolEventSink) TodoChanged(todos []models.TodoItem) {
	s.bus.Emit(context.Background(), Event{
		Type: TodoChange,
		TodoChange: &TodoChangePayload{
			SessionID: s.sessionID,
			Todos:     todos,
		},
	})
}
