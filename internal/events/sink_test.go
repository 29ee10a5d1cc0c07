package events

import (
	"encoding/json"
	"testing"

	"github.com/haasonsaas/agentcore/pkg/models"
)

func TestToolEventSink_ToolCallStarted(t *testing.T) {
	bus := NewBus(4)
	sink := NewToolEventSink(bus, "sess-1", "resp-1")

	sink.ToolCallStarted(models.ToolCallItem{CallID: "c1", Name: "Bash", ArgumentsRaw: json.RawMessage(`{"command":"ls"}`)})

	got := <-bus.Events()
	if got.Type != ToolCall {
		t.Fatalf("event type = %v, want ToolCall", got.Type)
	}
	if got.ToolCall.SessionID != "sess-1" || got.ToolCall.ToolCallID != "c1" || got.ToolCall.ToolName != "Bash" {
		t.Fatalf("payload = %+v, want session/call/tool matching input", got.ToolCall)
	}
}

func TestToolEventSink_ToolResult(t *testing.T) {
	bus := NewBus(4)
	sink := NewToolEventSink(bus, "sess-1", "resp-1")

	sink.ToolResult(models.ToolResultItem{CallID: "c1", ToolName: "Bash", Output: "ok", Status: models.ToolResultSuccess})

	got := <-bus.Events()
	if got.Type != ToolResult {
		t.Fatalf("event type = %v, want ToolResult", got.Type)
	}
	if got.ToolResult.Result != "ok" || got.ToolResult.Status != models.ToolResultSuccess {
		t.Fatalf("payload = %+v, want result=ok status=success", got.ToolResult)
	}
}

func TestToolEventSink_TodoChanged(t *testing.T) {
	bus := NewBus(4)
	sink := NewToolEventSink(bus, "sess-1", "")

	todos := []models.TodoItem{{Content: "write tests", Status: models.TodoPending}}
	sink.TodoChanged(todos)

	got := <-bus.Events()
	if got.Type != TodoChange {
		t.Fatalf("event type = %v, want TodoChange", got.Type)
	}
	if len(got.TodoChange.Todos) != 1 || got.TodoChange.Todos[0].Content != "write tests" {
		t.Fatalf("payload = %+v, want one todo 'write tests'", got.TodoChange)
	}
}
