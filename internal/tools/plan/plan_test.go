package plan

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/haasonsaas/agentcore/internal/agent"
	"github.com/haasonsaas/agentcore/pkg/models"
)

func mustMarshal(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	payload, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal arguments: %v", err)
	}
	return payload
}

func ctxWithSession(session *models.Session) context.Context {
	return agent.WithToolContext(context.Background(), &agent.ToolContext{Session: session})
}

func TestTodoWriteReplacesSessionTodos(t *testing.T) {
	session := models.NewSession("s1", "/workspace")
	tool := NewTodoWriteTool()

	result := tool.Execute(ctxWithSession(session), "call-1", mustMarshal(t, map[string]interface{}{
		"todos": []map[string]string{
			{"content": "write tests", "status": "in_progress", "active_form": "Writing tests"},
			{"content": "ship it", "status": "pending"},
		},
	}))

	if result.Status != models.ToolResultSuccess {
		t.Fatalf("expected success, got %s: %s", result.Status, result.Output)
	}
	if len(session.Todos) != 2 {
		t.Fatalf("expected 2 todos on session, got %d", len(session.Todos))
	}
	if session.Todos[0].Status != models.TodoInProgress {
		t.Fatalf("expected first todo in_progress, got %s", session.Todos[0].Status)
	}

	var uiExtra []models.TodoItem
	if err := json.Unmarshal(result.UIExtra, &uiExtra); err != nil {
		t.Fatalf("decode UIExtra: %v", err)
	}
	if len(uiExtra) != 2 {
		t.Fatalf("expected 2 items in UIExtra, got %d", len(uiExtra))
	}
}

func TestTodoWriteRejectsInvalidStatus(t *testing.T) {
	session := models.NewSession("s1", "/workspace")
	tool := NewTodoWriteTool()

	result := tool.Execute(ctxWithSession(session), "call-1", mustMarshal(t, map[string]interface{}{
		"todos": []map[string]string{{"content": "x", "status": "done"}},
	}))

	if result.Status != models.ToolResultError {
		t.Fatalf("expected error, got %s", result.Status)
	}
}

func TestTodoWriteRejectsMultipleInProgress(t *testing.T) {
	session := models.NewSession("s1", "/workspace")
	tool := NewTodoWriteTool()

	result := tool.Execute(ctxWithSession(session), "call-1", mustMarshal(t, map[string]interface{}{
		"todos": []map[string]string{
			{"content": "a", "status": "in_progress"},
			{"content": "b", "status": "in_progress"},
		},
	}))

	if result.Status != models.ToolResultError {
		t.Fatalf("expected error, got %s", result.Status)
	}
}

func TestTodoWriteWithoutToolContextStillSucceeds(t *testing.T) {
	tool := NewTodoWriteTool()
	result := tool.Execute(context.Background(), "call-1", mustMarshal(t, map[string]interface{}{
		"todos": []map[string]string{{"content": "x", "status": "pending"}},
	}))
	if result.Status != models.ToolResultSuccess {
		t.Fatalf("expected success even with no session, got %s: %s", result.Status, result.Output)
	}
}

func TestUpdatePlanReplacesSessionTodos(t *testing.T) {
	session := models.NewSession("s1", "/workspace")
	session.Todos = []models.TodoItem{{Content: "stale", Status: models.TodoCompleted}}
	tool := NewUpdatePlanTool()

	result := tool.Execute(ctxWithSession(session), "call-1", mustMarshal(t, map[string]interface{}{
		"todos": []map[string]string{{"content": "new plan step", "status": "pending"}},
	}))

	if result.Status != models.ToolResultSuccess {
		t.Fatalf("expected success, got %s: %s", result.Status, result.Output)
	}
	if len(session.Todos) != 1 || session.Todos[0].Content != "new plan step" {
		t.Fatalf("expected plan to replace todos, got %#v", session.Todos)
	}
}

func TestTodoWriteEmptyListClearsTodos(t *testing.T) {
	session := models.NewSession("s1", "/workspace")
	session.Todos = []models.TodoItem{{Content: "old", Status: models.TodoPending}}
	tool := NewTodoWriteTool()

	result := tool.Execute(ctxWithSession(session), "call-1", mustMarshal(t, map[string]interface{}{
		"todos": []map[string]string{},
	}))

	if result.Status != models.ToolResultSuccess {
		t.Fatalf("expected success, got %s: %s", result.Status, result.Output)
	}
	if len(session.Todos) != 0 {
		t.Fatalf("expected todos cleared, got %#v", session.Todos)
	}
}
