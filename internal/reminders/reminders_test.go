package reminders

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/haasonsaas/agentcore/pkg/models"
)

func newTestSession() *models.Session {
	return models.NewSession("s1", "/work")
}

func TestGetLastNewUserInput_StopsAtToolResult(t *testing.T) {
	s := newTestSession()
	s.Append(models.ConversationItem{Type: models.ItemUserMessage, UserMessage: &models.UserMessage{Content: "hello"}})
	s.Append(models.ConversationItem{Type: models.ItemToolCall, ToolCall: &models.ToolCallItem{CallID: "1", Name: "Bash"}})
	s.Append(models.ConversationItem{Type: models.ItemToolResult, ToolResult: &models.ToolResultItem{CallID: "1"}})

	_, ok := GetLastNewUserInput(s)
	if ok {
		t.Fatal("GetLastNewUserInput() ok = true, want false after a trailing ToolResult")
	}
}

func TestGetLastNewUserInput_CollectsUserAndDeveloperMessages(t *testing.T) {
	s := newTestSession()
	s.Append(models.ConversationItem{Type: models.ItemUserMessage, UserMessage: &models.UserMessage{Content: "look at @foo.txt"}})

	got, ok := GetLastNewUserInput(s)
	if !ok || got != "look at @foo.txt" {
		t.Fatalf("GetLastNewUserInput() = %q, %v, want the last user message", got, ok)
	}
}

func TestEmptyTodoReminder_FiresOnceThenCooldown(t *testing.T) {
	s := newTestSession()

	msg, err := EmptyTodoReminder(context.Background(), s)
	if err != nil || msg == nil {
		t.Fatalf("EmptyTodoReminder() first call = %v, %v, want a reminder", msg, err)
	}
	if s.EmptyTodoCooldown != todoCooldownTurns {
		t.Fatalf("EmptyTodoCooldown = %d, want %d", s.EmptyTodoCooldown, todoCooldownTurns)
	}

	msg, err = EmptyTodoReminder(context.Background(), s)
	if err != nil || msg != nil {
		t.Fatalf("EmptyTodoReminder() during cooldown = %v, %v, want nil", msg, err)
	}
	if s.EmptyTodoCooldown != todoCooldownTurns-1 {
		t.Fatalf("EmptyTodoCooldown after decrement = %d, want %d", s.EmptyTodoCooldown, todoCooldownTurns-1)
	}
}

func TestEmptyTodoReminder_NoReminderWhenTodosActive(t *testing.T) {
	s := newTestSession()
	s.Todos = []models.TodoItem{{Content: "do it", Status: models.TodoInProgress}}

	msg, err := EmptyTodoReminder(context.Background(), s)
	if err != nil || msg != nil {
		t.Fatalf("EmptyTodoReminder() with active todos = %v, %v, want nil", msg, err)
	}
}

func TestTodoNotUsedRecentlyReminder_TriggersAtThreshold(t *testing.T) {
	s := newTestSession()
	s.Todos = []models.TodoItem{{Content: "do it", Status: models.TodoInProgress}}
	for i := 0; i < todoNotUsedThreshold; i++ {
		s.Append(models.ConversationItem{Type: models.ItemToolCall, ToolCall: &models.ToolCallItem{CallID: "c", Name: "Bash"}})
	}

	msg, err := TodoNotUsedRecentlyReminder(context.Background(), s)
	if err != nil || msg == nil {
		t.Fatalf("TodoNotUsedRecentlyReminder() = %v, %v, want a reminder at threshold", msg, err)
	}
	if !msg.TodoUse {
		t.Fatal("reminder.TodoUse = false, want true")
	}
}

func TestTodoNotUsedRecentlyReminder_SkippedWhenAllCompleted(t *testing.T) {
	s := newTestSession()
	s.Todos = []models.TodoItem{{Content: "done", Status: models.TodoCompleted}}

	msg, err := TodoNotUsedRecentlyReminder(context.Background(), s)
	if err != nil || msg != nil {
		t.Fatalf("TodoNotUsedRecentlyReminder() with all completed = %v, %v, want nil", msg, err)
	}
}

func TestMainAgentReminders_OmitsTodoNudgesForGPT5(t *testing.T) {
	reminders := MainAgentReminders(false, "gpt-5-mini")
	if len(reminders) != 5 {
		t.Fatalf("MainAgentReminders(gpt-5) len = %d, want 5 (no todo nudges)", len(reminders))
	}
}

func TestMainAgentReminders_IncludesTodoNudgesOtherwise(t *testing.T) {
	reminders := MainAgentReminders(false, "claude-sonnet")
	if len(reminders) != 7 {
		t.Fatalf("MainAgentReminders(claude) len = %d, want 7", len(reminders))
	}
}

func TestMainAgentReminders_Vanilla(t *testing.T) {
	reminders := MainAgentReminders(true, "anything")
	if len(reminders) != len(Vanilla) {
		t.Fatalf("MainAgentReminders(vanilla) len = %d, want %d", len(reminders), len(Vanilla))
	}
}

func TestLastPathMemoryReminder_NoToolCallsReturnsNil(t *testing.T) {
	s := newTestSession()
	msg, err := LastPathMemoryReminder(context.Background(), s)
	if err != nil || msg != nil {
		t.Fatalf("LastPathMemoryReminder() with empty history = %v, %v, want nil", msg, err)
	}
}

func TestLastPathMemoryReminder_StopsAtAssistantMessageBoundary(t *testing.T) {
	s := newTestSession()
	args, _ := json.Marshal(map[string]string{"file_path": "a.go"})
	s.Append(models.ConversationItem{Type: models.ItemAssistantMessage, AssistantMessage: &models.AssistantMessage{Content: "ok"}})
	s.Append(models.ConversationItem{Type: models.ItemToolCall, ToolCall: &models.ToolCallItem{CallID: "1", Name: "Read", ArgumentsRaw: args}})

	calls := getLastTurnToolCalls(s)
	if len(calls) != 1 {
		t.Fatalf("getLastTurnToolCalls() len = %d, want 1", len(calls))
	}
}
