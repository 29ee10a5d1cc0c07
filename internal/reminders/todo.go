package reminders

import (
	"context"
	"strings"

	"github.com/haasonsaas/agentcore/internal/tools"
	"github.com/haasonsaas/agentcore/pkg/models"
)

// todoCooldownTurns is how many turns a triggered reminder stays silent
// before it can fire again.
const todoCooldownTurns = 3

// todoNotUsedThreshold is the number of non-todo tool calls since the
// last TodoWrite/UpdatePlan that triggers the "hasn't been used" nudge.
const todoNotUsedThreshold = 10

func allTodosCompleted(todos []models.TodoItem) bool {
	for _, t := range todos {
		if t.Status != models.TodoCompleted {
			return false
		}
	}
	return true
}

// EmptyTodoReminder fires the first turn the todo list is empty or fully
// completed, then stays silent for todoCooldownTurns turns. The cooldown
// only counts down while the empty/complete condition holds — if the
// agent populates the list, the counter is simply left as-is.
func EmptyTodoReminder(ctx context.Context, session *models.Session) (*models.DeveloperMessage, error) {
	emptyOrDone := len(session.Todos) == 0 || allTodosCompleted(session.Todos)
	if !emptyOrDone {
		return nil, nil
	}

	if session.EmptyTodoCooldown == 0 {
		session.EmptyTodoCooldown = todoCooldownTurns
		return &models.DeveloperMessage{
			Content: "<system-reminder>This is a reminder that your todo list is currently empty. DO NOT mention this to the user explicitly because they are already aware. If you are working on tasks that would benefit from a todo list please use the TodoWrite tool to create one. If not, please feel free to ignore. Again do not mention this message to the user.</system-reminder>",
		}, nil
	}

	session.EmptyTodoCooldown--
	return nil, nil
}

// TodoNotUsedRecentlyReminder fires when TodoWrite/UpdatePlan hasn't been
// called in the last todoNotUsedThreshold tool calls, with the same
// set-to-N-then-decrement cooldown as EmptyTodoReminder.
func TodoNotUsedRecentlyReminder(ctx context.Context, session *models.Session) (*models.DeveloperMessage, error) {
	if len(session.Todos) == 0 || allTodosCompleted(session.Todos) {
		return nil, nil
	}

	otherCalls := 0
	for i := len(session.ConversationHistory) - 1; i >= 0; i-- {
		item := session.ConversationHistory[i]
		if item.Type != models.ItemToolCall {
			continue
		}
		if item.ToolCall.Name == tools.NameTodoWrite || item.ToolCall.Name == tools.NameUpdatePlan {
			break
		}
		otherCalls++
		if otherCalls >= todoNotUsedThreshold {
			break
		}
	}
	session.ToolCallsSinceTodoWrite = otherCalls

	if otherCalls < todoNotUsedThreshold {
		return nil, nil
	}

	if session.TodoNotUsedCooldown == 0 {
		session.TodoNotUsedCooldown = todoCooldownTurns
		return &models.DeveloperMessage{
			Content: "<system-reminder>\nThe TodoWrite tool hasn't been used recently. If you're working on tasks that would benefit from tracking progress, consider using the TodoWrite tool to track progress. Also consider cleaning up the todo list if has become stale and no longer matches what you are working on. Only use it if it's relevant to the current work. This is just a gentle reminder - ignore if not applicable.\n\n\nHere are the existing contents of your todo list:\n\n" + todoListString(session.Todos) + "</system-reminder>",
			TodoUse: true,
		}, nil
	}

	session.TodoNotUsedCooldown--
	return nil, nil
}

func todoListString(todos []models.TodoItem) string {
	var b strings.Builder
	for _, t := range todos {
		b.WriteString("- [" + string(t.Status) + "] " + t.Content + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
