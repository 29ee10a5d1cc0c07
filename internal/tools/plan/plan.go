// Package plan implements the TodoWrite and UpdatePlan tools (spec §4.3):
// both replace a session's current todo list wholesale and hand the
// Runner a UIExtra payload of the new list, which decodeTodos turns into
// a TodoChange event (spec §6.1 point 7). TodoWrite is the everyday
// progress tracker; UpdatePlan is the same write surfaced under the name
// a planning-mode turn calls before work starts, so the reminder pipeline
// (internal/reminders/todo.go) and the Runner's dispatch both recognize
// either name as "the todo list changed."
package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/haasonsaas/agentcore/internal/agent"
	"github.com/haasonsaas/agentcore/internal/tools"
	"github.com/haasonsaas/agentcore/pkg/models"
)

type todoInput struct {
	Content    string `json:"content"`
	Status     string `json:"status"`
	ActiveForm string `json:"active_form,omitempty"`
}

func parametersSchema(description string) json.RawMessage {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"todos": map[string]interface{}{
				"type":        "array",
				"description": description,
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"content":     map[string]interface{}{"type": "string"},
						"status":      map[string]interface{}{"type": "string", "enum": []string{"pending", "in_progress", "completed"}},
						"active_form": map[string]interface{}{"type": "string"},
					},
					"required": []string{"content", "status"},
				},
			},
		},
		"required": []string{"todos"},
	}
	payload, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return payload
}

// writeTodos is the shared Execute body for TodoWrite and UpdatePlan:
// parse the replacement list, validate status, write it onto the calling
// turn's session, and return a UIExtra payload the Runner decodes into a
// TodoChange event.
func writeTodos(ctx context.Context, callID, name string, argumentsJSON json.RawMessage) models.ToolResultItem {
	var input struct {
		Todos []todoInput `json:"todos"`
	}
	if err := json.Unmarshal(argumentsJSON, &input); err != nil {
		return errResult(callID, name, fmt.Sprintf("Invalid arguments: %v", err))
	}

	todos := make([]models.TodoItem, 0, len(input.Todos))
	var inProgress int
	for i, t := range input.Todos {
		status := models.TodoStatus(t.Status)
		switch status {
		case models.TodoPending, models.TodoInProgress, models.TodoCompleted:
		default:
			return errResult(callID, name, fmt.Sprintf("todo %d has invalid status %q", i+1, t.Status))
		}
		if strings.TrimSpace(t.Content) == "" {
			return errResult(callID, name, fmt.Sprintf("todo %d is missing content", i+1))
		}
		if status == models.TodoInProgress {
			inProgress++
		}
		todos = append(todos, models.TodoItem{Content: t.Content, Status: status, ActiveForm: t.ActiveForm})
	}
	if inProgress > 1 {
		return errResult(callID, name, "at most one todo may be in_progress at a time")
	}

	tc, ok := agent.ToolContextFromContext(ctx)
	if ok && tc != nil && tc.Session != nil {
		tc.Session.Todos = todos
	}

	extra, err := json.Marshal(todos)
	if err != nil {
		extra = nil
	}

	return models.ToolResultItem{
		CallID:   callID,
		ToolName: name,
		Output:   summarize(todos),
		UIExtra:  extra,
		Status:   models.ToolResultSuccess,
	}
}

func summarize(todos []models.TodoItem) string {
	if len(todos) == 0 {
		return "Todo list cleared."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Todo list updated (%d items):\n", len(todos))
	for _, t := range todos {
		b.WriteString("- [" + string(t.Status) + "] " + t.Content + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func errResult(callID, name, message string) models.ToolResultItem {
	return models.ToolResultItem{CallID: callID, ToolName: name, Output: message, Status: models.ToolResultError}
}

// TodoWriteTool lets the model create and update the session's todo list
// as it works through a multi-step task.
type TodoWriteTool struct{}

// NewTodoWriteTool creates a TodoWrite tool. It carries no config: the
// list it mutates always comes from the calling turn's agent.ToolContext.
func NewTodoWriteTool() *TodoWriteTool { return &TodoWriteTool{} }

func (t *TodoWriteTool) Name() string                            { return tools.NameTodoWrite }
func (t *TodoWriteTool) ConcurrencyClass() tools.ConcurrencyClass { return tools.Sequential }

func (t *TodoWriteTool) Description() string {
	return "Replaces the current todo list with the given items. Use for complex, multi-step " +
		"tasks to track progress; keep exactly one item in_progress at a time."
}

func (t *TodoWriteTool) Parameters() json.RawMessage {
	return parametersSchema("The complete new todo list, replacing whatever was there before.")
}

func (t *TodoWriteTool) Execute(ctx context.Context, callID string, argumentsJSON json.RawMessage) models.ToolResultItem {
	return writeTodos(ctx, callID, t.Name(), argumentsJSON)
}

// UpdatePlanTool is the same wholesale-replace write as TodoWrite, called
// out as its own tool name for a planning turn that proposes a plan
// before any other tool runs.
type UpdatePlanTool struct{}

// NewUpdatePlanTool creates an UpdatePlan tool.
func NewUpdatePlanTool() *UpdatePlanTool { return &UpdatePlanTool{} }

func (t *UpdatePlanTool) Name() string                            { return tools.NameUpdatePlan }
func (t *UpdatePlanTool) ConcurrencyClass() tools.ConcurrencyClass { return tools.Sequential }

func (t *UpdatePlanTool) Description() string {
	return "Proposes or revises the step-by-step plan for the current task, replacing the " +
		"todo list shown to the user."
}

func (t *UpdatePlanTool) Parameters() json.RawMessage {
	return parametersSchema("The complete new plan, replacing whatever was there before.")
}

func (t *UpdatePlanTool) Execute(ctx context.Context, callID string, argumentsJSON json.RawMessage) models.ToolResultItem {
	return writeTodos(ctx, callID, t.Name(), argumentsJSON)
}
