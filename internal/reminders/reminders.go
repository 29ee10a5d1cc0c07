// Package reminders implements the reminder pipeline (C3): a fixed set
// of functions inspecting session state after each turn and optionally
// emitting a DeveloperMessage back into the conversation. Reminders never
// fail a turn — a reminder that errors internally is treated as "nothing
// to say" and logged, not surfaced to the Agent.
package reminders

import (
	"context"
	"strings"

	"github.com/haasonsaas/agentcore/pkg/models"
)

// Reminder inspects session and optionally returns a developer message to
// append to history before the next turn starts.
type Reminder func(ctx context.Context, session *models.Session) (*models.DeveloperMessage, error)

// GetLastNewUserInput walks history backwards collecting DeveloperMessage
// content newest-first down to (and including) the most recent
// UserMessage, stopping and returning "", false if a ToolResult is hit
// first. Once a tool has run, the "current input" is considered stale.
// The parts are joined in the order collected (newest item first, the
// UserMessage last) rather than re-sorted chronologically, matching the
// original pipeline's own join order.
func GetLastNewUserInput(session *models.Session) (string, bool) {
	var parts []string
	history := session.ConversationHistory
	for i := len(history) - 1; i >= 0; i-- {
		item := history[i]
		switch item.Type {
		case models.ItemToolResult:
			return "", false
		case models.ItemUserMessage:
			parts = append(parts, item.UserMessage.Content)
			return strings.Join(parts, "\n\n"), true
		case models.ItemDeveloperMessage:
			parts = append(parts, item.DeveloperMessage.Content)
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, "\n\n"), true
}

// getLastTurnToolCalls returns the tool calls belonging to the most
// recent turn, walking backwards until a reasoning/assistant-message item
// is reached.
func getLastTurnToolCalls(session *models.Session) []models.ToolCallItem {
	var calls []models.ToolCallItem
	history := session.ConversationHistory
	for i := len(history) - 1; i >= 0; i-- {
		item := history[i]
		if item.Type == models.ItemToolCall {
			calls = append(calls, *item.ToolCall)
			continue
		}
		if item.Type == models.ItemReasoningText || item.Type == models.ItemReasoningEncrypted || item.Type == models.ItemAssistantMessage {
			break
		}
	}
	return calls
}

// AllReminders is every reminder this package implements, in the fixed
// order the original pipeline applies them.
var AllReminders = []Reminder{
	EmptyTodoReminder,
	TodoNotUsedRecentlyReminder,
	FileChangedExternallyReminder,
	MemoryReminder,
	LastPathMemoryReminder,
	AtFileReaderReminder,
	ClipboardImageReminder,
}

// Vanilla is the minimal reminder set used when the agent is run without
// project context (e.g. a bare one-shot exec with no session memory).
var Vanilla = []Reminder{
	AtFileReaderReminder,
	ClipboardImageReminder,
}

// gpt5Prefix marks model names that skip the todo nudges; the original
// omits them for that model family since it self-manages plans.
const gpt5Prefix = "gpt-5"

// MainAgentReminders returns the reminder set for a top-level session.
func MainAgentReminders(vanilla bool, modelName string) []Reminder {
	if vanilla {
		return Vanilla
	}
	var out []Reminder
	if !strings.Contains(modelName, gpt5Prefix) {
		out = append(out, EmptyTodoReminder, TodoNotUsedRecentlyReminder)
	}
	out = append(out, MemoryReminder, LastPathMemoryReminder, AtFileReaderReminder, ClipboardImageReminder, FileChangedExternallyReminder)
	return out
}

// SubAgentReminders returns the reminder set for a nested sub-agent
// session — no todo nudges, since only the top-level session owns the
// plan.
func SubAgentReminders(vanilla bool) []Reminder {
	if vanilla {
		return Vanilla
	}
	return []Reminder{MemoryReminder, LastPathMemoryReminder, AtFileReaderReminder, ClipboardImageReminder, FileChangedExternallyReminder}
}
