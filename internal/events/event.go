// Package events implements the Event Bus (C7): a single-producer,
// single-consumer FIFO of typed UI events. The Executor emits; a TUI or
// stdout renderer consumes.
package events

import (
	"encoding/json"
	"time"

	"github.com/haasonsaas/agentcore/pkg/models"
)

// Type discriminates the Event sum type, matching spec §6.1 exactly.
type Type string

const (
	TaskStart             Type = "task_start"
	TurnStart             Type = "turn_start"
	TurnEnd               Type = "turn_end"
	ReplayHistory         Type = "replay_history"
	Welcome               Type = "welcome"
	UserMessage           Type = "user_message"
	DeveloperMessage      Type = "developer_message"
	ThinkingDelta         Type = "thinking_delta"
	Thinking              Type = "thinking"
	AssistantMessageDelta Type = "assistant_message_delta"
	AssistantMessage      Type = "assistant_message"
	ToolCall              Type = "tool_call"
	ToolResult            Type = "tool_result"
	TodoChange            Type = "todo_change"
	ResponseMetadata      Type = "response_metadata"
	TaskFinish            Type = "task_finish"
	Interrupt             Type = "interrupt"
	Error                 Type = "error"
	End                   Type = "end"
)

// LLMConfigSummary is the subset of config.LLMConfig worth showing on the
// Welcome event, kept decoupled from internal/config to avoid a needless
// import from the UI-facing event package.
type LLMConfigSummary struct {
	DefaultProvider string `json:"default_provider"`
	DefaultModel    string `json:"default_model"`
}

// Event is the tagged sum of everything the Executor can emit. Exactly one
// payload field is populated, matching Type.
type Event struct {
	Type Type

	TaskStart             *TaskStartPayload
	TurnStart              *SessionPayload
	TurnEnd                *SessionPayload
	ReplayHistory          *ReplayHistoryPayload
	Welcome                *WelcomePayload
	UserMessage            *UserMessagePayload
	DeveloperMessage       *DeveloperMessagePayload
	ThinkingDelta          *ThinkingPayload
	Thinking               *ThinkingPayload
	AssistantMessageDelta  *AssistantMessagePayload
	AssistantMessage       *AssistantMessagePayload
	ToolCall               *ToolCallPayload
	ToolResult             *ToolResultPayload
	TodoChange             *TodoChangePayload
	ResponseMetadata       *ResponseMetadataPayload
	TaskFinish             *TaskFinishPayload
	Interrupt              *SessionPayload
	Error                  *ErrorPayload
	End                    *struct{}
}

// SessionPayload is the minimal {session_id} shape shared by several
// variants (TurnStart, TurnEnd, Interrupt).
type SessionPayload struct {
	SessionID string `json:"session_id"`
}

// TaskStartPayload is TaskStart's fields.
type TaskStartPayload struct {
	SessionID     string               `json:"session_id"`
	SubAgentState *models.SubAgentState `json:"sub_agent_state,omitempty"`
}

// ReplayHistoryPayload carries the events a UI should render to catch up
// on a resumed session's history.
type ReplayHistoryPayload struct {
	SessionID string    `json:"session_id"`
	Events    []Event   `json:"events"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WelcomePayload greets a fresh UI session with the active workspace and
// model configuration.
type WelcomePayload struct {
	WorkDir   string           `json:"work_dir"`
	LLMConfig LLMConfigSummary `json:"llm_config"`
}

// UserMessagePayload echoes the user's own input back onto the event
// stream so every UI renders the same transcript shape.
type UserMessagePayload struct {
	SessionID string             `json:"session_id"`
	Content   string             `json:"content"`
	Images    []models.ImagePart `json:"images,omitempty"`
}

// DeveloperMessagePayload carries a reminder/command-dispatch message.
type DeveloperMessagePayload struct {
	SessionID string                   `json:"session_id"`
	Item      models.DeveloperMessage `json:"item"`
}

// ThinkingPayload is shared by ThinkingDelta and Thinking.
type ThinkingPayload struct {
	SessionID  string `json:"session_id"`
	ResponseID string `json:"response_id,omitempty"`
	Content    string `json:"content"`
}

// AssistantMessagePayload is shared by AssistantMessageDelta and
// AssistantMessage; Annotations is only ever set on the non-delta event.
type AssistantMessagePayload struct {
	SessionID   string              `json:"session_id"`
	ResponseID  string              `json:"response_id,omitempty"`
	Content     string              `json:"content"`
	Annotations []models.Annotation `json:"annotations,omitempty"`
}

// ToolCallPayload mirrors one ToolCallItem for UI rendering.
type ToolCallPayload struct {
	SessionID  string          `json:"session_id"`
	ResponseID string          `json:"response_id,omitempty"`
	ToolCallID string          `json:"tool_call_id"`
	ToolName   string          `json:"tool_name"`
	Arguments  json.RawMessage `json:"arguments"`
}

// ToolResultPayload mirrors one ToolResultItem for UI rendering.
type ToolResultPayload struct {
	SessionID  string                  `json:"session_id"`
	ResponseID string                  `json:"response_id,omitempty"`
	ToolCallID string                  `json:"tool_call_id"`
	ToolName   string                  `json:"tool_name"`
	Result     string                  `json:"result"`
	Status     models.ToolResultStatus `json:"status"`
	UIExtra    json.RawMessage         `json:"ui_extra,omitempty"`
}

// TodoChangePayload carries the full current todo list.
type TodoChangePayload struct {
	SessionID string            `json:"session_id"`
	Todos     []models.TodoItem `json:"todos"`
}

// ResponseMetadataPayload carries one turn's (or the task-accumulated)
// metadata.
type ResponseMetadataPayload struct {
	SessionID string                       `json:"session_id"`
	Metadata  models.ResponseMetadataItem `json:"metadata"`
}

// TaskFinishPayload marks a task's terminal state.
type TaskFinishPayload struct {
	SessionID  string `json:"session_id"`
	TaskResult string `json:"task_result"`
}

// ErrorPayload is a user-visible error, optionally retryable.
type ErrorPayload struct {
	ErrorMessage string `json:"error_message"`
	CanRetry     bool   `json:"can_retry,omitempty"`
}
