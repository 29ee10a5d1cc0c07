// Package models provides the domain types shared by the agent runtime:
// the conversation item sum type, session state, and todo tracking.
package models

import (
	"encoding/json"
	"time"
)

// ItemType discriminates the tagged ConversationItem variants for JSON
// persistence. The string values are the exact tags written to the
// session's JSONL message log (see sessions.FileStore).
type ItemType string

const (
	ItemUserMessage        ItemType = "user_message"
	ItemDeveloperMessage   ItemType = "developer_message"
	ItemAssistantMessage   ItemType = "assistant_message"
	ItemReasoningText      ItemType = "reasoning_text"
	ItemReasoningEncrypted ItemType = "reasoning_encrypted"
	ItemToolCall           ItemType = "tool_call"
	ItemToolResult         ItemType = "tool_result"
	ItemResponseMetadata   ItemType = "response_metadata"
	ItemInterrupt          ItemType = "interrupt"
)

// ImagePart is an inline image attachment carried on a message.
type ImagePart struct {
	Path     string `json:"path,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Data     []byte `json:"data,omitempty"`
}

// ToolResultStatus is the outcome of a single tool invocation.
type ToolResultStatus string

const (
	ToolResultSuccess ToolResultStatus = "success"
	ToolResultError   ToolResultStatus = "error"
	ToolResultAborted ToolResultStatus = "aborted"
)

// CancelledToolOutput is the fixed text synthesized for tool calls that
// were still pending or in flight when the task was cancelled.
const CancelledToolOutput = "[Request interrupted by user for tool use]"

// ConversationItem is the tagged sum persisted in a session's history.
// Exactly one of the typed payload fields is populated, matching the
// variant named by Type. Encoding/decoding goes through MarshalJSON /
// UnmarshalJSON so the on-disk shape is always {"type": "...", "data": {...}}.
type ConversationItem struct {
	Type ItemType

	UserMessage        *UserMessage
	DeveloperMessage   *DeveloperMessage
	AssistantMessage   *AssistantMessage
	ReasoningText       *ReasoningText
	ReasoningEncrypted *ReasoningEncrypted
	ToolCall           *ToolCallItem
	ToolResult         *ToolResultItem
	ResponseMetadata   *ResponseMetadataItem
	Interrupt          *InterruptItem
}

type itemEnvelope struct {
	Type ItemType        `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MarshalJSON encodes the item as {"type": ..., "data": ...}.
func (c ConversationItem) MarshalJSON() ([]byte, error) {
	var data any
	switch c.Type {
	case ItemUserMessage:
		data = c.UserMessage
	case ItemDeveloperMessage:
		data = c.DeveloperMessage
	case ItemAssistantMessage:
		data = c.AssistantMessage
	case ItemReasoningText:
		data = c.ReasoningText
	case ItemReasoningEncrypted:
		data = c.ReasoningEncrypted
	case ItemToolCall:
		data = c.ToolCall
	case ItemToolResult:
		data = c.ToolResult
	case ItemResponseMetadata:
		data = c.ResponseMetadata
	case ItemInterrupt:
		data = c.Interrupt
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(itemEnvelope{Type: c.Type, Data: raw})
}

// UnmarshalJSON decodes an envelope, skipping unknown type tags by
// returning a zero-value item of an empty Type rather than an error —
// callers (session replay) treat Type == "" as "skip this line".
func (c *ConversationItem) UnmarshalJSON(b []byte) error {
	var env itemEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	c.Type = env.Type
	switch env.Type {
	case ItemUserMessage:
		c.UserMessage = &UserMessage{}
		return json.Unmarshal(env.Data, c.UserMessage)
	case ItemDeveloperMessage:
		c.DeveloperMessage = &DeveloperMessage{}
		return json.Unmarshal(env.Data, c.DeveloperMessage)
	case ItemAssistantMessage:
		c.AssistantMessage = &AssistantMessage{}
		return json.Unmarshal(env.Data, c.AssistantMessage)
	case ItemReasoningText:
		c.ReasoningText = &ReasoningText{}
		return json.Unmarshal(env.Data, c.ReasoningText)
	case ItemReasoningEncrypted:
		c.ReasoningEncrypted = &ReasoningEncrypted{}
		return json.Unmarshal(env.Data, c.ReasoningEncrypted)
	case ItemToolCall:
		c.ToolCall = &ToolCallItem{}
		return json.Unmarshal(env.Data, c.ToolCall)
	case ItemToolResult:
		c.ToolResult = &ToolResultItem{}
		return json.Unmarshal(env.Data, c.ToolResult)
	case ItemResponseMetadata:
		c.ResponseMetadata = &ResponseMetadataItem{}
		return json.Unmarshal(env.Data, c.ResponseMetadata)
	case ItemInterrupt:
		c.Interrupt = &InterruptItem{}
		return nil
	default:
		c.Type = ""
		return nil
	}
}

// UserMessage is a turn-initiating message from the human operator.
type UserMessage struct {
	Content string      `json:"content"`
	Images  []ImagePart `json:"images,omitempty"`
}

// DeveloperMessage is a system-reminder style message synthesized by the
// reminder pipeline or command dispatcher, addressed to the model but
// not authored by the user.
type DeveloperMessage struct {
	Content             string      `json:"content"`
	Images              []ImagePart `json:"images,omitempty"`
	AtFiles             []string    `json:"at_files,omitempty"`
	MemoryPaths         []string    `json:"memory_paths,omitempty"`
	ExternalFileChanges []string    `json:"external_file_changes,omitempty"`
	TodoUse             bool        `json:"todo_use,omitempty"`
	CommandOutput       string      `json:"command_output,omitempty"`
	ClipboardImages     []string    `json:"clipboard_images,omitempty"`
}

// Annotation is an inline citation/reference attached to assistant text.
type Annotation struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	URL  string `json:"url,omitempty"`
}

// AssistantMessage is the model's text response for one turn.
type AssistantMessage struct {
	Content     string       `json:"content"`
	ResponseID  string       `json:"response_id,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

// ReasoningText is a plaintext reasoning summary carried across turns.
type ReasoningText struct {
	Content    string `json:"content"`
	ResponseID string `json:"response_id,omitempty"`
	Model      string `json:"model,omitempty"`
	ID         string `json:"id,omitempty"`
}

// ReasoningEncrypted is provider-sealed thinking; Content is opaque and
// must be persisted verbatim, never inspected or mutated.
type ReasoningEncrypted struct {
	EncryptedContent []byte `json:"encrypted_content"`
	Format           string `json:"format"`
	ResponseID       string `json:"response_id,omitempty"`
	ID               string `json:"id,omitempty"`
}

// ToolCallItem is a model request to execute a named tool.
type ToolCallItem struct {
	CallID       string          `json:"call_id"`
	ResponseID   string          `json:"response_id,omitempty"`
	Name         string          `json:"name"`
	ArgumentsRaw json.RawMessage `json:"arguments_json"`
}

// ToolResultItem is the outcome of executing a ToolCallItem.
type ToolResultItem struct {
	CallID   string           `json:"call_id"`
	ToolName string           `json:"tool_name"`
	Output   string           `json:"output,omitempty"`
	UIExtra  json.RawMessage  `json:"ui_extra,omitempty"`
	Status   ToolResultStatus `json:"status"`
	Images   []ImagePart      `json:"images,omitempty"`
}

// Usage carries token and cost accounting for one turn or a task total.
type Usage struct {
	InputTokens         int64    `json:"input_tokens"`
	CachedTokens        int64    `json:"cached_tokens"`
	OutputTokens        int64    `json:"output_tokens"`
	ReasoningTokens     int64    `json:"reasoning_tokens"`
	TotalTokens         int64    `json:"total_tokens"`
	ContextUsagePercent *float64 `json:"context_usage_percent,omitempty"`
	FirstTokenLatencyMs *int64   `json:"first_token_latency_ms,omitempty"`
	ThroughputTPS       *float64 `json:"throughput_tps,omitempty"`
	CostInputUSD        float64  `json:"cost_input_usd,omitempty"`
	CostOutputUSD       float64  `json:"cost_output_usd,omitempty"`
}

// ResponseStatus mirrors the LLM stream's terminal stop reason.
type ResponseStatus string

const (
	StatusCompleted ResponseStatus = "completed"
	StatusLength    ResponseStatus = "length"
	StatusToolUse   ResponseStatus = "tool_use"
	StatusError     ResponseStatus = "error"
	StatusAborted   ResponseStatus = "aborted"
)

// ResponseMetadataItem is the accumulated per-task (or per-turn, before
// merge) response metadata.
type ResponseMetadataItem struct {
	ModelName     string         `json:"model_name"`
	Provider      string         `json:"provider,omitempty"`
	ResponseID    string         `json:"response_id,omitempty"`
	Status        ResponseStatus `json:"status"`
	ErrorReason   string         `json:"error_reason,omitempty"`
	Usage         *Usage         `json:"usage,omitempty"`
	TaskDurationS float64        `json:"task_duration_s,omitempty"`
	TurnCount     int            `json:"turn_count,omitempty"`
}

// InterruptItem marks a user-initiated cancellation boundary in history.
type InterruptItem struct{}

// TodoStatus is the lifecycle state of a single todo entry.
type TodoStatus string

const (
	TodoPending    TodoStatus = "pending"
	TodoInProgress TodoStatus = "in_progress"
	TodoCompleted  TodoStatus = "completed"
)

// TodoItem is one entry of the plan surfaced by the TodoWrite/UpdatePlan tool.
type TodoItem struct {
	Content    string     `json:"content"`
	Status     TodoStatus `json:"status"`
	ActiveForm string     `json:"active_form,omitempty"`
}

// SubAgentState marks a session as belonging to a nested sub-agent run.
type SubAgentState struct {
	Kind        string `json:"kind"`
	ParentID    string `json:"parent_id"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
}

// Session is the full state of one conversation thread: its history,
// todos, file-read tracker, and cooldown counters for the reminder
// pipeline. Reminder cooldowns are intentionally not persisted — they
// reset to zero on reload, matching the teacher's in-memory session
// state semantics.
type Session struct {
	ID                 string
	WorkDir            string
	ConversationHistory []ConversationItem
	Todos              []TodoItem
	FileTracker        map[string]time.Time
	LoadedMemory       map[string]bool
	SubAgentState      *SubAgentState
	ModelName          string
	LastResponseID     string
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// Reminder cooldown counters (non-persisted).
	EmptyTodoCooldown       int
	TodoNotUsedCooldown     int
	ToolCallsSinceTodoWrite int
}

// NewSession creates an empty root session rooted at workDir.
func NewSession(id, workDir string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		WorkDir:      workDir,
		FileTracker:  make(map[string]time.Time),
		LoadedMemory: make(map[string]bool),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsRoot reports whether this session is a top-level session (not a
// sub-agent run).
func (s *Session) IsRoot() bool {
	return s.SubAgentState == nil
}

// MessagesCount counts only User and Assistant messages, matching the
// UI summary semantics in spec §3.2.
func (s *Session) MessagesCount() int {
	n := 0
	for _, item := range s.ConversationHistory {
		if item.Type == ItemUserMessage || item.Type == ItemAssistantMessage {
			n++
		}
	}
	return n
}

// Append adds items to history and refreshes UpdatedAt. Callers that need
// durable persistence must also call the session store's AppendHistory.
func (s *Session) Append(items ...ConversationItem) {
	s.ConversationHistory = append(s.ConversationHistory, items...)
	s.UpdatedAt = time.Now()
}
