// Package llm defines the LLM Stream Adapter contract (C4): the small
// interface every model provider implements, and the StreamItem sum type
// the Agent Turn Engine consumes. This package intentionally stops at the
// contract and a mock client — no concrete provider (Anthropic, OpenAI,
// ...) is implemented here; spec Non-goals exclude provider wiring beyond
// the abstract streaming contract.
package llm

import (
	"context"
	"encoding/json"

	"github.com/haasonsaas/agentcore/pkg/models"
)

// ToolSchema is what a Client sends the provider to advertise a callable
// tool: name, natural-language description, and JSON-schema parameters.
type ToolSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// Params carries one Call's input: conversation history, system prompt,
// tool schemas, and per-model generation knobs.
type Params struct {
	Model                string
	SystemPrompt         string
	History              []models.ConversationItem
	Tools                []ToolSchema
	MaxTokens            int
	Temperature          float64
	EnableThinking       bool
	ThinkingBudgetTokens int
}

// ItemType discriminates the StreamItem sum, matching spec §4.4 exactly.
type ItemType string

const (
	ItemStart                 ItemType = "start"
	ItemReasoningTextDelta    ItemType = "reasoning_text_delta"
	ItemReasoningText         ItemType = "reasoning_text"
	ItemAssistantMessageDelta ItemType = "assistant_message_delta"
	ItemAssistantMessage      ItemType = "assistant_message"
	ItemToolCallStart         ItemType = "tool_call_start"
	ItemToolCall              ItemType = "tool_call"
	ItemResponseMetadata      ItemType = "response_metadata"
	ItemStreamError           ItemType = "stream_error"
)

// StreamItem is one event from a Call's stream. Exactly one payload field
// is populated, matching Type.
type StreamItem struct {
	Type ItemType

	Start                 *StartPayload
	ReasoningTextDelta    *ReasoningDeltaPayload
	ReasoningText         *ReasoningPayload
	AssistantMessageDelta *AssistantDeltaPayload
	AssistantMessage      *AssistantPayload
	ToolCallStart         *ToolCallStartPayload
	ToolCall              *ToolCallPayload
	ResponseMetadata      *models.ResponseMetadataItem
	StreamError           *StreamErrorPayload
}

// StartPayload is the first event of a stream; some providers omit it.
type StartPayload struct {
	ResponseID string
}

// ReasoningDeltaPayload is an incremental chunk of thinking text.
type ReasoningDeltaPayload struct {
	Content    string
	ResponseID string
}

// ReasoningPayload is the final aggregated reasoning text, which may
// substitute for missing deltas on providers that don't stream thinking
// incrementally.
type ReasoningPayload struct {
	Content    string
	ResponseID string
}

// AssistantDeltaPayload is an incremental chunk of assistant text.
type AssistantDeltaPayload struct {
	Content    string
	ResponseID string
}

// AssistantPayload is the final assistant message.
type AssistantPayload struct {
	Content     string
	ResponseID  string
	Annotations []models.Annotation
}

// ToolCallStartPayload fires as soon as the tool name is known; arguments
// may still be streaming.
type ToolCallStartPayload struct {
	CallID     string
	Name       string
	ResponseID string
}

// ToolCallPayload is a complete tool call with its full arguments.
type ToolCallPayload struct {
	CallID       string
	Name         string
	ArgumentsRaw json.RawMessage
	ResponseID   string
}

// StreamErrorPayload carries a terminal stream failure. The stream is
// considered closed once this item is emitted.
type StreamErrorPayload struct {
	Err error
}

// Config is the subset of provider configuration a Client reports back
// for display (e.g. the Welcome event's llm_config), decoupled from
// internal/config to avoid an import cycle.
type Config struct {
	Provider string
	Model    string
}

// Client is the LLM Stream Adapter contract: a small interface with one
// streaming call plus introspection, matching spec §6.3. Implementations
// must be safe for concurrent use — a sub-agent and its parent may share
// one Client instance (role fallback to main).
type Client interface {
	// Call starts a request and returns a channel of StreamItem. The
	// channel is closed when the stream ends, whether by completion,
	// StreamError, or context cancellation. Dropping the context cancels
	// the underlying request.
	Call(ctx context.Context, params Params) (<-chan StreamItem, error)

	// ModelName returns the model this Client is configured for.
	ModelName() string

	// GetLLMConfig returns display configuration for this Client.
	GetLLMConfig() Config

	// GetPartialMessage returns whatever assistant text/thinking has been
	// produced by the most recent Call so far, or nil if nothing has
	// streamed yet. Callable at any point before or after the stream
	// closes; used for partial-message reconstruction on cancellation.
	GetPartialMessage() *AssistantPayload
}
