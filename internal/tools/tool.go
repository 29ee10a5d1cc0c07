// Package tools implements the Tool Registry and Runner (C2): the
// name->implementation mapping, sequential/concurrent partitioning,
// inflight call tracking, and cancellation synthesis described in
// spec §4.2.
package tools

import (
	"context"
	"encoding/json"

	"github.com/haasonsaas/agentcore/pkg/models"
)

// ConcurrencyClass determines whether a tool call is scheduled into the
// sequential bucket (awaited one at a time, in submission order) or the
// concurrent bucket (fanned out, results land in completion order).
type ConcurrencyClass string

const (
	// Sequential is the default class: Read, Edit, Bash, and anything
	// that mutates shared state the next call might depend on.
	Sequential ConcurrencyClass = "sequential"

	// Concurrent is for calls with no ordering dependency on each other:
	// sub-agent spawners, web fetches.
	Concurrent ConcurrencyClass = "concurrent"
)

// Tool is one named capability the LLM can invoke via a ToolCallItem.
type Tool interface {
	// Name is the identifier the LLM uses in ToolCallItem.Name. Must
	// match the name advertised in the tool's Schema.
	Name() string

	// Description is shown to the LLM provider adapter as part of the
	// tool's schema.
	Description() string

	// Parameters is the JSON Schema for the tool's arguments.
	Parameters() json.RawMessage

	// ConcurrencyClass selects which Runner bucket this tool lands in.
	ConcurrencyClass() ConcurrencyClass

	// Execute runs the tool for one call. callID identifies the
	// originating ToolCallItem so the result can be correlated back to
	// it; argumentsJSON is the call's raw arguments. Execute must not
	// panic — any failure must come back as a ToolResultItem with
	// Status: ToolResultError.
	Execute(ctx context.Context, callID string, argumentsJSON json.RawMessage) models.ToolResultItem
}

// Schema is the LLM-facing shape of a tool, used by provider adapters to
// build the "tools" section of a completion request.
type Schema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// SchemaOf extracts a Tool's LLM-facing schema.
func SchemaOf(t Tool) Schema {
	return Schema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  t.Parameters(),
	}
}
