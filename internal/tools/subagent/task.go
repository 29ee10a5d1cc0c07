// Package subagent implements the Task and Oracle tools: the two
// concurrency-class-Concurrent tools a main-session turn uses to spawn a
// sub-agent and block on its final reply, per spec §4.6's callback-slot
// contract. Neither tool runs an agent turn itself; both read the
// RunSubAgent closure the Executor installs on the calling context via
// agent.ToolContext and delegate to it.
package subagent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/haasonsaas/agentcore/internal/agent"
	"github.com/haasonsaas/agentcore/internal/tools"
	"github.com/haasonsaas/agentcore/pkg/models"
)

// Tool is the Task/Oracle tool. kind selects which Role the spawned
// child profile runs under; the two tools share everything else.
type Tool struct {
	kind        agent.Role
	name        string
	description string
}

// NewTaskTool builds the Task tool: a general-purpose sub-agent that can
// use the full tool surface, for delegating multi-step work.
func NewTaskTool() *Tool {
	return &Tool{
		kind: agent.RoleSubTask,
		name: tools.NameTask,
		description: "Delegates a self-contained task to a sub-agent that runs independently " +
			"and reports back its final result. Use for work that can be fully described up " +
			"front and doesn't need the main conversation's running context.",
	}
}

// NewOracleTool builds the Oracle tool: a read-only sub-agent intended
// for investigation and advice rather than making changes.
func NewOracleTool() *Tool {
	return &Tool{
		kind: agent.RoleSubOracle,
		name: tools.NameOracle,
		description: "Asks a read-only sub-agent to investigate the workspace and answer a " +
			"question or give advice. The sub-agent can read files and search but cannot " +
			"edit or run commands that change state.",
	}
}

func (t *Tool) Name() string                            { return t.name }
func (t *Tool) Description() string                      { return t.description }
func (t *Tool) ConcurrencyClass() tools.ConcurrencyClass { return tools.Concurrent }

func (t *Tool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"description": {
				"type": "string",
				"description": "A short (3-5 word) label for this sub-agent run."
			},
			"prompt": {
				"type": "string",
				"description": "The full task or question for the sub-agent. Must be self-contained."
			}
		},
		"required": ["description", "prompt"]
	}`)
}

type taskInput struct {
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
}

// Execute spawns a child agent via the installed ToolContext.RunSubAgent
// and blocks until it finishes, returning its final reply plus a stats
// line summarizing the run's cost.
func (t *Tool) Execute(ctx context.Context, callID string, argumentsJSON json.RawMessage) models.ToolResultItem {
	var input taskInput
	if err := json.Unmarshal(argumentsJSON, &input); err != nil {
		return errResult(callID, t.name, fmt.Sprintf("invalid arguments: %v", err))
	}
	if input.Prompt == "" {
		return errResult(callID, t.name, "prompt is required")
	}

	tc, ok := agent.ToolContextFromContext(ctx)
	if !ok || tc.RunSubAgent == nil {
		return errResult(callID, t.name, "sub-agent spawning is not available in this context")
	}

	started := time.Now()
	result, err := tc.RunSubAgent(ctx, t.kind, input.Description, input.Prompt)
	if err != nil {
		return errResult(callID, t.name, fmt.Sprintf("sub-agent run failed: %v", err))
	}

	stats := &StatsLine{
		Runtime:    FormatDurationShort(time.Since(started)),
		SessionKey: result.SessionKey,
	}
	if u := result.Metadata; u != nil && u.Usage != nil {
		stats.InputTokens = u.Usage.InputTokens
		stats.OutputTokens = u.Usage.OutputTokens
		stats.TotalTokens = u.Usage.TotalTokens
	}

	output := result.Message + "\n\n" + BuildStatsLine(stats)
	return models.ToolResultItem{CallID: callID, ToolName: t.name, Output: output, Status: models.ToolResultSuccess}
}

func errResult(callID, name, msg string) models.ToolResultItem {
	return models.ToolResultItem{CallID: callID, ToolName: name, Output: msg, Status: models.ToolResultError}
}
