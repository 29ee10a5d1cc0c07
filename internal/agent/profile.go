package agent

import (
	"github.com/haasonsaas/agentcore/internal/llm"
	"github.com/haasonsaas/agentcore/internal/reminders"
	"github.com/haasonsaas/agentcore/internal/tools"
)

// Role discriminates a Profile's place in the agent hierarchy, matching
// spec §3.6: the main session, or a sub-agent spawned by Task/Oracle.
type Role string

const (
	RoleMain      Role = "main"
	RoleSubTask   Role = "sub:task"
	RoleSubOracle Role = "sub:oracle"
)

// Profile is the immutable bundle an Engine reads to run one task: which
// LLM client to call, what system prompt and tool schemas to advertise,
// and which reminder functions run after every turn. A ChangeModel
// operation or plan-mode toggle replaces a session's active Profile
// wholesale (the Executor swaps the pointer); Engine never mutates one.
type Profile struct {
	LLMClient    llm.Client
	Role         Role
	SystemPrompt string
	ToolSchemas  []llm.ToolSchema
	Reminders    []reminders.Reminder
}

// NewMainProfile builds the Profile for a top-level session.
func NewMainProfile(client llm.Client, systemPrompt string, toolSchemas []llm.ToolSchema, vanilla bool) *Profile {
	return &Profile{
		LLMClient:    client,
		Role:         RoleMain,
		SystemPrompt: systemPrompt,
		ToolSchemas:  toolSchemas,
		Reminders:    reminders.MainAgentReminders(vanilla, client.ModelName()),
	}
}

// NewSubProfile builds the Profile for a Task/Oracle sub-agent run. role
// must be RoleSubTask or RoleSubOracle.
func NewSubProfile(role Role, client llm.Client, systemPrompt string, toolSchemas []llm.ToolSchema, vanilla bool) *Profile {
	return &Profile{
		LLMClient:    client,
		Role:         role,
		SystemPrompt: systemPrompt,
		ToolSchemas:  toolSchemas,
		Reminders:    reminders.SubAgentReminders(vanilla),
	}
}

// ToolSchemasOf converts a Registry's LLM-facing schemas to the shape
// llm.Params.Tools expects, for building a Profile from a live Registry.
func ToolSchemasOf(registry *tools.Registry) []llm.ToolSchema {
	schemas := registry.Schemas()
	out := make([]llm.ToolSchema, len(schemas))
	for i, s := range schemas {
		out[i] = llm.ToolSchema{Name: s.Name, Description: s.Description, Parameters: s.Parameters}
	}
	return out
}

// WithModel returns a copy of p pointed at a new client, used to
// implement ChangeModel without mutating the Profile a turn in flight is
// still reading.
func (p *Profile) WithModel(client llm.Client) *Profile {
	next := *p
	next.LLMClient = client
	return &next
}
