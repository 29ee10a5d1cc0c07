package subagent

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/haasonsaas/agentcore/internal/agent"
	"github.com/haasonsaas/agentcore/pkg/models"
)

func mustMarshal(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	payload, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal arguments: %v", err)
	}
	return payload
}

func TestTaskToolNoToolContext(t *testing.T) {
	tool := NewTaskTool()
	result := tool.Execute(context.Background(), "call-1", mustMarshal(t, map[string]string{
		"description": "investigate",
		"prompt":      "find the bug",
	}))

	if result.Status != models.ToolResultError {
		t.Fatalf("expected error without a ToolContext, got %s", result.Status)
	}
}

func TestTaskToolMissingPrompt(t *testing.T) {
	tool := NewTaskTool()
	result := tool.Execute(context.Background(), "call-1", mustMarshal(t, map[string]string{
		"description": "investigate",
	}))

	if result.Status != models.ToolResultError {
		t.Fatalf("expected error for missing prompt, got %s", result.Status)
	}
}

func TestTaskToolSpawnsAndReportsStats(t *testing.T) {
	tool := NewTaskTool()

	var gotRole agent.Role
	var gotDescription, gotPrompt string
	tc := &agent.ToolContext{
		RunSubAgent: func(_ context.Context, role agent.Role, description, prompt string) (agent.SubAgentResult, error) {
			gotRole, gotDescription, gotPrompt = role, description, prompt
			return agent.SubAgentResult{
				Message:    "found the answer",
				SessionKey: "child-1",
				Metadata: &models.ResponseMetadataItem{
					Usage: &models.Usage{InputTokens: 100, OutputTokens: 50, TotalTokens: 150},
				},
			}, nil
		},
	}
	ctx := agent.WithToolContext(context.Background(), tc)

	result := tool.Execute(ctx, "call-1", mustMarshal(t, map[string]string{
		"description": "investigate",
		"prompt":      "find the bug",
	}))

	if result.Status != models.ToolResultSuccess {
		t.Fatalf("expected success, got %s: %s", result.Status, result.Output)
	}
	if gotRole != agent.RoleSubTask {
		t.Fatalf("expected RoleSubTask, got %s", gotRole)
	}
	if gotDescription != "investigate" || gotPrompt != "find the bug" {
		t.Fatalf("unexpected description/prompt passed through: %q %q", gotDescription, gotPrompt)
	}
	if !strings.Contains(result.Output, "found the answer") {
		t.Fatalf("expected reply in output, got %q", result.Output)
	}
	if !strings.Contains(result.Output, "Stats:") || !strings.Contains(result.Output, "tokens 150") {
		t.Fatalf("expected a stats line with token count, got %q", result.Output)
	}
}

func TestOracleToolUsesSubOracleRole(t *testing.T) {
	tool := NewOracleTool()

	var gotRole agent.Role
	tc := &agent.ToolContext{
		RunSubAgent: func(_ context.Context, role agent.Role, _, _ string) (agent.SubAgentResult, error) {
			gotRole = role
			return agent.SubAgentResult{Message: "no issues found", SessionKey: "child-2"}, nil
		},
	}
	ctx := agent.WithToolContext(context.Background(), tc)

	result := tool.Execute(ctx, "call-1", mustMarshal(t, map[string]string{
		"description": "review",
		"prompt":      "is this safe?",
	}))

	if result.Status != models.ToolResultSuccess {
		t.Fatalf("expected success, got %s: %s", result.Status, result.Output)
	}
	if gotRole != agent.RoleSubOracle {
		t.Fatalf("expected RoleSubOracle, got %s", gotRole)
	}
}
