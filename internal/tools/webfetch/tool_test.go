package webfetch

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/haasonsaas/agentcore/internal/tools"
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

func TestToolRejectsMissingURL(t *testing.T) {
	tool := NewTool()
	result := tool.Execute(context.Background(), "call-1", mustMarshal(t, map[string]string{}))
	if result.Status != models.ToolResultError {
		t.Fatalf("expected error status, got %s", result.Status)
	}
}

func TestToolRejectsInvalidArguments(t *testing.T) {
	tool := NewTool()
	result := tool.Execute(context.Background(), "call-1", json.RawMessage(`not json`))
	if result.Status != models.ToolResultError {
		t.Fatalf("expected error status, got %s", result.Status)
	}
}

func TestToolBlocksPrivateHost(t *testing.T) {
	tool := NewTool()
	result := tool.Execute(context.Background(), "call-1", mustMarshal(t, map[string]string{"url": "http://localhost/"}))
	if result.Status != models.ToolResultError {
		t.Fatalf("expected private host to be blocked, got %s: %s", result.Status, result.Output)
	}
}

func TestToolIsConcurrent(t *testing.T) {
	tool := NewTool()
	if tool.ConcurrencyClass() != tools.Concurrent {
		t.Fatalf("expected WebFetch to be a concurrent tool, got %s", tool.ConcurrencyClass())
	}
}
