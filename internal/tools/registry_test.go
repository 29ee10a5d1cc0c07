package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/haasonsaas/agentcore/pkg/models"
)

type stubTool struct {
	name  string
	class ConcurrencyClass
	fn    func(ctx context.Context, callID string, args json.RawMessage) models.ToolResultItem
}

func (s *stubTool) Name() string                     { return s.name }
func (s *stubTool) Description() string              { return "stub tool " + s.name }
func (s *stubTool) Parameters() json.RawMessage       { return json.RawMessage(`{"type":"object"}`) }
func (s *stubTool) ConcurrencyClass() ConcurrencyClass {
	if s.class == "" {
		return Sequential
	}
	return s.class
}
func (s *stubTool) Execute(ctx context.Context, callID string, args json.RawMessage) models.ToolResultItem {
	if s.fn != nil {
		return s.fn(ctx, callID, args)
	}
	return models.ToolResultItem{CallID: callID, ToolName: s.name, Status: models.ToolResultSuccess}
}

func TestRegistry_RegisterGetUnregister(t *testing.T) {
	reg := NewRegistry()
	tool := &stubTool{name: "Read"}
	reg.Register(tool)

	got, ok := reg.Get("Read")
	if !ok || got.Name() != "Read" {
		t.Fatalf("Get(Read) = (%v, %v), want the registered tool", got, ok)
	}
	if reg.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", reg.Len())
	}

	reg.Unregister("Read")
	if _, ok := reg.Get("Read"); ok {
		t.Fatal("Get(Read) succeeded after Unregister")
	}
}

func TestRegistry_Schemas(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubTool{name: "Read"})
	reg.Register(&stubTool{name: "Bash"})

	schemas := reg.Schemas()
	if len(schemas) != 2 {
		t.Fatalf("Schemas() len = %d, want 2", len(schemas))
	}
}
