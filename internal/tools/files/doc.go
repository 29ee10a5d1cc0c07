// Package files implements the Read, Edit, MultiEdit, Write, and Ls
// tools: the filesystem surface of the Tool Runner (spec §4.2). Every
// mutating tool (Edit, MultiEdit, Write) enforces the read-before-write
// gate against a session's file tracker, and every tool that touches a
// path routes it through Resolver to keep the operation inside the
// session's workspace.
package files

import (
	"context"
	"encoding/json"

	"github.com/haasonsaas/agentcore/internal/agent"
	"github.com/haasonsaas/agentcore/pkg/models"
)

// Config scopes a tool set to one workspace. Tool instances are built
// once and shared across every session the Executor's single Engine
// runs (see agent.Engine's doc comment); the session a given call
// should read/write its file tracker against comes from the
// agent.ToolContext installed on ctx for that turn, the same channel
// RunSubAgent uses, not from anything captured at construction.
type Config struct {
	Workspace string
}

// sessionFromContext resolves the active session for a tool call. A
// missing ToolContext (e.g. a direct unit test) degrades to a nil
// session, which trackFile/checkReadBeforeWrite already treat as
// "tracking disabled."
func sessionFromContext(ctx context.Context) *models.Session {
	tc, ok := agent.ToolContextFromContext(ctx)
	if !ok || tc == nil {
		return nil
	}
	return tc.Session
}

func toolErrorf(callID, name, message string) models.ToolResultItem {
	return models.ToolResultItem{CallID: callID, ToolName: name, Output: message, Status: models.ToolResultError}
}

func toolSuccess(callID, name, output string) models.ToolResultItem {
	return models.ToolResultItem{CallID: callID, ToolName: name, Output: output, Status: models.ToolResultSuccess}
}

func schemaBytes(schema map[string]interface{}) json.RawMessage {
	payload, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return payload
}
