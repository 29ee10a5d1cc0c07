package files

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/haasonsaas/agentcore/internal/tools"
	"github.com/haasonsaas/agentcore/pkg/models"
)

// WriteTool writes content to a file, overwriting it entirely. A file
// that already exists must have been read this session first; a file
// that doesn't exist yet is created with no such requirement.
type WriteTool struct {
	resolver Resolver
}

// NewWriteTool creates a Write tool scoped to cfg.Workspace.
func NewWriteTool(cfg Config) *WriteTool {
	return &WriteTool{resolver: Resolver{Root: cfg.Workspace}}
}

func (t *WriteTool) Name() string                            { return tools.NameWrite }
func (t *WriteTool) ConcurrencyClass() tools.ConcurrencyClass { return tools.Sequential }

func (t *WriteTool) Description() string {
	return "Writes a file to the local filesystem, overwriting it if it already exists. " +
		"An existing file must have been read in this session first."
}

func (t *WriteTool) Parameters() json.RawMessage {
	return schemaBytes(map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"file_path": map[string]interface{}{
				"type":        "string",
				"description": "The path to the file to write.",
			},
			"content": map[string]interface{}{
				"type":        "string",
				"description": "The content to write to the file.",
			},
		},
		"required": []string{"file_path", "content"},
	})
}

func (t *WriteTool) Execute(ctx context.Context, callID string, argumentsJSON json.RawMessage) models.ToolResultItem {
	var input struct {
		FilePath string `json:"file_path"`
		Content  string `json:"content"`
	}
	if err := json.Unmarshal(argumentsJSON, &input); err != nil {
		return toolErrorf(callID, t.Name(), fmt.Sprintf("Invalid arguments: %v", err))
	}

	session := sessionFromContext(ctx)

	resolved, err := t.resolver.Resolve(input.FilePath)
	if err != nil {
		return toolErrorf(callID, t.Name(), err.Error())
	}

	existed := false
	if info, statErr := os.Stat(resolved); statErr == nil {
		if info.IsDir() {
			return toolErrorf(callID, t.Name(), "<tool_use_error>Illegal operation on a directory. write</tool_use_error>")
		}
		existed = true
	}

	if existed {
		if msg, ok := checkReadBeforeWrite(session, resolved, true); !ok {
			return toolErrorf(callID, t.Name(), msg)
		}
	} else if err := ensureParentDir(resolved); err != nil {
		return toolErrorf(callID, t.Name(), err.Error())
	}

	if err := os.WriteFile(resolved, []byte(input.Content), 0o644); err != nil {
		return toolErrorf(callID, t.Name(), fmt.Sprintf("<tool_use_error>Failed to write file: %v</tool_use_error>", err))
	}
	trackFile(session, resolved)

	verb := "created"
	if existed {
		verb = "updated"
	}
	return toolSuccess(callID, t.Name(), fmt.Sprintf("File %s successfully at: %s", verb, resolved))
}
