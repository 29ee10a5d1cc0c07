package files

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/haasonsaas/agentcore/internal/tools"
	"github.com/haasonsaas/agentcore/pkg/models"
)

// MultiEditTool applies a sequence of Edit-style replacements to one file
// as a single atomic write: either every edit in the sequence applies
// cleanly, against the result of the edits before it, or none of them
// are written to disk.
type MultiEditTool struct {
	resolver Resolver
}

// NewMultiEditTool creates a MultiEdit tool scoped to cfg.Workspace.
func NewMultiEditTool(cfg Config) *MultiEditTool {
	return &MultiEditTool{resolver: Resolver{Root: cfg.Workspace}}
}

func (t *MultiEditTool) Name() string                            { return tools.NameMultiEdit }
func (t *MultiEditTool) ConcurrencyClass() tools.ConcurrencyClass { return tools.Sequential }

func (t *MultiEditTool) Description() string {
	return "Applies multiple exact string replacements to a single file in sequence, as one " +
		"atomic write. The file must have been read in this session first, unless the first " +
		"edit creates it (old_string empty)."
}

type multiEditEntry struct {
	OldString  string `json:"old_string"`
	NewString  string `json:"new_string"`
	ReplaceAll bool   `json:"replace_all"`
}

func (t *MultiEditTool) Parameters() json.RawMessage {
	return schemaBytes(map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"file_path": map[string]interface{}{
				"type":        "string",
				"description": "The path to the file to modify.",
			},
			"edits": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"old_string":  map[string]interface{}{"type": "string"},
						"new_string":  map[string]interface{}{"type": "string"},
						"replace_all": map[string]interface{}{"type": "boolean"},
					},
					"required": []string{"old_string", "new_string"},
				},
				"description": "The edits to apply, in order.",
			},
		},
		"required": []string{"file_path", "edits"},
	})
}

func (t *MultiEditTool) Execute(ctx context.Context, callID string, argumentsJSON json.RawMessage) models.ToolResultItem {
	var input struct {
		FilePath string            `json:"file_path"`
		Edits    []multiEditEntry  `json:"edits"`
	}
	if err := json.Unmarshal(argumentsJSON, &input); err != nil {
		return toolErrorf(callID, t.Name(), fmt.Sprintf("Invalid arguments: %v", err))
	}
	if len(input.Edits) == 0 {
		return toolErrorf(callID, t.Name(), "<tool_use_error>At least one edit is required.</tool_use_error>")
	}

	session := sessionFromContext(ctx)

	resolved, err := t.resolver.Resolve(input.FilePath)
	if err != nil {
		return toolErrorf(callID, t.Name(), err.Error())
	}

	info, statErr := os.Stat(resolved)
	fileExists := statErr == nil
	if fileExists && info.IsDir() {
		return toolErrorf(callID, t.Name(), "<tool_use_error>Illegal operation on a directory. multi_edit</tool_use_error>")
	}

	creating := !fileExists && input.Edits[0].OldString == ""
	if fileExists {
		if msg, ok := checkReadBeforeWrite(session, resolved, true); !ok {
			return toolErrorf(callID, t.Name(), msg)
		}
	} else if !creating {
		return toolErrorf(callID, t.Name(), "<tool_use_error>File does not exist.</tool_use_error>")
	}

	var content string
	if fileExists {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			return toolErrorf(callID, t.Name(), fmt.Sprintf("<tool_use_error>Failed to read file: %v</tool_use_error>", readErr))
		}
		content = string(data)
	}

	var summary []string
	for i, edit := range input.Edits {
		if i == 0 && creating {
			content = edit.NewString
			summary = append(summary, fmt.Sprintf("%d. Created file with initial content", i+1))
			continue
		}
		if edit.OldString == edit.NewString {
			return toolErrorf(callID, t.Name(), fmt.Sprintf(
				"<tool_use_error>Edit %d: old_string and new_string are exactly the same.</tool_use_error>", i+1))
		}
		updated, failMsg, ok := applyEdit(content, edit.OldString, edit.NewString, edit.ReplaceAll)
		if !ok {
			return toolErrorf(callID, t.Name(), fmt.Sprintf("Edit %d failed: %s", i+1, failMsg))
		}
		content = updated
		summary = append(summary, fmt.Sprintf("%d. Replaced %q with %q", i+1, edit.OldString, edit.NewString))
	}

	if creating {
		if err := ensureParentDir(resolved); err != nil {
			return toolErrorf(callID, t.Name(), err.Error())
		}
	}
	mode := os.FileMode(0o644)
	if fileExists {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(resolved, []byte(content), mode); err != nil {
		return toolErrorf(callID, t.Name(), fmt.Sprintf("<tool_use_error>Failed to write file: %v</tool_use_error>", err))
	}
	trackFile(session, resolved)

	return toolSuccess(callID, t.Name(), fmt.Sprintf("Applied %d edits to %s:\n%s", len(input.Edits), resolved, strings.Join(summary, "\n")))
}
