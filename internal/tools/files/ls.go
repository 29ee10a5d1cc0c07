package files

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/haasonsaas/agentcore/internal/tools"
	"github.com/haasonsaas/agentcore/pkg/models"
)

// LsTool lists the contents of a directory in the workspace.
type LsTool struct {
	resolver Resolver
}

// NewLsTool creates an Ls tool scoped to cfg.Workspace.
func NewLsTool(cfg Config) *LsTool {
	return &LsTool{resolver: Resolver{Root: cfg.Workspace}}
}

func (t *LsTool) Name() string                            { return tools.NameLs }
func (t *LsTool) ConcurrencyClass() tools.ConcurrencyClass { return tools.Concurrent }

func (t *LsTool) Description() string {
	return "Lists files and directories in a given path."
}

func (t *LsTool) Parameters() json.RawMessage {
	return schemaBytes(map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "The directory to list.",
			},
		},
		"required": []string{"path"},
	})
}

func (t *LsTool) Execute(ctx context.Context, callID string, argumentsJSON json.RawMessage) models.ToolResultItem {
	var input struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(argumentsJSON, &input); err != nil {
		return toolErrorf(callID, t.Name(), fmt.Sprintf("Invalid arguments: %v", err))
	}

	resolved, err := t.resolver.Resolve(input.Path)
	if err != nil {
		return toolErrorf(callID, t.Name(), err.Error())
	}

	listing, err := ListDirectory(resolved)
	if err != nil {
		return toolErrorf(callID, t.Name(), err.Error())
	}
	return toolSuccess(callID, t.Name(), listing)
}

// ListDirectory renders a directory's entries one per line, directories
// suffixed with "/", sorted with directories first. resolved must already
// be an absolute, workspace-validated path.
func ListDirectory(resolved string) (string, error) {
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("<tool_use_error>Path does not exist: %s</tool_use_error>", resolved)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("<tool_use_error>Not a directory: %s</tool_use_error>", resolved)
	}

	entries, err := os.ReadDir(resolved)
	if err != nil {
		return "", fmt.Errorf("<tool_use_error>Failed to list directory: %v</tool_use_error>", err)
	}

	var dirs, files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			dirs = append(dirs, name+string(filepath.Separator))
		} else {
			files = append(files, name)
		}
	}
	sort.Strings(dirs)
	sort.Strings(files)

	if len(dirs) == 0 && len(files) == 0 {
		return fmt.Sprintf("%s/ (empty)", strings.TrimRight(resolved, string(filepath.Separator))), nil
	}

	var lines []string
	lines = append(lines, dirs...)
	lines = append(lines, files...)
	return strings.Join(lines, "\n"), nil
}
