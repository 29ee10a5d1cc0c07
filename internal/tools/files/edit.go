package files

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/haasonsaas/agentcore/internal/tools"
	"github.com/haasonsaas/agentcore/pkg/models"
)

// EditTool replaces one occurrence (or all occurrences) of a string in a
// file already known to the calling turn's session file tracker. Shared
// across every session the Executor's Engine runs; the session for a
// given call comes from ctx, never from the struct.
type EditTool struct {
	resolver Resolver
}

// NewEditTool creates an Edit tool scoped to cfg.Workspace.
func NewEditTool(cfg Config) *EditTool {
	return &EditTool{resolver: Resolver{Root: cfg.Workspace}}
}

func (t *EditTool) Name() string                            { return tools.NameEdit }
func (t *EditTool) ConcurrencyClass() tools.ConcurrencyClass { return tools.Sequential }

func (t *EditTool) Description() string {
	return "Performs exact string replacements in a file. The file must have been read in " +
		"this session first, and must not have changed on disk since."
}

func (t *EditTool) Parameters() json.RawMessage {
	return schemaBytes(map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"file_path": map[string]interface{}{
				"type":        "string",
				"description": "The path to the file to modify.",
			},
			"old_string": map[string]interface{}{
				"type":        "string",
				"description": "The text to replace.",
			},
			"new_string": map[string]interface{}{
				"type":        "string",
				"description": "The text to replace it with.",
			},
			"replace_all": map[string]interface{}{
				"type":        "boolean",
				"description": "Replace all occurrences of old_string (default false).",
			},
		},
		"required": []string{"file_path", "old_string", "new_string"},
	})
}

func (t *EditTool) Execute(ctx context.Context, callID string, argumentsJSON json.RawMessage) models.ToolResultItem {
	var input struct {
		FilePath   string `json:"file_path"`
		OldString  string `json:"old_string"`
		NewString  string `json:"new_string"`
		ReplaceAll bool   `json:"replace_all"`
	}
	if err := json.Unmarshal(argumentsJSON, &input); err != nil {
		return toolErrorf(callID, t.Name(), fmt.Sprintf("Invalid arguments: %v", err))
	}

	if input.OldString == input.NewString {
		return toolErrorf(callID, t.Name(), "No changes to make: old_string and new_string are exactly the same.")
	}

	session := sessionFromContext(ctx)

	resolved, err := t.resolver.Resolve(input.FilePath)
	if err != nil {
		return toolErrorf(callID, t.Name(), err.Error())
	}

	info, statErr := os.Stat(resolved)
	if statErr != nil {
		if input.OldString == "" {
			return t.create(callID, resolved, input.NewString, session)
		}
		return toolErrorf(callID, t.Name(), "<tool_use_error>File does not exist.</tool_use_error>")
	}
	if info.IsDir() {
		return toolErrorf(callID, t.Name(), "<tool_use_error>Illegal operation on a directory. edit</tool_use_error>")
	}

	if msg, ok := checkReadBeforeWrite(session, resolved, true); !ok {
		return toolErrorf(callID, t.Name(), msg)
	}

	content, err := os.ReadFile(resolved)
	if err != nil {
		return toolErrorf(callID, t.Name(), fmt.Sprintf("<tool_use_error>Failed to read file: %v</tool_use_error>", err))
	}

	updated, resultMsg, ok := applyEdit(string(content), input.OldString, input.NewString, input.ReplaceAll)
	if !ok {
		return toolErrorf(callID, t.Name(), resultMsg)
	}

	if err := os.WriteFile(resolved, []byte(updated), info.Mode().Perm()); err != nil {
		return toolErrorf(callID, t.Name(), fmt.Sprintf("<tool_use_error>Failed to write file: %v</tool_use_error>", err))
	}
	trackFile(session, resolved)

	return toolSuccess(callID, t.Name(), resultMsg)
}

func (t *EditTool) create(callID, resolved, content string, session *models.Session) models.ToolResultItem {
	if err := ensureParentDir(resolved); err != nil {
		return toolErrorf(callID, t.Name(), err.Error())
	}
	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return toolErrorf(callID, t.Name(), fmt.Sprintf("<tool_use_error>Failed to write file: %v</tool_use_error>", err))
	}
	trackFile(session, resolved)
	return toolSuccess(callID, t.Name(), fmt.Sprintf("File created successfully at: %s", resolved))
}

// applyEdit performs the single replacement (or all occurrences) and
// renders the same success message the original Edit tool produces:
// a snippet of the file around the change, numbered like `cat -n`.
func applyEdit(content, oldString, newString string, replaceAll bool) (updated string, message string, ok bool) {
	if oldString == "" {
		return "", "<tool_use_error>old_string is required for editing an existing file.</tool_use_error>", false
	}
	count := strings.Count(content, oldString)
	if count == 0 {
		return "", fmt.Sprintf("<tool_use_error>String not found in file: %q</tool_use_error>", oldString), false
	}
	if !replaceAll && count > 1 {
		return "", fmt.Sprintf("Found %d matches of the string to replace, but replace_all is false. "+
			"To replace all occurrences, set replace_all to true. To replace only one occurrence, "+
			"please provide more context to uniquely identify the instance.\nString: %s", count, oldString), false
	}

	var n int
	if replaceAll {
		n = count
		updated = strings.ReplaceAll(content, oldString, newString)
	} else {
		n = 1
		updated = strings.Replace(content, oldString, newString, 1)
	}

	if replaceAll {
		return updated, fmt.Sprintf("Replaced %d occurrence(s) of the string in the file.", n), true
	}
	return updated, renderEditSnippet(content, updated, oldString), true
}

// renderEditSnippet shows the original's "Here's the result of running
// `cat -n`" context window: a few lines before and after the change.
func renderEditSnippet(original, updated, oldString string) string {
	idx := strings.Index(original, oldString)
	lineOfChange := strings.Count(original[:idx], "\n") + 1

	newLines := strings.Split(updated, "\n")
	start := lineOfChange - 5
	if start < 1 {
		start = 1
	}
	end := lineOfChange + 5
	if end > len(newLines) {
		end = len(newLines)
	}

	var b strings.Builder
	b.WriteString("The file has been updated. Here's the result of running `cat -n` on a snippet of the file:\n")
	for i := start; i <= end; i++ {
		b.WriteString(formatNumberedLine(i, newLines[i-1]))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// checkReadBeforeWrite enforces the file_tracker gate shared by Edit,
// MultiEdit, and Write: the path must have been read this session, and
// must not have changed on disk since. requireRead controls whether a
// never-read, already-existing file is rejected — Write allows creating
// a brand-new file without a prior read, since there is nothing to have
// read; Edit and MultiEdit always require it since they operate on
// existing content.
func checkReadBeforeWrite(session *models.Session, resolved string, requireRead bool) (string, bool) {
	if session == nil {
		return "", true
	}
	tracked, known := session.FileTracker[resolved]
	if !known {
		if !requireRead {
			return "", true
		}
		return "File has not been read yet. Read it first before writing to it.", false
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "File has not been read yet. Read it first before writing to it.", false
	}
	if info.ModTime().After(tracked) {
		return "File has been modified externally. Either by user or a linter. Read it first before writing to it.", false
	}
	return "", true
}

func trackFile(session *models.Session, resolved string) {
	if session == nil {
		return
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return
	}
	if session.FileTracker == nil {
		session.FileTracker = make(map[string]time.Time)
	}
	session.FileTracker[resolved] = info.ModTime()
}

func ensureParentDir(resolved string) error {
	dir := filepath.Dir(resolved)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("<tool_use_error>Failed to create parent directory: %w</tool_use_error>", err)
	}
	return nil
}
