package files

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/haasonsaas/agentcore/internal/tools"
	"github.com/haasonsaas/agentcore/pkg/models"
)

const (
	maxFileBytes     = 256 * 1024
	maxTotalChars    = 60000
	perLineCharLimit = 2000
	maxImageBytes    = 4 * 1024 * 1024
)

var imageMimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ReadTool reads a file from the workspace, numbering lines like `cat -n`
// and tracking the read against the calling turn's session (resolved
// from ctx) so Edit/MultiEdit/Write can later verify the file was read
// first. One ReadTool is shared across every session the Executor's
// Engine runs, so it must never hold per-call state on the struct
// itself.
type ReadTool struct {
	resolver Resolver
}

// NewReadTool creates a Read tool scoped to cfg.Workspace.
func NewReadTool(cfg Config) *ReadTool {
	return &ReadTool{resolver: Resolver{Root: cfg.Workspace}}
}

func (t *ReadTool) Name() string        { return tools.NameRead }
func (t *ReadTool) ConcurrencyClass() tools.ConcurrencyClass { return tools.Sequential }

func (t *ReadTool) Description() string {
	return "Reads a file from the local filesystem. Supports an optional line offset and " +
		"limit for large files, and returns image files (png/jpg/jpeg/gif/webp) inline."
}

func (t *ReadTool) Parameters() json.RawMessage {
	return schemaBytes(map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"file_path": map[string]interface{}{
				"type":        "string",
				"description": "The path to the file to read.",
			},
			"offset": map[string]interface{}{
				"type":        "integer",
				"description": "The line number to start reading from (1-indexed).",
				"minimum":     1,
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "The maximum number of lines to read.",
				"minimum":     0,
			},
		},
		"required": []string{"file_path"},
	})
}

// Execute reads a file, applying the same size/char/per-line limits as
// the reminder pipeline's own file reads so either path produces
// consistent output.
func (t *ReadTool) Execute(ctx context.Context, callID string, argumentsJSON json.RawMessage) models.ToolResultItem {
	var input struct {
		FilePath string `json:"file_path"`
		Offset   int    `json:"offset"`
		Limit    int    `json:"limit"`
	}
	if err := json.Unmarshal(argumentsJSON, &input); err != nil {
		return toolErrorf(callID, t.Name(), fmt.Sprintf("Invalid arguments: %v", err))
	}

	session := sessionFromContext(ctx)

	resolved, err := t.resolver.Resolve(input.FilePath)
	if err != nil {
		return toolErrorf(callID, t.Name(), err.Error())
	}

	info, statErr := os.Stat(resolved)
	if statErr != nil {
		return toolErrorf(callID, t.Name(), "<tool_use_error>File does not exist.</tool_use_error>")
	}
	if info.IsDir() {
		return toolErrorf(callID, t.Name(), "<tool_use_error>Illegal operation on a directory. read</tool_use_error>")
	}

	ext := strings.ToLower(filepath.Ext(resolved))
	if ext == ".pdf" {
		return toolErrorf(callID, t.Name(), "<tool_use_error>PDF files are not supported by this tool.</tool_use_error>")
	}

	if mime, ok := imageMimeTypes[ext]; ok {
		return t.readImage(callID, resolved, mime, info.Size(), session)
	}

	if input.Offset == 0 && input.Limit == 0 && info.Size() > maxFileBytes {
		sizeKB := float64(info.Size()) / 1024.0
		return toolErrorf(callID, t.Name(), fmt.Sprintf(
			"File content (%.1fKB) exceeds maximum allowed size (256KB). Please use offset and limit parameters to read specific portions of the file.",
			sizeKB))
	}

	return t.readText(callID, resolved, input.Offset, input.Limit, session)
}

func (t *ReadTool) readImage(callID, resolved, mime string, size int64, session *models.Session) models.ToolResultItem {
	if size > maxImageBytes {
		sizeMB := float64(size) / (1024 * 1024)
		return toolErrorf(callID, t.Name(), fmt.Sprintf(
			"<tool_use_error>Image size (%.2fMB) exceeds maximum supported size (4.00MB) for inline transfer.</tool_use_error>", sizeMB))
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return toolErrorf(callID, t.Name(), fmt.Sprintf("<tool_use_error>Failed to read image file: %v</tool_use_error>", err))
	}

	trackFile(session, resolved)
	sizeKB := float64(size) / 1024.0
	out := fmt.Sprintf("[image] %s (%.1fKB)", filepath.Base(resolved), sizeKB)
	result := toolSuccess(callID, t.Name(), out)
	result.Images = []models.ImagePart{{Path: resolved, MimeType: mime, Data: data}}
	return result
}

func (t *ReadTool) readText(callID, resolved string, offset, limit int, session *models.Session) models.ToolResultItem {
	if offset < 1 {
		offset = 1
	}

	file, err := os.Open(resolved)
	if err != nil {
		return toolErrorf(callID, t.Name(), "<tool_use_error>File does not exist.</tool_use_error>")
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	var lines []string
	totalLines := 0
	selectedChars := 0
	for scanner.Scan() {
		totalLines++
		if totalLines < offset {
			continue
		}
		if limit > 0 && totalLines-offset+1 > limit {
			continue
		}
		line := scanner.Text()
		if len(line) > perLineCharLimit {
			truncated := len(line) - perLineCharLimit
			line = line[:perLineCharLimit] + fmt.Sprintf(" ... (more %d characters in this line are truncated)", truncated)
		}
		selectedChars += len(line) + 1
		lines = append(lines, formatNumberedLine(totalLines, line))
	}
	if err := scanner.Err(); err != nil {
		return toolErrorf(callID, t.Name(), fmt.Sprintf("<tool_use_error>Failed to read file: %v</tool_use_error>", err))
	}

	if offset > totalLines {
		trackFile(session, resolved)
		return toolSuccess(callID, t.Name(), fmt.Sprintf(
			"<system-reminder>Warning: the file exists but is shorter than the provided offset (%d). The file has %d lines.</system-reminder>",
			offset, totalLines))
	}

	if selectedChars > maxTotalChars {
		return toolErrorf(callID, t.Name(), fmt.Sprintf(
			"File content (%d chars) exceeds maximum allowed tokens (%d). Please use offset and limit parameters to read specific portions of the file.",
			selectedChars, maxTotalChars))
	}

	trackFile(session, resolved)
	return toolSuccess(callID, t.Name(), strings.Join(lines, "\n"))
}

func formatNumberedLine(n int, content string) string {
	return fmt.Sprintf("%6d→%s", n, content)
}
