package reminders

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/haasonsaas/agentcore/internal/tools"
	"github.com/haasonsaas/agentcore/pkg/models"
)

// FileAccess is the narrow capability at_file_reader_reminder and
// clipboard_image_reminder need from the Read/Ls tools, without
// importing internal/tools/files or internal/tools/bashtool directly
// (those packages depend on this one for reminder assembly, so a direct
// import back would cycle).
type FileAccess interface {
	// ReadFile returns a file's content (and any inline images) the same
	// way the Read tool would, updating the caller's file tracker.
	ReadFile(ctx context.Context, path string) (content string, images []models.ImagePart, err error)
	// ListDir returns a directory listing the same way `ls` via Bash
	// would.
	ListDir(ctx context.Context, path string) (listing string, err error)
	// IsDir/IsFile/Exists let the reminder branch without duplicating
	// filesystem probing logic across every caller.
	Stat(path string) (isDir bool, exists bool)
}

var fileAccess FileAccess

// SetFileAccess wires the concrete Read/Ls-backed implementation in once
// the tool packages are constructed (internal/executor does this at
// startup). Reminders that don't need file access work fine with this
// left nil.
func SetFileAccess(fa FileAccess) { fileAccess = fa }

type atPatternResult struct {
	path      string
	toolName  string
	toolArgs  string
	result    string
	operation string
	images    []models.ImagePart
}

// AtFileReaderReminder expands @path mentions in the most recent user
// input into Read (for files) or Ls-via-Bash (for directories) results,
// formatted as if the model had called the tool itself.
func AtFileReaderReminder(ctx context.Context, session *models.Session) (*models.DeveloperMessage, error) {
	if fileAccess == nil {
		return nil, nil
	}

	lastInput, ok := GetLastNewUserInput(session)
	if !ok || !strings.Contains(lastInput, "@") {
		return nil, nil
	}

	var patterns []string
	for _, tok := range strings.Fields(strings.TrimSpace(lastInput)) {
		if strings.HasPrefix(tok, "@") && len(tok) > 1 {
			patterns = append(patterns, strings.ToLower(strings.Trim(tok, "@")))
		}
	}
	if len(patterns) == 0 {
		return nil, nil
	}

	results := map[string]atPatternResult{}
	var images []models.ImagePart

	for _, pattern := range patterns {
		isDir, exists := fileAccess.Stat(pattern)
		if !exists {
			continue
		}
		if isDir {
			listing, err := fileAccess.ListDir(ctx, pattern)
			if err != nil {
				continue
			}
			args, _ := json.Marshal(map[string]string{"path": pattern})
			results[pattern] = atPatternResult{
				path: pattern + "/", toolName: tools.NameLs, toolArgs: string(args),
				result: listing, operation: "List",
			}
			continue
		}
		content, imgs, err := fileAccess.ReadFile(ctx, pattern)
		if err != nil {
			continue
		}
		args, _ := json.Marshal(map[string]string{"file_path": pattern})
		results[pattern] = atPatternResult{
			path: pattern, toolName: tools.NameRead, toolArgs: string(args),
			result: content, operation: "Read", images: imgs,
		}
		images = append(images, imgs...)
	}

	if len(results) == 0 {
		return nil, nil
	}

	var parts []string
	var atFiles []string
	for _, r := range results {
		parts = append(parts, "Called the "+r.toolName+" tool with the following input: "+r.toolArgs+"\nResult of calling the "+r.toolName+" tool:\n"+r.result)
		atFiles = append(atFiles, r.path)
	}

	return &models.DeveloperMessage{
		Content: "<system-reminder>" + strings.Join(parts, "\n\n") + "</system-reminder>",
		AtFiles: atFiles,
		Images:  images,
	}, nil
}
