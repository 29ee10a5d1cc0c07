package files

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/haasonsaas/agentcore/pkg/models"
)

// Access implements reminders.FileAccess on top of the same resolver,
// size limits, and file tracker as Read/Ls, so @path reminders and the
// Read tool itself never disagree about what a file looks like.
type Access struct {
	resolver Resolver
}

// NewAccess creates a reminders.FileAccess implementation scoped to
// cfg.Workspace. The session it tracks reads against is resolved from
// ctx on each call, the same way Read does.
func NewAccess(cfg Config) *Access {
	return &Access{resolver: Resolver{Root: cfg.Workspace}}
}

func (a *Access) ReadFile(ctx context.Context, path string) (string, []models.ImagePart, error) {
	session := sessionFromContext(ctx)

	resolved, err := a.resolver.Resolve(path)
	if err != nil {
		return "", nil, err
	}

	ext := strings.ToLower(filepath.Ext(resolved))
	if mime, ok := imageMimeTypes[ext]; ok {
		info, statErr := os.Stat(resolved)
		if statErr != nil {
			return "", nil, statErr
		}
		if info.Size() > maxImageBytes {
			return "", nil, &accessError{"image exceeds maximum supported size for inline transfer"}
		}
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			return "", nil, readErr
		}
		trackFile(session, resolved)
		return "[image]", []models.ImagePart{{Path: resolved, MimeType: mime, Data: data}}, nil
	}

	result := (&ReadTool{resolver: a.resolver}).readText("", resolved, 0, 0, session)
	if result.Status != models.ToolResultSuccess {
		return "", nil, &accessError{result.Output}
	}
	return result.Output, nil, nil
}

func (a *Access) ListDir(ctx context.Context, path string) (string, error) {
	resolved, err := a.resolver.Resolve(path)
	if err != nil {
		return "", err
	}
	return ListDirectory(resolved)
}

func (a *Access) Stat(path string) (isDir bool, exists bool) {
	resolved, err := a.resolver.Resolve(path)
	if err != nil {
		return false, false
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return false, false
	}
	return info.IsDir(), true
}

type accessError struct{ message string }

func (e *accessError) Error() string { return e.message }
