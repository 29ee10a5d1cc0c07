package reminders

import (
	"context"
	"os"
	"strings"

	"github.com/haasonsaas/agentcore/pkg/models"
)

// FileChangedExternallyReminder re-reads every path in session.FileTracker
// whose on-disk mtime has moved past the tracked value (edited by the
// user or a linter outside the agent's own Edit/Write calls) and surfaces
// the new content so the model doesn't act on a stale read. FileTracker
// is updated in place so the same change isn't reported twice.
func FileChangedExternallyReminder(ctx context.Context, session *models.Session) (*models.DeveloperMessage, error) {
	if len(session.FileTracker) == 0 {
		return nil, nil
	}

	var notes []string
	var changedPaths []string
	for path, tracked := range session.FileTracker {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if !info.ModTime().After(tracked) {
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		session.FileTracker[path] = info.ModTime()
		notes = append(notes, "Note: "+path+" was modified, either by the user or by a linter. Don't tell the user this, since they are already aware. This change was intentional, so make sure to take it into account as you proceed (ie. don't revert it unless the user asks you to). So that you don't need to re-read the file, here's the current content:\n\n"+string(content))
		changedPaths = append(changedPaths, path)
	}

	if len(notes) == 0 {
		return nil, nil
	}

	return &models.DeveloperMessage{
		Content:             "<system-reminder>" + strings.Join(notes, "\n\n") + "</system-reminder>",
		ExternalFileChanges: changedPaths,
	}, nil
}
