package reminders

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/haasonsaas/agentcore/pkg/models"
)

var imageTagPattern = regexp.MustCompile(`\[Image #(\d+)\]`)

func clipboardManifestPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".agentcore", "clipboard", "last_clipboard_images.json"), nil
}

func loadClipboardManifest() (map[string]string, bool) {
	path, err := clipboardManifestPath()
	if err != nil {
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var tagMap map[string]string
	if err := json.Unmarshal(data, &tagMap); err != nil {
		return nil, false
	}
	return tagMap, len(tagMap) > 0
}

// ClipboardImageReminder resolves [Image #N] tokens in the most recent
// user input against the last clipboard paste manifest, attaching the
// referenced images inline.
func ClipboardImageReminder(ctx context.Context, session *models.Session) (*models.DeveloperMessage, error) {
	if fileAccess == nil {
		return nil, nil
	}

	lastInput, ok := GetLastNewUserInput(session)
	if !ok || !strings.Contains(lastInput, "[Image #") {
		return nil, nil
	}

	tagMap, ok := loadClipboardManifest()
	if !ok {
		return nil, nil
	}

	matches := imageTagPattern.FindAllString(lastInput, -1)
	if len(matches) == 0 {
		return nil, nil
	}

	var images []models.ImagePart
	var attachedTags []string
	processed := map[string]struct{}{}

	for _, tag := range matches {
		path, ok := tagMap[tag]
		if !ok {
			continue
		}
		if _, done := processed[path]; done {
			continue
		}
		_, imgs, err := fileAccess.ReadFile(ctx, path)
		if err != nil || len(imgs) == 0 {
			continue
		}
		images = append(images, imgs...)
		processed[path] = struct{}{}
		attachedTags = append(attachedTags, tag+": "+path)
	}

	if len(images) == 0 {
		return nil, nil
	}

	return &models.DeveloperMessage{
		Content:         "<system-reminder>Attached clipboard images:\n" + strings.Join(attachedTags, "\n") + "</system-reminder>",
		Images:          images,
		ClipboardImages: attachedTags,
	}, nil
}
