package reminders

import (
	"context"
	"strings"
	"testing"

	"github.com/haasonsaas/agentcore/pkg/models"
)

type stubFileAccess struct {
	files map[string]string
	dirs  map[string]string
	images map[string][]models.ImagePart
}

func (s *stubFileAccess) ReadFile(ctx context.Context, path string) (string, []models.ImagePart, error) {
	if content, ok := s.files[path]; ok {
		return content, s.images[path], nil
	}
	return "", nil, errNotFound
}

func (s *stubFileAccess) ListDir(ctx context.Context, path string) (string, error) {
	if listing, ok := s.dirs[path]; ok {
		return listing, nil
	}
	return "", errNotFound
}

func (s *stubFileAccess) Stat(path string) (isDir bool, exists bool) {
	if _, ok := s.files[path]; ok {
		return false, true
	}
	if _, ok := s.dirs[path]; ok {
		return true, true
	}
	return false, false
}

type stubErr string

func (e stubErr) Error() string { return string(e) }

const errNotFound = stubErr("not found")

func TestAtFileReaderReminder_ExpandsFileMention(t *testing.T) {
	defer SetFileAccess(nil)
	SetFileAccess(&stubFileAccess{files: map[string]string{"foo.txt": "hello world"}})

	s := newTestSession()
	s.Append(models.ConversationItem{Type: models.ItemUserMessage, UserMessage: &models.UserMessage{Content: "look at @foo.txt please"}})

	msg, err := AtFileReaderReminder(context.Background(), s)
	if err != nil {
		t.Fatalf("AtFileReaderReminder() error = %v", err)
	}
	if msg == nil {
		t.Fatal("AtFileReaderReminder() = nil, want a developer message")
	}
	if !strings.Contains(msg.Content, "hello world") {
		t.Fatalf("content = %q, want file content included", msg.Content)
	}
	if len(msg.AtFiles) != 1 || msg.AtFiles[0] != "foo.txt" {
		t.Fatalf("AtFiles = %v, want [foo.txt]", msg.AtFiles)
	}
}

func TestAtFileReaderReminder_NoAtMentionReturnsNil(t *testing.T) {
	defer SetFileAccess(nil)
	SetFileAccess(&stubFileAccess{files: map[string]string{"foo.txt": "hello"}})

	s := newTestSession()
	s.Append(models.ConversationItem{Type: models.ItemUserMessage, UserMessage: &models.UserMessage{Content: "no mentions here"}})

	msg, err := AtFileReaderReminder(context.Background(), s)
	if err != nil || msg != nil {
		t.Fatalf("AtFileReaderReminder() = %v, %v, want nil", msg, err)
	}
}

func TestAtFileReaderReminder_NilFileAccessReturnsNil(t *testing.T) {
	SetFileAccess(nil)
	s := newTestSession()
	s.Append(models.ConversationItem{Type: models.ItemUserMessage, UserMessage: &models.UserMessage{Content: "@foo.txt"}})

	msg, err := AtFileReaderReminder(context.Background(), s)
	if err != nil || msg != nil {
		t.Fatalf("AtFileReaderReminder() with nil FileAccess = %v, %v, want nil", msg, err)
	}
}

func TestClipboardImageReminder_NoImageTagsReturnsNil(t *testing.T) {
	defer SetFileAccess(nil)
	SetFileAccess(&stubFileAccess{})

	s := newTestSession()
	s.Append(models.ConversationItem{Type: models.ItemUserMessage, UserMessage: &models.UserMessage{Content: "plain text"}})

	msg, err := ClipboardImageReminder(context.Background(), s)
	if err != nil || msg != nil {
		t.Fatalf("ClipboardImageReminder() = %v, %v, want nil", msg, err)
	}
}
