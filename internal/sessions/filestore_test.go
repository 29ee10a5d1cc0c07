package sessions

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/haasonsaas/agentcore/pkg/models"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	return store
}

func TestFileStore_CreateGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestFileStore(t)

	session := models.NewSession("", "/work/dir")
	if err := store.Create(ctx, session); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if session.ID == "" {
		t.Fatal("Create() did not assign an ID")
	}

	got, err := store.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.WorkDir != "/work/dir" {
		t.Errorf("WorkDir = %q, want /work/dir", got.WorkDir)
	}
	if len(got.ConversationHistory) != 0 {
		t.Errorf("ConversationHistory = %v, want empty", got.ConversationHistory)
	}
}

func TestFileStore_AppendHistoryAndReplay(t *testing.T) {
	ctx := context.Background()
	store := newTestFileStore(t)

	session := models.NewSession("", "/work/dir")
	if err := store.Create(ctx, session); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	items := []models.ConversationItem{
		{Type: models.ItemUserMessage, UserMessage: &models.UserMessage{Content: "hello"}},
		{Type: models.ItemAssistantMessage, AssistantMessage: &models.AssistantMessage{Content: "hi"}},
		{Type: models.ItemToolCall, ToolCall: &models.ToolCallItem{CallID: "c1", Name: "Bash"}},
	}
	if err := store.AppendHistory(ctx, session.ID, items...); err != nil {
		t.Fatalf("AppendHistory() error = %v", err)
	}

	got, err := store.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got.ConversationHistory) != 3 {
		t.Fatalf("ConversationHistory len = %d, want 3", len(got.ConversationHistory))
	}
	if got.ConversationHistory[0].UserMessage.Content != "hello" {
		t.Errorf("first item content = %q, want hello", got.ConversationHistory[0].UserMessage.Content)
	}
	if got.MessagesCount() != 2 {
		t.Errorf("MessagesCount() = %d, want 2 (user+assistant only)", got.MessagesCount())
	}
}

func TestFileStore_AppendHistory_SkipsMalformedTailLine(t *testing.T) {
	ctx := context.Background()
	store := newTestFileStore(t)

	session := models.NewSession("", "/work/dir")
	if err := store.Create(ctx, session); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := store.AppendHistory(ctx, session.ID, models.ConversationItem{
		Type:        models.ItemUserMessage,
		UserMessage: &models.UserMessage{Content: "first"},
	}); err != nil {
		t.Fatalf("AppendHistory() error = %v", err)
	}

	stem, err := store.findStem(session.ID)
	if err != nil {
		t.Fatalf("findStem() error = %v", err)
	}
	msgPath := store.messagesPath(stem)
	f, err := os.OpenFile(msgPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open messages file: %v", err)
	}
	if _, err := f.WriteString(`{"type": "user_message", "data": {"content": "truncat`); err != nil {
		t.Fatalf("write partial line: %v", err)
	}
	f.Close()

	got, err := store.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got.ConversationHistory) != 1 {
		t.Fatalf("ConversationHistory len = %d, want 1 (partial tail skipped)", len(got.ConversationHistory))
	}
}

func TestFileStore_MetadataCountIsAdvisoryOnly(t *testing.T) {
	ctx := context.Background()
	store := newTestFileStore(t)

	session := models.NewSession("", "/work/dir")
	if err := store.Create(ctx, session); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := store.AppendHistory(ctx, session.ID, models.ConversationItem{
		Type:        models.ItemUserMessage,
		UserMessage: &models.UserMessage{Content: "hi"},
	}); err != nil {
		t.Fatalf("AppendHistory() error = %v", err)
	}

	stem, err := store.findStem(session.ID)
	if err != nil {
		t.Fatalf("findStem() error = %v", err)
	}
	metaPath := store.metaPath(stem)
	data, err := os.ReadFile(metaPath)
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	// Corrupt the cached count; replay must still win.
	corrupted := strings.Replace(string(data), `"messages_count": 1`, `"messages_count": 99`, 1)
	if err := os.WriteFile(metaPath, []byte(corrupted), 0o644); err != nil {
		t.Fatalf("write corrupted metadata: %v", err)
	}

	got, err := store.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.MessagesCount() != 1 {
		t.Errorf("MessagesCount() = %d, want 1 (derived from replay, not cache)", got.MessagesCount())
	}
}

func TestFileStore_ListSessions_ExcludesSubAgents(t *testing.T) {
	ctx := context.Background()
	store := newTestFileStore(t)

	root := models.NewSession("", "/work/dir")
	if err := store.Create(ctx, root); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	store.AppendHistory(ctx, root.ID, models.ConversationItem{
		Type:        models.ItemUserMessage,
		UserMessage: &models.UserMessage{Content: "root task"},
	})

	sub := models.NewSession("", "/work/dir")
	sub.SubAgentState = &models.SubAgentState{Kind: "oracle", ParentID: root.ID}
	if err := store.Create(ctx, sub); err != nil {
		t.Fatalf("Create() sub error = %v", err)
	}

	summaries, err := store.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("ListSessions() len = %d, want 1 (sub-agent excluded)", len(summaries))
	}
	if summaries[0].ID != root.ID {
		t.Errorf("summary ID = %q, want %q", summaries[0].ID, root.ID)
	}
	if summaries[0].Preview != "root task" {
		t.Errorf("summary preview = %q, want %q", summaries[0].Preview, "root task")
	}
}

func TestFileStore_MostRecentSessionID(t *testing.T) {
	ctx := context.Background()
	store := newTestFileStore(t)

	if id, err := store.MostRecentSessionID(ctx); err != nil || id != "" {
		t.Fatalf("MostRecentSessionID() = (%q, %v), want (\"\", nil) on empty store", id, err)
	}

	first := models.NewSession("", "/work/dir")
	if err := store.Create(ctx, first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	id, err := store.MostRecentSessionID(ctx)
	if err != nil {
		t.Fatalf("MostRecentSessionID() error = %v", err)
	}
	if id != first.ID {
		t.Errorf("MostRecentSessionID() = %q, want %q", id, first.ID)
	}
}

func TestProjectKey(t *testing.T) {
	got := ProjectKey("/home/user/my-project")
	want := "-home-user-my-project"
	if got != want {
		t.Errorf("ProjectKey() = %q, want %q", got, want)
	}
}

func TestBaseDir(t *testing.T) {
	got := BaseDir("/home/user", "/home/user/proj")
	want := filepath.Join("/home/user", ".agentcore", "projects", "-home-user-proj")
	if got != want {
		t.Errorf("BaseDir() = %q, want %q", got, want)
	}
}

func TestFileStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := newTestFileStore(t)

	session := models.NewSession("", "/work/dir")
	if err := store.Create(ctx, session); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := store.Delete(ctx, session.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, session.ID); err != ErrNotFound {
		t.Fatalf("Get() after delete error = %v, want ErrNotFound", err)
	}
}
