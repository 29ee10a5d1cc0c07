package files

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/haasonsaas/agentcore/internal/agent"
	"github.com/haasonsaas/agentcore/pkg/models"
)

func TestResolverRejectsEscape(t *testing.T) {
	root := t.TempDir()
	resolver := Resolver{Root: root}
	_, err := resolver.Resolve("../outside.txt")
	if err == nil {
		t.Fatal("expected escape to be rejected")
	}
}

func newTestSession(workDir string) *models.Session {
	return models.NewSession("test-session", workDir)
}

// ctxFor installs session on a ToolContext the way the Executor does for
// a real turn, so file tools resolve it the same way in tests.
func ctxFor(session *models.Session) context.Context {
	return agent.WithToolContext(context.Background(), &agent.ToolContext{Session: session})
}

func mustMarshal(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	payload, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal arguments: %v", err)
	}
	return payload
}

func TestReadNumbersLines(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "notes.txt")
	if err := os.WriteFile(path, []byte("hello\nworld\n"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	session := newTestSession(root)
	read := NewReadTool(Config{Workspace: root})
	result := read.Execute(ctxFor(session), "call-1", mustMarshal(t, map[string]string{"file_path": "notes.txt"}))

	if result.Status != models.ToolResultSuccess {
		t.Fatalf("expected success, got %s: %s", result.Status, result.Output)
	}
	if !strings.Contains(result.Output, "1→hello") || !strings.Contains(result.Output, "2→world") {
		t.Fatalf("expected numbered lines, got %q", result.Output)
	}
	if _, tracked := session.FileTracker[path]; !tracked {
		t.Fatal("expected Read to record the file in the tracker")
	}
}

func TestReadWithoutToolContextSkipsTracking(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "notes.txt")
	if err := os.WriteFile(path, []byte("hello\n"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	read := NewReadTool(Config{Workspace: root})
	result := read.Execute(context.Background(), "call-1", mustMarshal(t, map[string]string{"file_path": "notes.txt"}))
	if result.Status != models.ToolResultSuccess {
		t.Fatalf("expected success even with no ToolContext, got %s: %s", result.Status, result.Output)
	}
}

func TestEditRejectsWithoutPriorRead(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "notes.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	session := newTestSession(root)
	edit := NewEditTool(Config{Workspace: root})
	result := edit.Execute(ctxFor(session), "call-1", mustMarshal(t, map[string]string{
		"file_path": "notes.txt", "old_string": "world", "new_string": "nexus",
	}))

	if result.Status != models.ToolResultError {
		t.Fatalf("expected error, got %s", result.Status)
	}
	if result.Output != "File has not been read yet. Read it first before writing to it." {
		t.Fatalf("unexpected message: %q", result.Output)
	}
}

func TestEditRejectsAfterExternalModification(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "notes.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	session := newTestSession(root)
	session.FileTracker[path] = time.Now().Add(-time.Hour)

	edit := NewEditTool(Config{Workspace: root})
	result := edit.Execute(ctxFor(session), "call-1", mustMarshal(t, map[string]string{
		"file_path": "notes.txt", "old_string": "world", "new_string": "nexus",
	}))

	if result.Status != models.ToolResultError {
		t.Fatalf("expected error, got %s", result.Status)
	}
	if !strings.Contains(result.Output, "modified externally") {
		t.Fatalf("unexpected message: %q", result.Output)
	}
}

func TestReadThenEditSucceeds(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "notes.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	session := newTestSession(root)
	ctx := ctxFor(session)
	read := NewReadTool(Config{Workspace: root})
	if res := read.Execute(ctx, "call-1", mustMarshal(t, map[string]string{"file_path": "notes.txt"})); res.Status != models.ToolResultSuccess {
		t.Fatalf("read failed: %s", res.Output)
	}

	edit := NewEditTool(Config{Workspace: root})
	result := edit.Execute(ctx, "call-2", mustMarshal(t, map[string]string{
		"file_path": "notes.txt", "old_string": "world", "new_string": "nexus",
	}))
	if result.Status != models.ToolResultSuccess {
		t.Fatalf("expected success, got %s: %s", result.Status, result.Output)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(data) != "hello nexus" {
		t.Fatalf("unexpected content: %s", string(data))
	}
	if _, tracked := session.FileTracker[path]; !tracked {
		t.Fatal("expected Edit to update the tracker after writing")
	}
}

func TestEditAmbiguousMatchRejected(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "notes.txt")
	if err := os.WriteFile(path, []byte("foo foo foo"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	session := newTestSession(root)
	ctx := ctxFor(session)
	read := NewReadTool(Config{Workspace: root})
	read.Execute(ctx, "call-1", mustMarshal(t, map[string]string{"file_path": "notes.txt"}))

	edit := NewEditTool(Config{Workspace: root})
	result := edit.Execute(ctx, "call-2", mustMarshal(t, map[string]string{
		"file_path": "notes.txt", "old_string": "foo", "new_string": "bar",
	}))
	if result.Status != models.ToolResultError {
		t.Fatalf("expected error, got %s", result.Status)
	}
	if !strings.Contains(result.Output, "Found 3 matches") {
		t.Fatalf("unexpected message: %q", result.Output)
	}
}

func TestEditReplaceAll(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "notes.txt")
	if err := os.WriteFile(path, []byte("foo foo foo"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	session := newTestSession(root)
	ctx := ctxFor(session)
	read := NewReadTool(Config{Workspace: root})
	read.Execute(ctx, "call-1", mustMarshal(t, map[string]string{"file_path": "notes.txt"}))

	edit := NewEditTool(Config{Workspace: root})
	result := edit.Execute(ctx, "call-2", mustMarshal(t, map[string]string{
		"file_path": "notes.txt", "old_string": "foo", "new_string": "bar", "replace_all": true,
	}))
	if result.Status != models.ToolResultSuccess {
		t.Fatalf("expected success, got %s: %s", result.Status, result.Output)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(data) != "bar bar bar" {
		t.Fatalf("unexpected content: %s", string(data))
	}
}

func TestMultiEditCreatesFileThenEdits(t *testing.T) {
	root := t.TempDir()
	session := newTestSession(root)
	multi := NewMultiEditTool(Config{Workspace: root})

	result := multi.Execute(ctxFor(session), "call-1", mustMarshal(t, map[string]interface{}{
		"file_path": "fresh.txt",
		"edits": []map[string]interface{}{
			{"old_string": "", "new_string": "line one\nline two\n"},
			{"old_string": "line two", "new_string": "line TWO"},
		},
	}))
	if result.Status != models.ToolResultSuccess {
		t.Fatalf("expected success, got %s: %s", result.Status, result.Output)
	}

	data, err := os.ReadFile(filepath.Join(root, "fresh.txt"))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(data) != "line one\nline TWO\n" {
		t.Fatalf("unexpected content: %s", string(data))
	}
}

func TestMultiEditRequiresPriorReadForExistingFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "notes.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	session := newTestSession(root)
	multi := NewMultiEditTool(Config{Workspace: root})
	result := multi.Execute(ctxFor(session), "call-1", mustMarshal(t, map[string]interface{}{
		"file_path": "notes.txt",
		"edits": []map[string]interface{}{
			{"old_string": "world", "new_string": "nexus"},
		},
	}))
	if result.Status != models.ToolResultError {
		t.Fatalf("expected error, got %s", result.Status)
	}
}

func TestWriteCreatesFileWithoutPriorRead(t *testing.T) {
	root := t.TempDir()
	session := newTestSession(root)
	write := NewWriteTool(Config{Workspace: root})

	result := write.Execute(ctxFor(session), "call-1", mustMarshal(t, map[string]string{
		"file_path": "new.txt", "content": "fresh content",
	}))
	if result.Status != models.ToolResultSuccess {
		t.Fatalf("expected success, got %s: %s", result.Status, result.Output)
	}

	data, err := os.ReadFile(filepath.Join(root, "new.txt"))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(data) != "fresh content" {
		t.Fatalf("unexpected content: %s", string(data))
	}
}

func TestWriteRejectsOverwriteWithoutPriorRead(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "notes.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	session := newTestSession(root)
	write := NewWriteTool(Config{Workspace: root})
	result := write.Execute(ctxFor(session), "call-1", mustMarshal(t, map[string]string{
		"file_path": "notes.txt", "content": "overwritten",
	}))
	if result.Status != models.ToolResultError {
		t.Fatalf("expected error, got %s", result.Status)
	}
}

func TestLsListsEntriesWithDirsSuffixed(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	ls := NewLsTool(Config{Workspace: root})
	result := ls.Execute(context.Background(), "call-1", mustMarshal(t, map[string]string{"path": "."}))
	if result.Status != models.ToolResultSuccess {
		t.Fatalf("expected success, got %s: %s", result.Status, result.Output)
	}
	if !strings.Contains(result.Output, "sub"+string(filepath.Separator)) || !strings.Contains(result.Output, "a.txt") {
		t.Fatalf("unexpected listing: %q", result.Output)
	}
}
